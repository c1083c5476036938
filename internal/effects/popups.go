package effects

import (
	"slices"
	"time"

	"cheekyos/internal/loop"
)

type Popup struct {
	ID      int   `json:"id"`
	Pos     Point `json:"pos"`
	Button  Point `json:"button"`
	Closing bool  `json:"closing"`

	lastMoved time.Duration
	moved     bool
}

type PopupConfig struct {
	Area           Size
	Popup          Size
	Button         Size
	ButtonHome     Point
	Initial        time.Duration
	Step           time.Duration
	Floor          time.Duration
	Max            int
	CloseDelay     time.Duration
	Cooldown       time.Duration
	TeleportChance float64
}

func DefaultPopupConfig() PopupConfig {
	return PopupConfig{
		Area:           PlayArea,
		Popup:          Size{W: 350, H: 150},
		Button:         Size{W: 80, H: 30},
		ButtonHome:     Point{X: 140, Y: 10},
		Initial:        4000 * time.Millisecond,
		Step:           150 * time.Millisecond,
		Floor:          500 * time.Millisecond,
		Max:            20,
		CloseDelay:     300 * time.Millisecond,
		Cooldown:       500 * time.Millisecond,
		TeleportChance: 0.05,
	}
}

// Popups is the popup swarm. Each spawn shortens the next interval until the
// floor; reaching Max live popups is an overload.
type Popups struct {
	env        Env
	cfg        PopupConfig
	onOverload func()
	popups     []Popup
	nextID     int
	interval   time.Duration
	timer      loop.TimerID
	closing    map[int]loop.TimerID
	running    bool
}

func NewPopups(env Env, cfg PopupConfig, onOverload func()) *Popups {
	return &Popups{env: env, cfg: cfg, onOverload: onOverload, closing: map[int]loop.TimerID{}}
}

func (p *Popups) Start() {
	if p.running || !p.env.alive() {
		return
	}
	p.running = true
	p.interval = p.cfg.Initial
	p.popups = []Popup{p.spawn()}
	p.timer = p.env.Loop.After(p.interval, p.spawnNext)
}

func (p *Popups) Stop() {
	if !p.running && len(p.popups) == 0 {
		return
	}
	p.env.Cancel(&p.timer)
	for id, t := range p.closing {
		p.env.Loop.Cancel(t)
		delete(p.closing, id)
	}
	p.popups = nil
	p.running = false
}

func (p *Popups) Running() bool               { return p.running }
func (p *Popups) Count() int                  { return len(p.popups) }
func (p *Popups) Popups() []Popup             { return slices.Clone(p.popups) }
func (p *Popups) Config() PopupConfig         { return p.cfg }
func (p *Popups) NextInterval() time.Duration { return p.interval }

func (p *Popups) spawn() Popup {
	p.nextID++
	return Popup{ID: p.nextID, Pos: p.randomPos(), Button: p.cfg.ButtonHome}
}

func (p *Popups) randomPos() Point {
	return Point{
		X: p.env.Rand.Float64() * max(0, p.cfg.Area.W-p.cfg.Popup.W),
		Y: p.env.Rand.Float64() * max(0, p.cfg.Area.H-p.cfg.Popup.H),
	}
}

func (p *Popups) spawnNext() {
	p.timer = 0
	if !p.running || !p.env.alive() {
		return
	}
	p.popups = append(p.popups, p.spawn())
	if len(p.popups) >= p.cfg.Max {
		p.running = false
		p.env.system("!!! POP-UP OVERLOAD! SYSTEM CRITICAL !!!")
		p.env.system("Rebooting primary core...")
		if p.onOverload != nil {
			p.onOverload()
		}
		return
	}
	p.interval = max(p.cfg.Floor, p.interval-p.cfg.Step)
	p.timer = p.env.Loop.After(p.interval, p.spawnNext)
}

// Close starts the closing animation; the popup disappears after CloseDelay.
// Closing the last popup ends the swarm.
func (p *Popups) Close(id int) bool {
	if !p.env.alive() {
		return false
	}
	i := p.index(id)
	if i < 0 || p.popups[i].Closing {
		return false
	}
	p.popups[i].Closing = true
	p.closing[id] = p.env.Loop.After(p.cfg.CloseDelay, func() {
		delete(p.closing, id)
		if !p.env.alive() {
			return
		}
		if j := p.index(id); j >= 0 {
			p.popups = slices.Delete(p.popups, j, j+1)
		}
		if len(p.popups) == 0 {
			p.env.Cancel(&p.timer)
			p.running = false
		}
	})
	return true
}

// Hover dodges the pointer: the close button jumps somewhere else inside the
// popup, or rarely the whole popup teleports. Rate limited per popup.
func (p *Popups) Hover(id int) bool {
	if !p.env.alive() {
		return false
	}
	i := p.index(id)
	if i < 0 || p.popups[i].Closing {
		return false
	}
	now := p.env.Loop.Now()
	pp := &p.popups[i]
	if pp.moved && now-pp.lastMoved < p.cfg.Cooldown {
		return false
	}
	if p.env.Rand.Float64() < p.cfg.TeleportChance {
		pp.Pos = p.randomPos()
	} else {
		pp.Button = Point{
			X: p.env.Rand.Float64() * max(0, p.cfg.Popup.W-p.cfg.Button.W),
			Y: p.env.Rand.Float64() * max(0, p.cfg.Popup.H-p.cfg.Button.H),
		}
	}
	pp.moved = true
	pp.lastMoved = now
	return true
}

// ButtonAt returns the popup whose close button covers the point, topmost first.
func (p *Popups) ButtonAt(pt Point) (int, bool) {
	for i := len(p.popups) - 1; i >= 0; i-- {
		pp := p.popups[i]
		bx, by := pp.Pos.X+pp.Button.X, pp.Pos.Y+pp.Button.Y
		if pt.X >= bx && pt.X <= bx+p.cfg.Button.W && pt.Y >= by && pt.Y <= by+p.cfg.Button.H {
			return pp.ID, true
		}
	}
	return 0, false
}

// At returns the topmost popup covering the point.
func (p *Popups) At(pt Point) (int, bool) {
	for i := len(p.popups) - 1; i >= 0; i-- {
		pp := p.popups[i]
		if pt.X >= pp.Pos.X && pt.X <= pp.Pos.X+p.cfg.Popup.W && pt.Y >= pp.Pos.Y && pt.Y <= pp.Pos.Y+p.cfg.Popup.H {
			return pp.ID, true
		}
	}
	return 0, false
}

func (p *Popups) index(id int) int {
	return slices.IndexFunc(p.popups, func(pp Popup) bool { return pp.ID == id })
}
