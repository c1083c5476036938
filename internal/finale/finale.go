// Package finale is the bug-hunt arcade round played after the last protocol
// stage: catch one moving target before you miss four times or the clock runs out.
package finale

import (
	"fmt"
	"slices"
	"time"

	"cheekyos/internal/effects"
	"cheekyos/internal/loop"
	"cheekyos/internal/output"
)

type State int

const (
	Inactive State = iota
	Active
	Won
	Lost
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "inactive"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

var Glitches = []string{"shake", "bars", "invert", "static", "tear"}

type Target struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

type Config struct {
	Area        effects.Size
	TargetSize  float64
	Frame       time.Duration
	Timeout     time.Duration
	GlitchEvery time.Duration
	GlitchFor   time.Duration
	SwarmDelay  time.Duration
	MaxMisses   int
	FirstSpeed  float64
	SpawnSpeed  float64
}

func DefaultConfig() Config {
	return Config{
		Area:        effects.PlayArea,
		TargetSize:  30,
		Frame:       16 * time.Millisecond,
		Timeout:     13 * time.Second,
		GlitchEvery: 2 * time.Second,
		GlitchFor:   time.Second,
		SwarmDelay:  3 * time.Second,
		MaxMisses:   4,
		FirstSpeed:  15,
		SpawnSpeed:  18,
	}
}

type Hooks struct {
	OnWin      func()
	OnLose     func()
	StartSwarm func()
	StopSwarm  func()
}

type Game struct {
	env     effects.Env
	cfg     Config
	hooks   Hooks
	state   State
	targets []Target
	nextID  int
	misses  int
	glitch  string

	frame       loop.TimerID
	deadline    loop.TimerID
	glitchTick  loop.TimerID
	glitchClear loop.TimerID
	swarm       loop.TimerID
}

func New(env effects.Env, cfg Config, hooks Hooks) *Game {
	return &Game{env: env, cfg: cfg, hooks: hooks}
}

func (g *Game) State() State      { return g.state }
func (g *Game) Misses() int       { return g.misses }
func (g *Game) Glitch() string    { return g.glitch }
func (g *Game) Targets() []Target { return slices.Clone(g.targets) }
func (g *Game) Config() Config    { return g.cfg }

// Start enters the active round with a single target. Starting twice is a no-op.
func (g *Game) Start() {
	if g.state == Active || !g.alive() {
		return
	}
	g.state = Active
	g.misses = 0
	g.nextID = 0
	g.glitch = ""
	g.targets = []Target{g.spawn(g.cfg.FirstSpeed)}

	g.frame = g.env.Loop.Every(g.cfg.Frame, g.step)
	g.deadline = g.env.Loop.After(g.cfg.Timeout, func() {
		g.deadline = 0
		g.lose()
	})
	g.glitchTick = g.env.Loop.Every(g.cfg.GlitchEvery, g.pulse)
	g.swarm = g.env.Loop.After(g.cfg.SwarmDelay, func() {
		g.swarm = 0
		if g.state == Active && g.alive() && g.hooks.StartSwarm != nil {
			g.hooks.StartSwarm()
		}
	})
}

func (g *Game) alive() bool {
	return g.env.Alive == nil || g.env.Alive()
}

func (g *Game) spawn(speed float64) Target {
	id := g.nextID
	g.nextID++
	return Target{
		ID: id,
		X:  g.env.Rand.Float64() * (g.cfg.Area.W - g.cfg.TargetSize),
		Y:  g.env.Rand.Float64() * (g.cfg.Area.H - g.cfg.TargetSize),
		VX: (g.env.Rand.Float64() - 0.5) * speed,
		VY: (g.env.Rand.Float64() - 0.5) * speed,
	}
}

func (g *Game) step() {
	if g.state != Active || !g.alive() {
		return
	}
	maxX := g.cfg.Area.W - g.cfg.TargetSize
	maxY := g.cfg.Area.H - g.cfg.TargetSize
	for i := range g.targets {
		t := &g.targets[i]
		t.X += t.VX
		t.Y += t.VY
		if t.X < 0 || t.X > maxX {
			t.VX = -t.VX
		}
		if t.Y < 0 || t.Y > maxY {
			t.VY = -t.VY
		}
	}
}

func (g *Game) pulse() {
	if g.state != Active || !g.alive() {
		return
	}
	g.glitch = Glitches[g.env.Rand.IntN(len(Glitches))]
	g.env.Cancel(&g.glitchClear)
	g.glitchClear = g.env.Loop.After(g.cfg.GlitchFor, func() {
		g.glitchClear = 0
		g.glitch = ""
	})
}

// TargetAt returns the topmost target under the point.
func (g *Game) TargetAt(x, y float64) (int, bool) {
	for i := len(g.targets) - 1; i >= 0; i-- {
		t := g.targets[i]
		if x >= t.X && x <= t.X+g.cfg.TargetSize && y >= t.Y && y <= t.Y+g.cfg.TargetSize {
			return t.ID, true
		}
	}
	return 0, false
}

// Click resolves a click on the play area: a hit wins, anything else is a miss.
func (g *Game) Click(x, y float64) {
	if g.state != Active || !g.alive() {
		return
	}
	if id, ok := g.TargetAt(x, y); ok {
		g.Hit(id)
		return
	}
	g.Miss()
}

func (g *Game) Hit(id int) bool {
	if g.state != Active || !g.alive() {
		return false
	}
	i := slices.IndexFunc(g.targets, func(t Target) bool { return t.ID == id })
	if i < 0 {
		return false
	}
	g.targets = slices.Delete(g.targets, i, i+1)
	g.finish(Won)
	if g.hooks.OnWin != nil {
		g.hooks.OnWin()
	}
	return true
}

func (g *Game) Miss() {
	if g.state != Active || !g.alive() {
		return
	}
	g.misses++
	g.env.Log.Append(fmt.Sprintf("MISS %d!", g.misses), output.TagSystem)
	if g.misses >= g.cfg.MaxMisses {
		g.lose()
		return
	}
	// Live targets double with every miss: 2, 4, 8.
	add := 1 << (g.misses - 1)
	for i := 0; i < add; i++ {
		g.targets = append(g.targets, g.spawn(g.cfg.SpawnSpeed))
	}
}

func (g *Game) lose() {
	if g.state != Active || !g.alive() {
		return
	}
	g.finish(Lost)
	if g.hooks.OnLose != nil {
		g.hooks.OnLose()
	}
}

func (g *Game) finish(s State) {
	g.state = s
	g.env.Cancel(&g.frame)
	g.env.Cancel(&g.deadline)
	g.env.Cancel(&g.glitchTick)
	g.env.Cancel(&g.glitchClear)
	g.env.Cancel(&g.swarm)
	g.glitch = ""
	if s == Won {
		g.targets = nil
		g.misses = 0
	}
	if g.hooks.StopSwarm != nil {
		g.hooks.StopSwarm()
	}
}

// Stop tears the round down without an outcome.
func (g *Game) Stop() {
	if g.state != Active {
		return
	}
	g.state = Inactive
	g.env.Cancel(&g.frame)
	g.env.Cancel(&g.deadline)
	g.env.Cancel(&g.glitchTick)
	g.env.Cancel(&g.glitchClear)
	g.env.Cancel(&g.swarm)
	g.glitch = ""
}
