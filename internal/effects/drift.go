package effects

import (
	"time"

	"cheekyos/internal/loop"
)

type DriftConfig struct {
	Area   Size
	Window Size
	Anchor Point
	Tick   time.Duration
	Growth float64
}

func DefaultDriftConfig() DriftConfig {
	return DriftConfig{
		Area:   PlayArea,
		Window: Size{W: 600, H: 400},
		Anchor: Point{X: 100, Y: 150},
		Tick:   50 * time.Millisecond,
		Growth: 1.015,
	}
}

// Drift pushes the terminal window around by a random walk whose step size
// grows geometrically. Losing the window entirely stops the drift and reports
// through onLost.
type Drift struct {
	env        Env
	cfg        DriftConfig
	onLost     func()
	pos        Point
	multiplier float64
	timer      loop.TimerID
	running    bool
}

func NewDrift(env Env, cfg DriftConfig, onLost func()) *Drift {
	return &Drift{env: env, cfg: cfg, onLost: onLost, pos: cfg.Anchor, multiplier: 1}
}

func (d *Drift) Start() {
	if d.running || !d.env.alive() {
		return
	}
	d.running = true
	d.multiplier = 1
	d.timer = d.env.Loop.Every(d.cfg.Tick, d.tick)
}

func (d *Drift) Stop() {
	if !d.running {
		return
	}
	d.env.Cancel(&d.timer)
	d.running = false
	d.multiplier = 1
}

// Anchor puts the window back at its resting position.
func (d *Drift) Anchor() { d.pos = d.cfg.Anchor }

func (d *Drift) Running() bool       { return d.running }
func (d *Drift) Position() Point     { return d.pos }
func (d *Drift) Multiplier() float64 { return d.multiplier }
func (d *Drift) Window() Size        { return d.cfg.Window }

func (d *Drift) tick() {
	if !d.env.alive() {
		d.Stop()
		return
	}
	next := Point{
		X: d.pos.X + (d.env.Rand.Float64()-0.5)*2*d.multiplier,
		Y: d.pos.Y + (d.env.Rand.Float64()-0.5)*2*d.multiplier,
	}
	if d.outside(next) {
		d.Stop()
		if d.onLost != nil {
			d.onLost()
		}
		return
	}
	d.pos = next
	d.multiplier *= d.cfg.Growth
}

func (d *Drift) outside(p Point) bool {
	return p.X+d.cfg.Window.W < 0 ||
		p.X > d.cfg.Area.W ||
		p.Y+d.cfg.Window.H < 0 ||
		p.Y > d.cfg.Area.H
}
