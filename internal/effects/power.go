package effects

import (
	"time"

	"cheekyos/internal/loop"
)

type PowerHooks struct {
	// Eligible reports whether the session is in a state a flicker may interrupt.
	Eligible func() bool
	Lock     func()
	// Restore unlocks input if appropriate and reports whether it did.
	Restore func() bool
}

// Power rolls for a random power fluctuation every 40-60s. A fluctuation
// locks input for 5-7s.
type Power struct {
	env        Env
	hooks      PowerHooks
	Chance     float64
	check      loop.TimerID
	recover    loop.TimerID
	running    bool
	flickering bool
}

func NewPower(env Env, hooks PowerHooks) *Power {
	return &Power{env: env, hooks: hooks, Chance: 0.25}
}

func (p *Power) Start() {
	if p.running || !p.env.alive() {
		return
	}
	p.running = true
	p.schedule()
}

func (p *Power) Stop() {
	if !p.running {
		return
	}
	p.env.Cancel(&p.check)
	p.env.Cancel(&p.recover)
	p.running = false
	p.flickering = false
}

func (p *Power) Running() bool    { return p.running }
func (p *Power) Flickering() bool { return p.flickering }

func (p *Power) schedule() {
	p.check = p.env.Loop.After(p.env.Between(40*time.Second, 60*time.Second), p.roll)
}

func (p *Power) roll() {
	p.check = 0
	if !p.env.alive() {
		return
	}
	if !p.flickering && p.hooks.Eligible != nil && p.hooks.Eligible() && p.env.Rand.Float64() < p.Chance {
		p.Trigger()
	}
	p.schedule()
}

// Trigger starts a fluctuation immediately.
func (p *Power) Trigger() bool {
	if p.flickering || !p.env.alive() {
		return false
	}
	p.flickering = true
	if p.hooks.Lock != nil {
		p.hooks.Lock()
	}
	p.env.system("!!! Power Fluctuation !!! Standby...")
	p.recover = p.env.Loop.After(p.env.Between(5*time.Second, 7*time.Second), p.restore)
	return true
}

func (p *Power) restore() {
	p.recover = 0
	if !p.env.alive() {
		return
	}
	p.flickering = false
	if p.hooks.Restore != nil && p.hooks.Restore() {
		p.env.system("...Power stable.")
	}
}
