package effects

import (
	"time"

	"cheekyos/internal/loop"
)

// Ambient is the subtle CRT blip that runs for the whole session.
type Ambient struct {
	env        Env
	suppressed func() bool
	Blip       time.Duration
	timer      loop.TimerID
	running    bool
	blipping   bool
}

func NewAmbient(env Env, suppressed func() bool) *Ambient {
	return &Ambient{env: env, suppressed: suppressed, Blip: 150 * time.Millisecond}
}

func (a *Ambient) Start() {
	if a.running || !a.env.alive() {
		return
	}
	a.running = true
	a.cycle()
}

func (a *Ambient) Stop() {
	if !a.running {
		return
	}
	a.env.Cancel(&a.timer)
	a.running = false
	a.blipping = false
}

func (a *Ambient) Running() bool { return a.running }
func (a *Ambient) Active() bool  { return a.blipping }

func (a *Ambient) cycle() {
	a.timer = 0
	if !a.env.alive() {
		return
	}
	if a.suppressed != nil && a.suppressed() {
		a.scheduleNext()
		return
	}
	a.blipping = true
	a.timer = a.env.Loop.After(a.Blip, func() {
		a.blipping = false
		a.scheduleNext()
	})
}

func (a *Ambient) scheduleNext() {
	if !a.env.alive() {
		return
	}
	a.timer = a.env.Loop.After(a.env.Between(5*time.Second, 20*time.Second), a.cycle)
}
