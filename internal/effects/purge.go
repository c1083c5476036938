package effects

import (
	"fmt"
	"time"

	"cheekyos/internal/loop"
	"cheekyos/internal/narrate"
	"cheekyos/internal/output"
)

type PurgeHooks struct {
	// Lock is called when the final count starts; the player can no longer answer.
	Lock     func()
	OnExpire func()
}

// Purge is the log-purge countdown: a grace period, then a typed countdown
// from 5 to 1 ending in a fatal failure unless stopped first. Stop still
// calls off the failure while the final count is being typed.
type Purge struct {
	env      Env
	hooks    PurgeHooks
	Grace    time.Duration
	Spacing  time.Duration
	From     int
	timer    loop.TimerID
	gen      int
	running  bool
	expiring bool
}

func NewPurge(env Env, hooks PurgeHooks) *Purge {
	return &Purge{env: env, hooks: hooks, Grace: 10 * time.Second, Spacing: time.Second, From: 5}
}

func (p *Purge) Start() {
	if p.running || !p.env.alive() {
		return
	}
	p.running = true
	p.gen++
	gen := p.gen
	p.timer = p.env.Loop.After(p.Grace, func() { p.count(gen, p.From) })
}

func (p *Purge) Stop() {
	if !p.running && !p.expiring {
		return
	}
	p.running, p.expiring = false, false
	p.gen++
	p.env.Cancel(&p.timer)
}

func (p *Purge) Running() bool { return p.running }

func (p *Purge) current(gen int) bool {
	return p.running && gen == p.gen && p.env.alive()
}

func (p *Purge) count(gen, n int) {
	p.timer = 0
	if !p.current(gen) {
		return
	}
	if n > 1 {
		p.env.Narrator.Play([]narrate.Step{
			narrate.Type(fmt.Sprintf("...%d...", n), output.TagAI),
		}, func() {
			if !p.current(gen) {
				return
			}
			p.timer = p.env.Loop.After(p.Spacing, func() { p.count(gen, n-1) })
		})
		return
	}

	p.running, p.expiring = false, true
	if p.hooks.Lock != nil {
		p.hooks.Lock()
	}
	p.env.Narrator.Play([]narrate.Step{
		narrate.Type("...1...", output.TagAI),
		narrate.Pause(500 * time.Millisecond),
		narrate.Type("...TOO SLOW! (╯°□°）╯︵ ┻━┻", output.TagAI),
		narrate.Type("Log integrity check failed. System instability critical. Rebooting...", output.TagAI),
	}, func() {
		if gen != p.gen || !p.expiring {
			return
		}
		p.expiring = false
		if p.hooks.OnExpire != nil {
			p.hooks.OnExpire()
		}
	})
}
