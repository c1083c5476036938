package effects

import (
	"time"

	"cheekyos/internal/loop"
)

// Ticker shows a random headline every 20-30s for a fixed visible period.
type Ticker struct {
	env        Env
	headlines  []string
	suppressed func() bool
	Visible    time.Duration
	timer      loop.TimerID
	running    bool
	showing    bool
	headline   string
}

func NewTicker(env Env, headlines []string, suppressed func() bool) *Ticker {
	return &Ticker{env: env, headlines: headlines, suppressed: suppressed, Visible: 20 * time.Second}
}

func (t *Ticker) Start() {
	if t.running || !t.env.alive() || len(t.headlines) == 0 {
		return
	}
	t.running = true
	t.schedule()
}

func (t *Ticker) Stop() {
	if !t.running {
		return
	}
	t.env.Cancel(&t.timer)
	t.running = false
	t.showing = false
	t.headline = ""
}

func (t *Ticker) Running() bool { return t.running }

// Headline returns the headline on screen, if any.
func (t *Ticker) Headline() (string, bool) {
	return t.headline, t.showing
}

func (t *Ticker) schedule() {
	t.timer = t.env.Loop.After(t.env.Between(20*time.Second, 30*time.Second), t.show)
}

func (t *Ticker) show() {
	t.timer = 0
	if !t.env.alive() {
		return
	}
	if t.suppressed != nil && t.suppressed() {
		t.schedule()
		return
	}
	t.headline = t.headlines[t.env.Rand.IntN(len(t.headlines))]
	t.showing = true
	t.timer = t.env.Loop.After(t.Visible, func() {
		t.showing = false
		t.headline = ""
		if t.env.alive() {
			t.schedule()
		}
	})
}
