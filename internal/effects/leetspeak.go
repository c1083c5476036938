package effects

import (
	"strings"
	"time"

	"cheekyos/internal/loop"
)

var leetReplacer = strings.NewReplacer(
	"A", "4", "a", "4",
	"E", "3", "e", "3",
	"I", "1", "i", "1",
	"O", "0", "o", "0",
)

// Transliterate renders text the way the unstable keyboard map shows it.
func Transliterate(s string) string {
	return leetReplacer.Replace(s)
}

// Leetspeak flickers the keyboard map between normal and leet display.
type Leetspeak struct {
	env     Env
	timer   loop.TimerID
	running bool
	active  bool
}

func NewLeetspeak(env Env) *Leetspeak {
	return &Leetspeak{env: env}
}

func (l *Leetspeak) Start() {
	if l.running || !l.env.alive() {
		return
	}
	l.running = true
	l.timer = l.env.Loop.Every(l.env.Between(2*time.Second, 3*time.Second), func() {
		if !l.env.alive() {
			return
		}
		l.active = !l.active
	})
}

func (l *Leetspeak) Stop() {
	if !l.running {
		return
	}
	l.env.Cancel(&l.timer)
	l.running = false
	l.active = false
	if l.env.alive() {
		l.env.system("## Keyboard mapping stabilized. ##")
	}
}

func (l *Leetspeak) Running() bool { return l.running }

// Active reports whether input is currently displayed transliterated.
func (l *Leetspeak) Active() bool { return l.active }
