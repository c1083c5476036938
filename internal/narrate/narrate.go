// Package narrate plays scripted CheekyOS dialogue into the output log.
//
// A script is a flat list of steps. Steps run strictly in order on the loop;
// a typed line finishes growing before the next step starts, and the session
// liveness check runs before every resumption.
package narrate

import (
	"time"

	"cheekyos/internal/loop"
	"cheekyos/internal/output"
)

const DefaultCharDelay = 60 * time.Millisecond

type kind int

const (
	kindType kind = iota
	kindLine
	kindPause
	kindDo
	kindClear
)

type Step struct {
	kind     kind
	text     string
	tag      output.Tag
	delay    time.Duration
	hasDelay bool
	fn       func()
}

// Type grows text one character at a time at the narrator's delay.
func Type(text string, tag output.Tag) Step {
	return Step{kind: kindType, text: text, tag: tag}
}

func TypeAt(text string, tag output.Tag, perChar time.Duration) Step {
	return Step{kind: kindType, text: text, tag: tag, delay: perChar, hasDelay: true}
}

// Line appends text in one go.
func Line(text string, tag output.Tag) Step {
	return Step{kind: kindLine, text: text, tag: tag}
}

func Pause(d time.Duration) Step {
	return Step{kind: kindPause, delay: d}
}

func Do(fn func()) Step {
	return Step{kind: kindDo, fn: fn}
}

func Clear() Step {
	return Step{kind: kindClear}
}

type Narrator struct {
	loop      *loop.Loop
	log       *output.Log
	alive     func() bool
	charDelay time.Duration
	playing   int
	gen       int
}

func New(l *loop.Loop, log *output.Log, alive func() bool, charDelay time.Duration) *Narrator {
	if alive == nil {
		alive = func() bool { return true }
	}
	if charDelay < 0 {
		charDelay = 0
	}
	return &Narrator{loop: l, log: log, alive: alive, charDelay: charDelay}
}

func (n *Narrator) CharDelay() time.Duration { return n.charDelay }

// Playing reports how many scripts are still running.
func (n *Narrator) Playing() int { return n.playing }

// Play starts a script. Steps up to the first wait run synchronously. done runs
// after the last step unless the session died on the way.
func (n *Narrator) Play(steps []Step, done func()) {
	if !n.alive() {
		return
	}
	n.playing++
	p := &playback{n: n, steps: steps, done: done, gen: n.gen}
	p.next()
}

type playback struct {
	n     *Narrator
	steps []Step
	i     int
	done  func()
	gen   int
}

// Cancel abandons every script in flight. Their done callbacks never run.
func (n *Narrator) Cancel() {
	n.gen++
	n.playing = 0
}

func (p *playback) live() bool {
	return p.n.alive() && p.gen == p.n.gen
}

func (p *playback) next() {
	n := p.n
	for p.i < len(p.steps) {
		if !p.live() {
			p.release()
			return
		}
		s := p.steps[p.i]
		p.i++
		switch s.kind {
		case kindLine:
			n.log.Append(s.text, s.tag)
		case kindClear:
			n.log.Clear()
		case kindDo:
			if s.fn != nil {
				s.fn()
			}
		case kindPause:
			n.loop.After(s.delay, p.next)
			return
		case kindType:
			delay := n.charDelay
			if s.hasDelay {
				delay = s.delay
			}
			if delay <= 0 {
				n.log.Append(s.text, s.tag)
				continue
			}
			id := n.log.Begin(s.tag)
			runes := []rune(s.text)
			n.loop.After(0, func() { p.typeFrom(id, runes, 0, delay) })
			return
		}
	}
	live := p.live()
	p.release()
	if p.done != nil && live {
		p.done()
	}
}

func (p *playback) typeFrom(id int, runes []rune, k int, delay time.Duration) {
	if !p.live() {
		p.release()
		return
	}
	if k == len(runes) {
		p.next()
		return
	}
	p.n.log.Grow(id, runes[k])
	p.n.loop.After(delay, func() { p.typeFrom(id, runes, k+1, delay) })
}

func (p *playback) release() {
	if p.gen == p.n.gen {
		p.n.playing--
	}
}
