// Package effects holds the timed sabotage controllers that run alongside the
// puzzles. Every controller schedules on the shared loop, owns its own
// sub-state and checks session liveness before any deferred action.
package effects

import (
	"math/rand/v2"
	"time"

	"cheekyos/internal/loop"
	"cheekyos/internal/narrate"
	"cheekyos/internal/output"
)

type Env struct {
	Loop     *loop.Loop
	Rand     *rand.Rand
	Log      *output.Log
	Narrator *narrate.Narrator
	Alive    func() bool
}

func (e Env) alive() bool {
	return e.Alive == nil || e.Alive()
}

// Between draws a duration uniformly from [lo, hi).
func (e Env) Between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(e.Rand.Float64()*float64(hi-lo))
}

func (e Env) Cancel(id *loop.TimerID) {
	if *id != 0 {
		e.Loop.Cancel(*id)
		*id = 0
	}
}

func (e Env) system(text string) {
	e.Log.Append(text, output.TagSystem)
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// PlayArea is the virtual CRT glass all positions are expressed in. The UI
// scales it to terminal cells.
var PlayArea = Size{W: 1000, H: 700}
