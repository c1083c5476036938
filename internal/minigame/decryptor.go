package minigame

import (
	"time"

	"cheekyos/internal/effects"
	"cheekyos/internal/loop"
)

const (
	GridSize       = 4
	DecryptSeconds = 45
)

var TargetRow = [GridSize]byte{'1', '3', '3', '7'}

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type DecryptHooks struct {
	OnComplete func()
	OnFailure  func()
}

// Decryptor is the meme matrix puzzle: swap tiles until every row reads 1337
// before the countdown runs out.
type Decryptor struct {
	env      effects.Env
	hooks    DecryptHooks
	grid     [GridSize][GridSize]byte
	selected *Cell
	left     int
	solved   bool
	done     bool
	tick     loop.TimerID
	complete loop.TimerID
}

func NewDecryptor(env effects.Env, hooks DecryptHooks) *Decryptor {
	return &Decryptor{env: env, hooks: hooks, left: DecryptSeconds}
}

// Start shuffles a fresh grid and starts the countdown.
func (d *Decryptor) Start() {
	if d.tick != 0 || d.solved || d.done || !d.alive() {
		return
	}
	d.grid = shuffledGrid(d.env)
	d.selected = nil
	d.left = DecryptSeconds
	d.tick = d.env.Loop.Every(time.Second, d.countdown)
}

func (d *Decryptor) alive() bool {
	return d.env.Alive == nil || d.env.Alive()
}

func shuffledGrid(env effects.Env) [GridSize][GridSize]byte {
	flat := make([]byte, 0, GridSize*GridSize)
	for range GridSize {
		flat = append(flat, TargetRow[:]...)
	}
	for {
		env.Rand.Shuffle(len(flat), func(i, j int) { flat[i], flat[j] = flat[j], flat[i] })
		var g [GridSize][GridSize]byte
		for i, b := range flat {
			g[i/GridSize][i%GridSize] = b
		}
		if !isSolved(g) {
			return g
		}
	}
}

func isSolved(g [GridSize][GridSize]byte) bool {
	for _, row := range g {
		if row != TargetRow {
			return false
		}
	}
	return true
}

func (d *Decryptor) Grid() [GridSize][GridSize]byte { return d.grid }
func (d *Decryptor) TimeLeft() int                  { return d.left }
func (d *Decryptor) Solved() bool                   { return d.solved }
func (d *Decryptor) Done() bool                     { return d.done }

func (d *Decryptor) Selected() (Cell, bool) {
	if d.selected == nil {
		return Cell{}, false
	}
	return *d.selected, true
}

// Select picks a tile. Picking a second tile swaps the two; picking the same
// tile again clears the selection.
func (d *Decryptor) Select(row, col int) bool {
	if d.solved || d.done || !d.alive() || row < 0 || row >= GridSize || col < 0 || col >= GridSize {
		return false
	}
	if d.selected == nil {
		d.selected = &Cell{Row: row, Col: col}
		return true
	}
	a := *d.selected
	d.selected = nil
	if a.Row == row && a.Col == col {
		return true
	}
	d.grid[a.Row][a.Col], d.grid[row][col] = d.grid[row][col], d.grid[a.Row][a.Col]
	if isSolved(d.grid) {
		d.solved = true
		d.env.Cancel(&d.tick)
		d.complete = d.env.Loop.After(time.Second, func() {
			d.complete = 0
			if !d.alive() {
				return
			}
			d.done = true
			if d.hooks.OnComplete != nil {
				d.hooks.OnComplete()
			}
		})
	}
	return true
}

func (d *Decryptor) countdown() {
	if !d.alive() {
		return
	}
	d.left--
	if d.left > 0 {
		return
	}
	d.left = 0
	d.env.Cancel(&d.tick)
	d.done = true
	if d.hooks.OnFailure != nil {
		d.hooks.OnFailure()
	}
}

func (d *Decryptor) Stop() {
	d.env.Cancel(&d.tick)
	d.env.Cancel(&d.complete)
}
