// Package minigame holds the small games CheekyOS forces on the player. Each
// game owns its board and reports exactly one outcome through its callbacks;
// none of them touch session state.
package minigame

import (
	"math/rand/v2"
	"slices"
)

type Mark byte

const (
	Empty  Mark = ' '
	Player Mark = 'X'
	AI     Mark = 'O'
)

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// TicTacToe is played by X against CheekyOS as O. A draw counts as a loss.
type TicTacToe struct {
	rand   *rand.Rand
	board  [9]Mark
	winner Mark
	done   bool
	onWin  func()
	onLose func()
}

func NewTicTacToe(r *rand.Rand, onWin, onLose func()) *TicTacToe {
	t := &TicTacToe{rand: r, onWin: onWin, onLose: onLose}
	for i := range t.board {
		t.board[i] = Empty
	}
	return t
}

func (t *TicTacToe) Board() [9]Mark { return t.board }
func (t *TicTacToe) Done() bool     { return t.done }

// Winner is Empty until the game ends, and stays Empty on a draw.
func (t *TicTacToe) Winner() Mark { return t.winner }

// Move places X at cell i (0..8, row-major) and lets CheekyOS answer.
func (t *TicTacToe) Move(i int) bool {
	if t.done || i < 0 || i >= len(t.board) || t.board[i] != Empty {
		return false
	}
	t.board[i] = Player
	if t.settle() {
		return true
	}
	t.board[t.reply()] = AI
	t.settle()
	return true
}

func (t *TicTacToe) settle() bool {
	if w := winnerOf(t.board); w != Empty {
		t.finish(w)
		return true
	}
	if !slices.Contains(t.board[:], Empty) {
		t.finish(Empty)
		return true
	}
	return false
}

func (t *TicTacToe) finish(w Mark) {
	t.done = true
	t.winner = w
	if w == Player {
		if t.onWin != nil {
			t.onWin()
		}
		return
	}
	if t.onLose != nil {
		t.onLose()
	}
}

func (t *TicTacToe) reply() int {
	if i, ok := completing(t.board, AI); ok {
		return i
	}
	if i, ok := completing(t.board, Player); ok {
		return i
	}
	if t.board[4] == Empty {
		return 4
	}
	var open []int
	for i, m := range t.board {
		if m == Empty {
			open = append(open, i)
		}
	}
	return open[t.rand.IntN(len(open))]
}

// completing finds the empty cell that would give m three in a row.
func completing(b [9]Mark, m Mark) (int, bool) {
	for _, ln := range lines {
		own, gap := 0, -1
		for _, i := range ln {
			switch b[i] {
			case m:
				own++
			case Empty:
				gap = i
			}
		}
		if own == 2 && gap >= 0 {
			return gap, true
		}
	}
	return 0, false
}

func winnerOf(b [9]Mark) Mark {
	for _, ln := range lines {
		if b[ln[0]] != Empty && b[ln[0]] == b[ln[1]] && b[ln[1]] == b[ln[2]] {
			return b[ln[0]]
		}
	}
	return Empty
}
