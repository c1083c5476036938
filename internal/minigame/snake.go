package minigame

import (
	"slices"
	"time"

	"cheekyos/internal/effects"
	"cheekyos/internal/loop"
)

const (
	SnakeWidth  = 24
	SnakeHeight = 14
	SnakeTick   = 120 * time.Millisecond
	// Every third fragment eaten also yields a decryption key.
	FragmentsPerKey = 3
)

type Dir int

const (
	Up Dir = iota
	Down
	Left
	Right
)

func (d Dir) opposite(o Dir) bool {
	switch d {
	case Up:
		return o == Down
	case Down:
		return o == Up
	case Left:
		return o == Right
	default:
		return o == Left
	}
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snake is the meme hunt played after the archive is secured.
type Snake struct {
	env        effects.Env
	onGameOver func(fragments, keys int)
	body       []Point
	dir        Dir
	next       Dir
	food       Point
	fragments  int
	keys       int
	over       bool
	timer      loop.TimerID
}

func NewSnake(env effects.Env, onGameOver func(fragments, keys int)) *Snake {
	return &Snake{env: env, onGameOver: onGameOver}
}

func (s *Snake) Start() {
	if s.timer != 0 || s.over || !s.alive() {
		return
	}
	cx, cy := SnakeWidth/2, SnakeHeight/2
	s.body = []Point{{cx, cy}, {cx - 1, cy}, {cx - 2, cy}}
	s.dir, s.next = Right, Right
	s.fragments, s.keys = 0, 0
	s.placeFood()
	s.timer = s.env.Loop.Every(SnakeTick, s.step)
}

func (s *Snake) alive() bool {
	return s.env.Alive == nil || s.env.Alive()
}

func (s *Snake) Body() []Point  { return slices.Clone(s.body) }
func (s *Snake) Food() Point    { return s.food }
func (s *Snake) Fragments() int { return s.fragments }
func (s *Snake) Keys() int      { return s.keys }
func (s *Snake) Over() bool     { return s.over }

// Turn queues a direction for the next tick. Reversing into the neck is ignored.
func (s *Snake) Turn(d Dir) bool {
	if s.over || s.timer == 0 || d.opposite(s.dir) {
		return false
	}
	s.next = d
	return true
}

func (s *Snake) step() {
	if !s.alive() {
		return
	}
	s.dir = s.next
	head := s.body[0]
	switch s.dir {
	case Up:
		head.Y--
	case Down:
		head.Y++
	case Left:
		head.X--
	case Right:
		head.X++
	}

	eating := head == s.food
	// The tail moves out of the way this tick unless the snake grows.
	rest := s.body
	if !eating {
		rest = s.body[:len(s.body)-1]
	}
	if head.X < 0 || head.X >= SnakeWidth || head.Y < 0 || head.Y >= SnakeHeight || slices.Contains(rest, head) {
		s.end()
		return
	}
	s.body = append([]Point{head}, rest...)
	if eating {
		s.fragments++
		if s.fragments%FragmentsPerKey == 0 {
			s.keys++
		}
		s.placeFood()
	}
}

func (s *Snake) placeFood() {
	var free []Point
	for y := 0; y < SnakeHeight; y++ {
		for x := 0; x < SnakeWidth; x++ {
			p := Point{x, y}
			if !slices.Contains(s.body, p) {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		s.end()
		return
	}
	s.food = free[s.env.Rand.IntN(len(free))]
}

func (s *Snake) end() {
	if s.over {
		return
	}
	s.over = true
	s.env.Cancel(&s.timer)
	if s.onGameOver != nil {
		s.onGameOver(s.fragments, s.keys)
	}
}

func (s *Snake) Stop() {
	s.env.Cancel(&s.timer)
}
