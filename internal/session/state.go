package session

import (
	"slices"
	"sort"

	"cheekyos/internal/effects"
	"cheekyos/internal/finale"
	"cheekyos/internal/minigame"
	"cheekyos/internal/output"
)

type Window string

const (
	WindowTerminal  Window = "terminal"
	WindowManual    Window = "manual"
	WindowASCII     Window = "ascii"
	WindowStatusLog Window = "log"
	WindowLore      Window = "lore"
	WindowNetFeed   Window = "netfeed"
	WindowTicTacToe Window = "tictactoe"
	WindowDecryptor Window = "decryptor"
	WindowSnake     Window = "snake"
	WindowInbox     Window = "inbox"
)

// DesktopWindows can be toggled from desktop icons.
var DesktopWindows = []Window{
	WindowTerminal, WindowNetFeed, WindowManual, WindowASCII, WindowStatusLog, WindowLore, WindowInbox,
}

type CRT int

const (
	CRTNone CRT = iota
	CRTAlert
	CRTCollapse
	CRTOff
)

func (c CRT) String() string {
	return [...]string{"none", "alert", "collapse", "off"}[c]
}

func (c CRT) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

type Flash string

const (
	FlashNone  Flash = ""
	FlashWhite Flash = "white"
	FlashRed   Flash = "red"
)

// GlitchOrder is the escalation ladder for repeated failures.
var GlitchOrder = []string{"shake", "bars", "tear", "invert"}

const (
	MaxFailStreak  = 3
	InboxAuthError = "AUTH_FAIL: INVALID HASH. TRY AGAIN, RUNNER."
)

// State is the session record. Only Session mutates it.
type State struct {
	Stage          Stage
	InputLocked    bool
	History        []string
	FailStreak     int
	SelectedMeme   string
	NobleChoice    string
	Glitch         string
	GlitchDuration int
	CRT            CRT

	ArrivalNotice      bool
	IntroDone          bool
	IntroSkipped       bool
	ManualLocked       bool
	GameOver           bool
	BugSwarm           bool
	Flash              Flash
	VictoryFrame       string
	TicTacToeTriggered bool
	Windows            map[Window]bool

	PasswordRevealed bool
	InboxUnlocked    bool
	InboxError       string
	SnakeFragments   int
	SnakeKeys        int
	EmailsRead       map[int]bool
	SelectedEmail    int
}

func newState() State {
	return State{
		Stage:         At(0),
		InputLocked:   true,
		ArrivalNotice: true,
		Windows:       map[Window]bool{},
		EmailsRead:    map[int]bool{},
		SelectedEmail: -1,
	}
}

type FinaleView struct {
	State   finale.State    `json:"state"`
	Targets []finale.Target `json:"targets,omitempty"`
	Misses  int             `json:"misses"`
	Glitch  string          `json:"glitch,omitempty"`
}

type DecryptorView struct {
	Rows     []string       `json:"rows"`
	Selected *minigame.Cell `json:"selected,omitempty"`
	TimeLeft int            `json:"time_left"`
	Solved   bool           `json:"solved"`
}

type SnakeView struct {
	Body      []minigame.Point `json:"body"`
	Food      minigame.Point   `json:"food"`
	Fragments int              `json:"fragments"`
	Keys      int              `json:"keys"`
}

// Snapshot is a copy of everything a renderer needs. It shares no memory
// with the session.
type Snapshot struct {
	Stage          Stage    `json:"stage"`
	InputLocked    bool     `json:"input_locked"`
	History        []string `json:"history"`
	FailStreak     int      `json:"fail_streak"`
	SelectedMeme   string   `json:"selected_meme,omitempty"`
	NobleChoice    string   `json:"noble_choice,omitempty"`
	Glitch         string   `json:"glitch,omitempty"`
	GlitchDuration int      `json:"glitch_duration"`
	CRT            CRT      `json:"crt"`
	Flash          Flash    `json:"flash,omitempty"`

	ArrivalNotice bool     `json:"arrival_notice"`
	IntroDone     bool     `json:"intro_done"`
	IntroSkipped  bool     `json:"intro_skipped"`
	ManualLocked  bool     `json:"manual_locked"`
	GameOver      bool     `json:"game_over"`
	BugSwarm      bool     `json:"bug_swarm"`
	VictoryFrame  string   `json:"victory_frame,omitempty"`
	Windows       []Window `json:"windows"`

	PasswordRevealed bool   `json:"password_revealed"`
	InboxUnlocked    bool   `json:"inbox_unlocked"`
	InboxError       string `json:"inbox_error,omitempty"`
	SnakeFragments   int    `json:"snake_fragments"`
	SnakeKeys        int    `json:"snake_keys"`
	EmailsAvailable  int    `json:"emails_available"`
	EmailsRead       []int  `json:"emails_read"`
	SelectedEmail    int    `json:"selected_email"`
	FakeTime         string `json:"fake_time"`
	LoreCycle        int    `json:"lore_cycle"`

	Log             []output.Entry  `json:"log"`
	Terminal        effects.Point   `json:"terminal"`
	Drifting        bool            `json:"drifting"`
	Leetspeak       bool            `json:"leetspeak"`
	Popups          []effects.Popup `json:"popups"`
	PowerFlicker    bool            `json:"power_flicker"`
	AmbientBlip     bool            `json:"ambient_blip"`
	Headline        string          `json:"headline,omitempty"`
	Finale          FinaleView      `json:"finale"`
	TicTacToe       string          `json:"tictactoe,omitempty"`
	Decryptor       *DecryptorView  `json:"decryptor,omitempty"`
	Snake           *SnakeView      `json:"snake,omitempty"`
	NarrationActive bool            `json:"narration_active"`
}

func (s Snapshot) WindowOpen(w Window) bool {
	return slices.Contains(s.Windows, w)
}

func (s *Session) Snapshot() Snapshot {
	st := s.st
	snap := Snapshot{
		Stage:          st.Stage,
		InputLocked:    st.InputLocked,
		History:        slices.Clone(st.History),
		FailStreak:     st.FailStreak,
		SelectedMeme:   st.SelectedMeme,
		NobleChoice:    st.NobleChoice,
		Glitch:         st.Glitch,
		GlitchDuration: st.GlitchDuration,
		CRT:            st.CRT,
		Flash:          st.Flash,

		ArrivalNotice: st.ArrivalNotice,
		IntroDone:     st.IntroDone,
		IntroSkipped:  st.IntroSkipped,
		ManualLocked:  st.ManualLocked,
		GameOver:      st.GameOver,
		BugSwarm:      st.BugSwarm,
		VictoryFrame:  st.VictoryFrame,

		PasswordRevealed: st.PasswordRevealed,
		InboxUnlocked:    st.InboxUnlocked,
		InboxError:       st.InboxError,
		SnakeFragments:   st.SnakeFragments,
		SnakeKeys:        st.SnakeKeys,
		EmailsAvailable:  s.emailsAvailable(),
		SelectedEmail:    st.SelectedEmail,
		FakeTime:         s.fakeTime,
		LoreCycle:        s.loreCycle,

		Log:          s.log.Entries(),
		Terminal:     s.drift.Position(),
		Drifting:     s.drift.Running(),
		Leetspeak:    s.leet.Active(),
		Popups:       s.popups.Popups(),
		PowerFlicker: s.power.Flickering(),
		AmbientBlip:  s.ambient.Active(),
		Finale: FinaleView{
			State:   s.finale.State(),
			Targets: s.finale.Targets(),
			Misses:  s.finale.Misses(),
			Glitch:  s.finale.Glitch(),
		},
		NarrationActive: s.narrator.Playing() > 0,
	}
	for w, open := range st.Windows {
		if open {
			snap.Windows = append(snap.Windows, w)
		}
	}
	sort.Slice(snap.Windows, func(i, j int) bool { return snap.Windows[i] < snap.Windows[j] })
	for i := range st.EmailsRead {
		snap.EmailsRead = append(snap.EmailsRead, i)
	}
	sort.Ints(snap.EmailsRead)
	if h, ok := s.ticker.Headline(); ok {
		snap.Headline = h
	}
	if s.ttt != nil {
		b := s.ttt.Board()
		snap.TicTacToe = string(b[:])
	}
	if s.decrypt != nil {
		g := s.decrypt.Grid()
		view := &DecryptorView{TimeLeft: s.decrypt.TimeLeft(), Solved: s.decrypt.Solved()}
		for _, row := range g {
			view.Rows = append(view.Rows, string(row[:]))
		}
		if c, ok := s.decrypt.Selected(); ok {
			view.Selected = &c
		}
		snap.Decryptor = view
	}
	if s.snake != nil {
		snap.Snake = &SnakeView{
			Body:      s.snake.Body(),
			Food:      s.snake.Food(),
			Fragments: s.snake.Fragments(),
			Keys:      s.snake.Keys(),
		}
	}
	return snap
}
