package ui

import (
	"time"

	"cheekyos/internal/minigame"
	"cheekyos/internal/session"
)

// Controller is the game side of the shell. Every method is called on the
// bubbletea update goroutine, one at a time.
type Controller interface {
	// OnFrame advances the running session to wall-clock now and returns the
	// state to render.
	OnFrame(now time.Time) session.Snapshot
	Snapshot() session.Snapshot
	OnBegin()
	OnSkip()
	OnSubmit(line string) bool
	OnToggleWindow(w session.Window)
	OnCloseWindow(w session.Window)
	// OnPlayAreaClick and OnPlayAreaHover take coordinates on the virtual
	// CRT glass (effects.PlayArea). A click reports whether the game used it.
	OnPlayAreaClick(x, y float64) bool
	OnPlayAreaHover(x, y float64)
	OnTicTacToeMove(i int)
	OnDecryptSelect(row, col int)
	OnSnakeTurn(d minigame.Dir)
	OnAuthenticate(password string)
	OnOpenEmail(i int)
	OnStyleChange(variant string)
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetDocs(docs Docs)
	SetStyleVariant(variant string)
	FlashStatus(msg string)
}

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutWide:
		return "wide"
	case LayoutMedium:
		return "medium"
	default:
		return "too_small"
	}
}

// Docs is the static window content of the loaded pack.
type Docs struct {
	PackName string
	Manual   string
	NetFeed  []string
	// StatusLog renders the status log with the password redacted or revealed.
	StatusLog func(revealed bool) string
	Lore      func(cycle int) string
	Emails    []Email
}

type Email struct {
	Sender  string
	Subject string
	// Body fills per-session placeholders such as the fake clock.
	Body func(fakeTime string) string
}
