package session

import (
	"fmt"

	"cheekyos/internal/puzzle"
)

type Kind int

const (
	Numbered Kind = iota
	AwaitingYesNo
	AwaitingMenuSelection
	ProcessingMenu
	ProcessingChoice
)

// Stage is where the session is: a numbered stage (0 is the noble choice,
// 1..9 the protocol, 10 the finale and beyond) or one of the menu sub-flows.
type Stage struct {
	Kind Kind
	N    int
}

func At(n int) Stage { return Stage{Kind: Numbered, N: n} }

var (
	YesNo         = Stage{Kind: AwaitingYesNo}
	MenuSelection = Stage{Kind: AwaitingMenuSelection}
	MenuPrinting  = Stage{Kind: ProcessingMenu}
	ChoicePending = Stage{Kind: ProcessingChoice}
)

// Protocol reports the protocol stage number when the session is in 1..9.
func (s Stage) Protocol() (int, bool) {
	if s.Kind != Numbered || s.N < puzzle.FirstStage || s.N > puzzle.LastStage {
		return 0, false
	}
	return s.N, true
}

func (s Stage) String() string {
	switch s.Kind {
	case AwaitingYesNo:
		return "awaiting_yes_no"
	case AwaitingMenuSelection:
		return "awaiting_menu_selection"
	case ProcessingMenu:
		return "processing_menu"
	case ProcessingChoice:
		return "processing_choice"
	default:
		return fmt.Sprintf("%d", s.N)
	}
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
