// Package devtools holds the dev scenarios: named jumps into the middle of a
// run, used by --scenario and the dev HTTP endpoint.
package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cheekyos/internal/puzzle"
)

// DefaultMeme is staged for scenarios that skip the cursed menu.
const DefaultMeme = "doge.jpg"

type Scenario struct {
	Name string
	// Stage is 0 for a fresh boot, 1..9 for a protocol stage and 10 for the
	// finale. Menu scenarios leave it at 0 and set Skip.
	Stage   int
	Skip    bool
	History []string
	Meme    string
}

type Manager struct {
	scenarios map[string]Scenario
}

func NewManager() *Manager {
	m := &Manager{scenarios: map[string]Scenario{}}
	m.add(Scenario{Name: "boot"})
	m.add(Scenario{Name: "menu", Skip: true})
	history := SolutionHistory(DefaultMeme)
	for stage := puzzle.FirstStage; stage <= puzzle.LastStage+1; stage++ {
		name := fmt.Sprintf("stage_%d", stage)
		if stage > puzzle.LastStage {
			name = "finale"
		}
		m.add(Scenario{
			Name:    name,
			Stage:   stage,
			History: append([]string(nil), history[:stage-1]...),
			Meme:    DefaultMeme,
		})
	}
	return m
}

func (m *Manager) add(s Scenario) { m.scenarios[s.Name] = s }

// Resolve looks a scenario up by name. Aliases: "playing" is stage 1,
// "purge" stage 4, "tictactoe" stage 6, "drift" stage 7, "decryptor" stage 9.
func (m *Manager) Resolve(name string) (Scenario, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "playing", "playable":
		name = "stage_1"
	case "purge":
		name = "stage_4"
	case "tictactoe":
		name = "stage_6"
	case "drift":
		name = "stage_7"
	case "decryptor":
		name = "stage_9"
	}
	s, ok := m.scenarios[name]
	if !ok {
		return Scenario{}, false
	}
	s.History = append([]string(nil), s.History...)
	return s, true
}

func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.scenarios))
	for n := range m.scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SolutionHistory is the accepted command list of a flawless run with meme
// staged: entry i is what stage i+1 accepts.
func SolutionHistory(meme string) []string {
	h := []string{
		puzzle.HandshakeToken,
		puzzle.LeetCalibrate,
		puzzle.DecimalCodes(puzzle.ProtocolSteps[2]),
	}
	h = append(h, strings.Join(h, " "))
	h = append(h, puzzle.ProtocolSteps[4], puzzle.ProtocolSteps[5], puzzle.AnchorCommand)
	sum, _ := puzzle.Checksum(h)
	h = append(h, fmt.Sprintf("%s %d", puzzle.ProtocolSteps[7], sum))
	return append(h, puzzle.ProtocolSteps[8]+" "+meme)
}

// SetState records the latest dev state for external harnesses polling the
// cache directory.
func (m *Manager) SetState(ctx context.Context, cacheDir string, state string, rendered bool) error {
	_ = ctx
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cacheDir = filepath.Join(home, ".cache", "cheekyos")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	payload := map[string]any{
		"state":    strings.TrimSpace(state),
		"rendered": rendered,
	}
	b, _ := json.Marshal(payload)
	return os.WriteFile(filepath.Join(cacheDir, "dev_state.json"), b, 0o644)
}
