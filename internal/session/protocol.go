package session

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"cheekyos/internal/narrate"
	"cheekyos/internal/output"
	"cheekyos/internal/puzzle"
)

func (s *Session) protocol(n int, raw string) {
	if n == 5 && strings.EqualFold(strings.TrimSpace(raw), puzzle.ForbiddenWord) {
		s.observer.CommandAttempted(n, raw, false)
		s.play([]narrate.Step{
			ai("You typed SCRAM... I was kidding!"),
			sys("...FATAL ERROR. You followed the AI's deceptive instruction."),
			ai("YOU FAILED. SYSTEM BRICKED. (╯°□°）╯︵ ┻━┻"),
		}, func() { s.fatal("forbidden_word") })
		return
	}

	ref, _ := puzzle.Reference(n)
	res := s.validator.Validate(n, raw, ref, puzzle.Snapshot{
		History:      slices.Clone(s.st.History),
		SelectedMeme: s.st.SelectedMeme,
	})
	s.observer.CommandAttempted(n, raw, res.Passed)
	if res.Passed {
		s.succeed(n, raw)
		return
	}
	s.fail(res.Message)
}

func (s *Session) succeed(n int, raw string) {
	var steps []narrate.Step
	switch n {
	case 2:
		s.leet.Stop()
		s.popups.Stop()
	case 4:
		s.purge.Stop()
		s.st.ManualLocked = false
		steps = append(steps,
			narrate.Line("## MANUAL ACCESS RESTORED ##", output.TagSystem),
			sys("...Log integrity verified. Manual access restored. Barely."))
	case 5:
		steps = append(steps, sys("...Plasma vented. Core temperature stabilizing."))
	case 6:
		s.popups.Stop()
	case 7:
		s.drift.Stop()
		s.drift.Anchor()
		s.loop.Cancel(s.driftRestart)
		s.driftRestart = 0
		s.release(holdDriftRestart)
		steps = append(steps, sys("...Terminal anchors engaged. Drift stabilized."))
	}
	if n != 4 && n != 5 && n != 7 && n != puzzle.LastStage {
		steps = append(steps, sys("...Fine. That worked. <(￣︶￣)>"))
	}

	s.play(steps, func() {
		s.decayGlitch()
		s.st.FailStreak = 0
		s.st.History = append(s.st.History, strings.TrimSpace(raw))
		s.st.Stage = At(n + 1)
		if n == puzzle.LastStage {
			s.startFinale()
			return
		}
		s.startStage(n + 1)
	})
}

func (s *Session) fail(msg string) {
	if msg == "" {
		msg = "...ERROR. Command rejected. Try again. " + s.emoticon()
	}
	s.play([]narrate.Step{sys(msg)}, func() {
		s.st.FailStreak++
		s.log.Append(fmt.Sprintf("## Failure Count: %d/%d ##", s.st.FailStreak, MaxFailStreak), output.TagSystem)
		if s.st.FailStreak >= MaxFailStreak {
			s.play([]narrate.Step{
				sys("!!! SYSTEM OVERLOAD: TOO MANY ERRORS !!!"),
				ai("Critical cascade failure detected. Memory integrity compromised."),
				ai("Rebooting primary core..."),
			}, func() {
				s.st.Glitch = GlitchOrder[0]
				s.fatal("fail_streak")
			})
			return
		}
		s.escalateGlitch()
		s.unlock()
	})
}

func (s *Session) escalateGlitch() {
	if s.st.Glitch == "" {
		s.st.Glitch, s.st.GlitchDuration = GlitchOrder[0], 2
		return
	}
	i := slices.Index(GlitchOrder, s.st.Glitch)
	s.st.Glitch = GlitchOrder[min(i+1, len(GlitchOrder)-1)]
	s.st.GlitchDuration = 3
}

func (s *Session) decayGlitch() {
	if s.st.Glitch == "" {
		return
	}
	s.st.GlitchDuration--
	if s.st.GlitchDuration <= 0 {
		s.st.Glitch, s.st.GlitchDuration = "", 0
	}
}

var stageLines = map[int][]string{
	1: {
		"Okay, first command is in the manual. Let's GoooOoo!",
		"Initiating official handshake protocol... Needs the digital sign-off.",
		"You know the one, the code: " + puzzle.HandshakeToken,
	},
	2: {"Keyboard mapping unstable! 4=A, 3=E, 1=I, 0=O... *sometimes*. Command is in the manual."},
	3: {"Parser only accepts ASCII decimal. You have the table, right?"},
	5: {"Core temperature critical! You MUST vent the plasma. Command is in the manual."},
	7: {"Anti-grav failing! Terminal drifting faster and faster! Anchor it before it's gone!"},
	8: {
		"Okay, run the `RUN_POWER_DIAGNOSTIC`. System needs a validation checksum.",
		"Calculate it: Sum the character lengths of your successful inputs for protocol steps 1 and 5.",
		"Then, find the 'Kernel Panic Code' in the latest `system_status.log` on the desktop and add it to your sum.",
		"Append the final total after the command, separated by a space.",
	},
}

func typed(lines []string) []narrate.Step {
	steps := make([]narrate.Step, 0, len(lines))
	for _, l := range lines {
		steps = append(steps, ai(l))
	}
	return steps
}

// startStage runs the entry routine for protocol stage n. Input stays locked
// until the routine hands control back to the player.
func (s *Session) startStage(n int) {
	if !s.alive || s.st.GameOver {
		return
	}
	s.lock()
	s.observer.StageEntered(s.st.Stage)

	switch n {
	case 1, 3, 5, 8:
		s.play(typed(stageLines[n]), s.unlock)
	case 2:
		s.play(typed(stageLines[n]), func() {
			s.leet.Start()
			s.popups.Start()
			s.unlock()
		})
	case 4:
		s.play([]narrate.Step{
			ai("ALERT! System instability! Log buffer purged for safety."),
			narrate.Clear(),
			narrate.Do(s.lockManual),
			narrate.Pause(500 * time.Millisecond),
			ai("Re-verify protocol integrity IMMEDIATELY."),
			ai("Enter ALL previous commands you've successfully executed, space-separated. HURRY UP!"),
		}, func() {
			s.purge.Start()
			s.unlock()
		})
	case 6:
		if !s.st.TicTacToeTriggered {
			s.st.TicTacToeTriggered = true
			s.play([]narrate.Step{
				ai("...System resources are being... re-allocated. Stand by."),
				narrate.Pause(1500 * time.Millisecond),
			}, s.openTicTacToe)
			return
		}
		s.play([]narrate.Step{ai(backspaceLine)}, func() {
			s.popups.Start()
			s.unlock()
		})
	case 7:
		s.play(typed(stageLines[n]), func() {
			s.drift.Start()
			s.unlock()
		})
	case 9:
		s.play([]narrate.Step{
			ai("Hold up, Runner. We’ve got corrupted meme packets."),
			narrate.Pause(500 * time.Millisecond),
			ai("Decrypt it, fast, before it infects the Archive."),
		}, s.openDecryptor)
	}
}

const backspaceLine = "Backspace is fried. .  . Type it *perfectly*."

func (s *Session) lockManual() {
	s.st.ManualLocked = true
	s.closeWindow(WindowManual)
	s.log.Append("## MANUAL ACCESS REVOKED ##", output.TagSystem)
}

// driftLost is the drift soft-fail: the terminal floated away, so stage 7
// restarts after a short pause instead of ending the session. The restart
// holds input until stage 7 is typed out again.
func (s *Session) driftLost() {
	if !s.alive || s.st.GameOver {
		return
	}
	s.acquire(holdDriftRestart)
	s.log.Append("!!! TERMINAL LOST - GRAVITY FAILURE !!!", output.TagSystem)
	s.log.Append("Restarting protocol sequence...", output.TagSystem)
	s.loop.Cancel(s.driftRestart)
	s.driftRestart = s.loop.After(driftRestartDelay, s.restartDrift)
}

const (
	driftRestartDelay = 2 * time.Second
	driftRestartRetry = 100 * time.Millisecond
)

// restartDrift waits out any narration still owning the input lock so its
// callback cannot race the stage reset.
func (s *Session) restartDrift() {
	s.driftRestart = 0
	if !s.alive || s.st.GameOver {
		return
	}
	if s.busy {
		s.driftRestart = s.loop.After(driftRestartRetry, s.restartDrift)
		return
	}
	s.release(holdDriftRestart)
	s.st.Stage = At(7)
	s.drift.Anchor()
	s.startStage(7)
}
