package session

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cheekyos/internal/content"
	"cheekyos/internal/effects"
	"cheekyos/internal/finale"
	"cheekyos/internal/minigame"
	"cheekyos/internal/output"
	"cheekyos/internal/puzzle"
)

type recorder struct {
	stages   []Stage
	attempts int
	fatal    []string
	finished []string
	reloads  int
}

func (r *recorder) StageEntered(s Stage)               { r.stages = append(r.stages, s) }
func (r *recorder) CommandAttempted(int, string, bool) { r.attempts++ }
func (r *recorder) Fatal(reason string)                { r.fatal = append(r.fatal, reason) }
func (r *recorder) Finished(outcome string)            { r.finished = append(r.finished, outcome) }

func newTestSession(t *testing.T) (*Session, *recorder) {
	t.Helper()
	return newSessionWithDelay(t, 0)
}

// newTypingSession types narration one rune per 60ms, so scripts overlap
// with timed effects the way they do in a live run.
func newTypingSession(t *testing.T) (*Session, *recorder) {
	t.Helper()
	return newSessionWithDelay(t, 60*time.Millisecond)
}

func newSessionWithDelay(t *testing.T, charDelay time.Duration) (*Session, *recorder) {
	t.Helper()
	pack, err := content.Default()
	require.NoError(t, err)
	rec := &recorder{}
	s := New(Config{
		Pack:      pack,
		Rand:      rand.New(rand.NewPCG(1, 2)),
		CharDelay: charDelay,
		Observer:  rec,
		OnReload:  func() { rec.reloads++ },
	})
	// Power fluctuations are random; tests that want one trigger it directly.
	s.power.Stop()
	t.Cleanup(s.Close)
	return s, rec
}

func jump(t *testing.T, s *Session, stage int, history []string, meme string) {
	t.Helper()
	require.NoError(t, s.Jump(stage, history, meme))
	s.power.Stop()
}

// advanceUntil steps the clock in 50ms slices until cond holds.
func advanceUntil(t *testing.T, s *Session, limit time.Duration, cond func() bool) {
	t.Helper()
	for elapsed := time.Duration(0); !cond(); elapsed += 50 * time.Millisecond {
		require.Less(t, elapsed, limit, "condition not reached")
		s.Advance(50 * time.Millisecond)
	}
}

func logged(s *Session, text string) func() bool {
	return func() bool { return strings.Contains(logText(s), text) }
}

func unlocked(s *Session) func() bool {
	return func() bool { return !s.Snapshot().InputLocked }
}

func tagOf(s *Session, prefix string) output.Tag {
	for _, e := range s.log.Entries() {
		if strings.HasPrefix(e.Text, prefix) {
			return e.Tag
		}
	}
	return ""
}

func logText(s *Session) string {
	var b strings.Builder
	for _, e := range s.log.Entries() {
		b.WriteString(e.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

var (
	historyTo5 = []string{puzzle.HandshakeToken, puzzle.LeetCalibrate, puzzle.DecimalCodes("PURGE"), "a b c", "VENT_PLASMA"}
	historyTo8 = append(append([]string(nil), historyTo5...), "AUTHORIZE_ADMIN_OVERRIDE", "set_terminal_anchors", "RUN_POWER_DIAGNOSTIC 62")
)

func TestBeginPlaysNobleChoice(t *testing.T) {
	s, _ := newTestSession(t)
	assert.False(t, s.Submit("1"), "input before the arrival notice is accepted must be ignored")

	require.True(t, s.Begin())
	assert.False(t, s.Begin())
	s.Advance(10 * time.Second)

	snap := s.Snapshot()
	assert.Equal(t, At(0), snap.Stage)
	assert.False(t, snap.InputLocked)
	assert.True(t, snap.IntroDone)
	assert.True(t, snap.WindowOpen(WindowTerminal))
	text := logText(s)
	assert.Contains(t, text, "[1] "+s.pack.NobleChoices[0].Text)
	assert.Contains(t, text, "Please select your noble purpose...")
}

func TestIntroFlowReachesStageOne(t *testing.T) {
	s, rec := newTestSession(t)
	require.True(t, s.Begin())
	s.Advance(10 * time.Second)

	require.True(t, s.Submit("99"))
	assert.Contains(t, logText(s), "That's not a valid choice. Try again. ಠ_ಠ")
	assert.False(t, s.Snapshot().InputLocked)

	require.True(t, s.Submit(" 1 "))
	assert.Equal(t, ChoicePending, s.Snapshot().Stage)
	assert.False(t, s.Submit("2"), "locked while the choice plays out")
	s.Advance(20 * time.Second)
	assert.Equal(t, YesNo, s.Snapshot().Stage)
	assert.Equal(t, s.pack.NobleChoices[0].Text, s.Snapshot().NobleChoice)

	require.True(t, s.Submit("y"))
	assert.Equal(t, MenuPrinting, s.Snapshot().Stage)
	s.Advance(10 * time.Second)
	assert.Equal(t, MenuSelection, s.Snapshot().Stage)
	assert.Contains(t, logText(s), "Ofc you do! (⌐■_■)")

	require.True(t, s.Submit("abc"))
	assert.Contains(t, logText(s), "That's not a valid choice. Try again. щ(ﾟДﾟщ)")

	require.True(t, s.Submit("1"))
	s.Advance(5 * time.Second)
	snap := s.Snapshot()
	assert.Equal(t, At(1), snap.Stage)
	assert.Equal(t, s.pack.CursedMenu[0].File, snap.SelectedMeme)
	assert.False(t, snap.InputLocked)
	assert.Contains(t, logText(s), "You know the one, the code: "+puzzle.HandshakeToken)
	require.NotEmpty(t, rec.stages)
	assert.Equal(t, At(1), rec.stages[len(rec.stages)-1])
}

func TestNoAnswerStillShowsMenu(t *testing.T) {
	s, _ := newTestSession(t)
	require.True(t, s.Begin())
	s.Advance(10 * time.Second)
	require.True(t, s.Submit("2"))
	s.Advance(20 * time.Second)
	require.True(t, s.Submit("nah"))
	s.Advance(10 * time.Second)
	assert.Contains(t, logText(s), "Too bad. I'm showing you anyway. (⌐■_■)")
	assert.Equal(t, MenuSelection, s.Snapshot().Stage)
}

func TestSkipGoesStraightToMenu(t *testing.T) {
	s, _ := newTestSession(t)
	require.True(t, s.Skip())
	snap := s.Snapshot()
	assert.Equal(t, FlashWhite, snap.Flash)
	assert.True(t, snap.InputLocked)

	s.Advance(2 * time.Second)
	snap = s.Snapshot()
	assert.Equal(t, MenuSelection, snap.Stage)
	assert.True(t, snap.IntroSkipped)
	assert.False(t, snap.InputLocked)
	assert.Equal(t, FlashNone, snap.Flash)
	assert.Contains(t, logText(s), "[32] "+s.pack.CursedMenu[31].File)
}

func TestFailStreakEscalatesGlitchThenIsFatal(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 1, nil, "doge.jpg")

	require.True(t, s.Submit("nope"))
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.FailStreak)
	assert.Equal(t, "shake", snap.Glitch)
	assert.Equal(t, 2, snap.GlitchDuration)
	assert.Contains(t, logText(s), "...ERROR. Command rejected. Try again.")
	assert.Equal(t, output.TagSystem, tagOf(s, "...ERROR. Command rejected."))
	assert.Contains(t, logText(s), "## Failure Count: 1/3 ##")

	require.True(t, s.Submit("still no"))
	snap = s.Snapshot()
	assert.Equal(t, "bars", snap.Glitch)
	assert.Equal(t, 3, snap.GlitchDuration)

	require.True(t, s.Submit("never"))
	snap = s.Snapshot()
	assert.True(t, snap.GameOver)
	assert.True(t, snap.InputLocked)
	assert.Equal(t, "shake", snap.Glitch)
	assert.Equal(t, 3, snap.GlitchDuration, "the reboot glitch keeps the last duration")
	assert.Contains(t, logText(s), "!!! SYSTEM OVERLOAD: TOO MANY ERRORS !!!")
	assert.Equal(t, []string{"fail_streak"}, rec.fatal)
	assert.Equal(t, 3, rec.attempts)
	assert.False(t, s.Submit(puzzle.HandshakeToken))

	s.Advance(DefaultReloadDelay - time.Millisecond)
	assert.Equal(t, 0, rec.reloads)
	s.Advance(time.Millisecond)
	assert.Equal(t, 1, rec.reloads)
}

func TestValidatorHintCountsAsFailure(t *testing.T) {
	s, _ := newTestSession(t)
	jump(t, s, 1, nil, "doge.jpg")
	require.True(t, s.Submit("INITIATE_HANDSHAKE"))
	assert.Contains(t, logText(s), "Eh? Why so formal? Needs the digital sign-off!")
	assert.Equal(t, 1, s.Snapshot().FailStreak)
}

func TestSuccessDecaysGlitchAndAdvances(t *testing.T) {
	s, _ := newTestSession(t)
	jump(t, s, 1, nil, "doge.jpg")
	require.True(t, s.Submit("wrong"))

	require.True(t, s.Submit("  "+puzzle.HandshakeToken+" "))
	snap := s.Snapshot()
	assert.Equal(t, At(2), snap.Stage)
	assert.Equal(t, 0, snap.FailStreak)
	assert.Equal(t, "shake", snap.Glitch)
	assert.Equal(t, 1, snap.GlitchDuration)
	assert.Equal(t, []string{puzzle.HandshakeToken}, snap.History)
	assert.Equal(t, output.TagSystem, tagOf(s, "...Fine. That worked."))
	assert.True(t, s.leet.Running())
	assert.True(t, s.popups.Running())
	assert.False(t, snap.InputLocked)

	require.True(t, s.Submit("C4L1BR4T3_SYST3M"))
	snap = s.Snapshot()
	assert.Equal(t, At(3), snap.Stage)
	assert.Empty(t, snap.Glitch)
	assert.False(t, s.leet.Running())
	assert.False(t, s.popups.Running())
	assert.Contains(t, logText(s), "## Keyboard mapping stabilized. ##")
}

func TestForbiddenWordIsFatal(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 5, historyTo5[:4], "doge.jpg")

	require.True(t, s.Submit(" scram "))
	assert.True(t, s.Snapshot().GameOver)
	assert.Equal(t, []string{"forbidden_word"}, rec.fatal)
	assert.Contains(t, logText(s), "You typed SCRAM... I was kidding!")
}

func TestPurgeTimeoutIsFatal(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 3, historyTo5[:2], "doge.jpg")
	require.True(t, s.ToggleWindow(WindowManual))
	jump(t, s, 4, historyTo5[:3], "doge.jpg")

	snap := s.Snapshot()
	assert.True(t, snap.ManualLocked)
	assert.False(t, snap.WindowOpen(WindowManual))
	assert.Contains(t, logText(s), "## MANUAL ACCESS REVOKED ##")
	assert.False(t, s.ToggleWindow(WindowManual))

	s.Advance(9 * time.Second)
	assert.Empty(t, rec.fatal)
	s.Advance(10 * time.Second)
	assert.Equal(t, []string{"purge_timeout"}, rec.fatal)
	assert.Contains(t, logText(s), "...TOO SLOW! (╯°□°）╯︵ ┻━┻")
}

func TestHistoryReplayStopsPurge(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 4, historyTo5[:3], "doge.jpg")
	assert.False(t, s.Submit("too early"))
	s.Advance(time.Second)

	require.True(t, s.Submit(strings.Join(historyTo5[:3], " ")))
	snap := s.Snapshot()
	assert.Equal(t, At(5), snap.Stage)
	assert.False(t, snap.ManualLocked)
	assert.Contains(t, logText(s), "## MANUAL ACCESS RESTORED ##")

	s.Advance(30 * time.Second)
	assert.Empty(t, rec.fatal)
	assert.True(t, s.ToggleWindow(WindowManual))
}

func TestPopupOverloadIsFatal(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 2, historyTo5[:1], "doge.jpg")
	s.Advance(2 * time.Minute)
	assert.Equal(t, []string{"popup_overload"}, rec.fatal)
	assert.Contains(t, logText(s), "!!! POP-UP OVERLOAD! SYSTEM CRITICAL !!!")
	assert.Empty(t, s.Snapshot().Popups)
}

func TestDriftLossRestartsStageSeven(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 7, historyTo8[:6], "doge.jpg")
	require.True(t, s.drift.Running())

	for i := 0; i < 100000 && s.drift.Running(); i++ {
		s.Advance(50 * time.Millisecond)
	}
	require.False(t, s.drift.Running())
	snap := s.Snapshot()
	assert.True(t, snap.InputLocked)
	assert.False(t, snap.GameOver)
	assert.Contains(t, logText(s), "!!! TERMINAL LOST - GRAVITY FAILURE !!!")

	s.Advance(2 * time.Second)
	snap = s.Snapshot()
	assert.Equal(t, At(7), snap.Stage)
	assert.False(t, snap.InputLocked)
	assert.True(t, s.drift.Running())
	assert.Equal(t, effects.DefaultDriftConfig().Anchor, snap.Terminal)
	assert.Empty(t, rec.fatal)

	require.True(t, s.Submit("SET_TERMINAL_ANCHORS"))
	assert.Equal(t, At(8), s.Snapshot().Stage)
	assert.False(t, s.drift.Running())
	assert.Equal(t, effects.DefaultDriftConfig().Anchor, s.Snapshot().Terminal)
}

func TestDriftLossDuringFailureHoldsInputUntilRestart(t *testing.T) {
	s, rec := newTypingSession(t)
	jump(t, s, 7, historyTo8[:6], "doge.jpg")
	advanceUntil(t, s, time.Minute, unlocked(s))
	require.True(t, s.drift.Running())

	require.True(t, s.Submit("ANCHORS_AWAY"))
	s.drift.Stop()
	s.driftLost()
	assert.True(t, s.Snapshot().InputLocked)

	// The failure script ends after the restart delay; its callback must not
	// hand input back while the restart is pending.
	advanceUntil(t, s, time.Minute, logged(s, "## Failure Count: 1/3 ##"))
	assert.True(t, s.Snapshot().InputLocked)
	assert.False(t, s.Submit("SET_TERMINAL_ANCHORS"))
	assert.Equal(t, At(7), s.Snapshot().Stage)

	advanceUntil(t, s, time.Minute, unlocked(s))
	assert.Equal(t, At(7), s.Snapshot().Stage)
	assert.True(t, s.drift.Running())

	require.True(t, s.Submit("SET_TERMINAL_ANCHORS"))
	advanceUntil(t, s, time.Minute, unlocked(s))
	assert.Equal(t, At(8), s.Snapshot().Stage)
	s.Advance(time.Minute)
	assert.Equal(t, At(8), s.Snapshot().Stage)
	assert.False(t, s.drift.Running())
	assert.Empty(t, rec.fatal)
}

func TestAnchoringCancelsPendingDriftRestart(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 7, historyTo8[:6], "doge.jpg")
	s.drift.Stop()
	s.driftLost()
	require.NotZero(t, s.driftRestart)

	// Nothing in play owns the lock, so only the restart hold is released here.
	s.release(holdDriftRestart)
	require.True(t, s.Submit("SET_TERMINAL_ANCHORS"))
	assert.Zero(t, s.driftRestart)
	s.Advance(time.Minute)
	assert.Equal(t, At(8), s.Snapshot().Stage)
	assert.False(t, s.drift.Running())
	assert.Empty(t, rec.fatal)
}

func TestPurgeExpiryDuringFailureRejectsLateReplay(t *testing.T) {
	s, rec := newTypingSession(t)
	jump(t, s, 4, historyTo5[:3], "doge.jpg")
	advanceUntil(t, s, time.Minute, unlocked(s))
	require.True(t, s.purge.Running())
	advanceUntil(t, s, time.Minute, logged(s, "...2..."))

	require.True(t, s.Submit("too slow"))
	advanceUntil(t, s, 5*time.Second, func() bool { return !s.purge.Running() })
	advanceUntil(t, s, 10*time.Second, logged(s, "## Failure Count: 1/3 ##"))
	require.Empty(t, rec.fatal)
	assert.True(t, s.Snapshot().InputLocked)
	assert.False(t, s.Submit(strings.Join(historyTo5[:3], " ")))

	advanceUntil(t, s, 30*time.Second, func() bool { return len(rec.fatal) > 0 })
	assert.Equal(t, []string{"purge_timeout"}, rec.fatal)
	assert.Equal(t, At(4), s.Snapshot().Stage)
	assert.NotContains(t, logText(s), "## MANUAL ACCESS RESTORED ##")
}

func TestPowerRestoreKeepsPurgeExpiryLock(t *testing.T) {
	s, rec := newTypingSession(t)
	jump(t, s, 4, historyTo5[:3], "doge.jpg")
	advanceUntil(t, s, time.Minute, unlocked(s))
	advanceUntil(t, s, time.Minute, logged(s, "...2..."))

	s.power.Start()
	require.True(t, s.power.Trigger())
	advanceUntil(t, s, 5*time.Second, func() bool { return !s.purge.Running() })
	advanceUntil(t, s, 10*time.Second, func() bool { return !s.power.Flickering() })
	require.Empty(t, rec.fatal)

	assert.True(t, s.Snapshot().InputLocked)
	assert.NotContains(t, logText(s), "...Power stable.")
	assert.False(t, s.Submit(strings.Join(historyTo5[:3], " ")))
}

func TestChecksumStageOpensDecryptor(t *testing.T) {
	s, _ := newTestSession(t)
	jump(t, s, 8, historyTo8[:7], "doge.jpg")

	// len(`\u{1F91D}`) + len("VENT_PLASMA") + 42
	require.True(t, s.Submit("run_power_diagnostic 62"))
	assert.Equal(t, At(9), s.Snapshot().Stage)
	s.Advance(time.Second)
	snap := s.Snapshot()
	assert.True(t, snap.WindowOpen(WindowDecryptor))
	assert.True(t, snap.InputLocked)
	require.NotNil(t, snap.Decryptor)
	assert.Len(t, snap.Decryptor.Rows, minigame.GridSize)
}

func TestTicTacToeForfeitResumesStageSix(t *testing.T) {
	s, _ := newTestSession(t)
	jump(t, s, 6, historyTo5, "doge.jpg")
	s.Advance(2 * time.Second)

	snap := s.Snapshot()
	require.True(t, snap.WindowOpen(WindowTicTacToe))
	assert.True(t, snap.InputLocked)
	assert.True(t, s.TicTacToeMove(4))
	assert.False(t, s.TicTacToeMove(4))

	require.True(t, s.CloseWindow(WindowTicTacToe))
	assert.Contains(t, logText(s), "Wow... that's just sad. Let's pretend this didn't happen.")
	s.Advance(time.Second)
	snap = s.Snapshot()
	assert.False(t, snap.WindowOpen(WindowTicTacToe))
	assert.False(t, snap.InputLocked)
	assert.True(t, s.popups.Running())

	require.True(t, s.Submit("AUTHORIZE_ADMIN_OVERRIDE"))
	assert.Equal(t, At(7), s.Snapshot().Stage)
	assert.False(t, s.popups.Running())
}

func TestDecryptorFailureRestartsStageNine(t *testing.T) {
	s, _ := newTestSession(t)
	jump(t, s, 9, historyTo8, "doge.jpg")
	s.Advance(time.Second)
	require.True(t, s.Snapshot().WindowOpen(WindowDecryptor))
	assert.False(t, s.CloseWindow(WindowDecryptor))

	s.Advance(minigame.DecryptSeconds * time.Second)
	assert.False(t, s.Snapshot().WindowOpen(WindowDecryptor))
	assert.Contains(t, logText(s), "...System breach detected. Meme integrity lost.")

	s.Advance(2 * time.Second)
	snap := s.Snapshot()
	assert.Equal(t, At(9), snap.Stage)
	assert.True(t, snap.WindowOpen(WindowDecryptor))
	assert.Equal(t, minigame.DecryptSeconds, snap.Decryptor.TimeLeft)
}

func solveDecryptor(t *testing.T, s *Session) {
	t.Helper()
	const n = minigame.GridSize
	for k := 0; k < n*n; k++ {
		r, c := k/n, k%n
		g := s.decrypt.Grid()
		want := minigame.TargetRow[c]
		if g[r][c] == want {
			continue
		}
		swapped := false
		for j := k + 1; j < n*n; j++ {
			rr, cc := j/n, j%n
			if g[rr][cc] == want && g[rr][cc] != minigame.TargetRow[cc] {
				require.True(t, s.DecryptSelect(r, c))
				require.True(t, s.DecryptSelect(rr, cc))
				swapped = true
				break
			}
		}
		require.True(t, swapped, "no tile to swap into %d,%d", r, c)
	}
}

func TestDecryptAndLaunchPayload(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 9, historyTo8, "doge.jpg")
	s.Advance(time.Second)

	solveDecryptor(t, s)
	assert.True(t, s.Snapshot().Decryptor.Solved)
	s.Advance(2 * time.Second)
	snap := s.Snapshot()
	assert.False(t, snap.WindowOpen(WindowDecryptor))
	assert.False(t, snap.InputLocked)
	assert.Contains(t, logText(s), "Attach the payload.")

	require.True(t, s.Submit("LAUNCH_PAYLOAD pepe.png"))
	assert.Equal(t, 1, s.Snapshot().FailStreak)
	require.True(t, s.Submit("LAUNCH_PAYLOAD doge.jpg"))
	assert.Equal(t, At(10), s.Snapshot().Stage)
	s.Advance(2 * time.Second)
	assert.Equal(t, finale.Active, s.Snapshot().Finale.State)
	assert.Equal(t, At(10), rec.stages[len(rec.stages)-1])
}

func TestFinaleWinLeadsToInboxAndCRT(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 10, append(historyTo8, "LAUNCH_PAYLOAD doge.jpg"), "doge.jpg")
	s.Advance(2 * time.Second)

	snap := s.Snapshot()
	require.Equal(t, finale.Active, snap.Finale.State)
	assert.False(t, s.ToggleWindow(WindowLore), "desktop is frozen during the finale")
	require.Len(t, snap.Finale.Targets, 1)
	tg := snap.Finale.Targets[0]
	s.FinaleClick(tg.X+1, tg.Y+1)
	assert.Equal(t, finale.Won, s.Snapshot().Finale.State)

	s.Advance(2 * time.Second)
	assert.NotEmpty(t, s.Snapshot().VictoryFrame)
	s.Advance(7 * time.Second)
	snap = s.Snapshot()
	assert.Empty(t, snap.VictoryFrame)
	assert.True(t, snap.WindowOpen(WindowSnake))
	assert.Equal(t, []string{"won"}, rec.finished)
	assert.Contains(t, logText(s), "Successfully archived: doge.jpg")

	// Heading right from the centre, the snake hits the wall well within 10s.
	s.Advance(10 * time.Second)
	snap = s.Snapshot()
	require.True(t, snap.PasswordRevealed)
	assert.False(t, snap.WindowOpen(WindowSnake))
	assert.True(t, snap.WindowOpen(WindowInbox))
	assert.Contains(t, logText(s), "[NOTICE] SYSTEM FILE UNREDACTED")
	require.GreaterOrEqual(t, snap.EmailsAvailable, 1)

	assert.False(t, s.OpenEmail(0), "inbox is still locked")
	assert.False(t, s.AuthenticateInbox("hunter2"))
	assert.Equal(t, InboxAuthError, s.Snapshot().InboxError)
	require.True(t, s.AuthenticateInbox(s.pack.InboxPassword))
	assert.Empty(t, s.Snapshot().InboxError)

	for i := 0; i < snap.EmailsAvailable; i++ {
		require.True(t, s.OpenEmail(i))
	}
	assert.Equal(t, CRTNone, s.Snapshot().CRT)
	s.Advance(2 * time.Second)
	assert.Equal(t, CRTAlert, s.Snapshot().CRT)
	assert.True(t, s.Snapshot().InputLocked)
	s.Advance(6 * time.Second)
	assert.Equal(t, CRTCollapse, s.Snapshot().CRT)
	assert.Equal(t, FlashWhite, s.Snapshot().Flash)
	s.Advance(4 * time.Second)
	assert.Equal(t, CRTOff, s.Snapshot().CRT)

	s.setCRT(CRTAlert)
	require.True(t, s.OpenEmail(0))
	s.Advance(time.Minute)
	assert.Equal(t, CRTOff, s.Snapshot().CRT)
}

func TestFinaleLossIsFatal(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 10, append(historyTo8, "LAUNCH_PAYLOAD doge.jpg"), "doge.jpg")
	s.Advance(2 * time.Second)

	for i := 0; i < 4; i++ {
		s.FinaleClick(-500, -500)
	}
	snap := s.Snapshot()
	assert.Equal(t, finale.Lost, snap.Finale.State)
	assert.True(t, snap.BugSwarm)
	assert.True(t, snap.GameOver)
	assert.Equal(t, []string{"finale_lost"}, rec.fatal)
	assert.Contains(t, logText(s), "MISS 3!")
}

func TestFatalTriggersOnlyOnce(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 1, nil, "doge.jpg")
	s.fatal("fail_streak")
	s.fatal("popup_overload")
	s.Advance(time.Minute)
	assert.Equal(t, []string{"fail_streak"}, rec.fatal)
	assert.Equal(t, 1, rec.reloads)
	assert.Error(t, s.Jump(2, nil, ""))
}

func TestPowerFlickerLocksThenRestores(t *testing.T) {
	s, _ := newTestSession(t)
	jump(t, s, 3, historyTo5[:2], "doge.jpg")
	s.power.Start()
	require.True(t, s.flickerEligible())
	require.True(t, s.power.Trigger())
	assert.True(t, s.Snapshot().InputLocked)
	assert.False(t, s.Submit(puzzle.DecimalCodes("PURGE")))

	s.Advance(7 * time.Second)
	assert.False(t, s.Snapshot().InputLocked)
	assert.Contains(t, logText(s), "...Power stable.")
}

func TestWindowRules(t *testing.T) {
	s, _ := newTestSession(t)
	assert.False(t, s.ToggleWindow(WindowLore), "desktop waits for the arrival notice")

	jump(t, s, 3, historyTo5[:2], "doge.jpg")
	assert.True(t, s.ToggleWindow(WindowLore))
	assert.True(t, s.Snapshot().WindowOpen(WindowLore))
	assert.True(t, s.ToggleWindow(WindowLore))
	assert.False(t, s.Snapshot().WindowOpen(WindowLore))
	assert.False(t, s.ToggleWindow(WindowSnake))
	assert.False(t, s.CloseWindow(WindowNetFeed))
}

func TestJumpRange(t *testing.T) {
	s, _ := newTestSession(t)
	assert.Error(t, s.Jump(0, nil, ""))
	assert.Error(t, s.Jump(11, nil, ""))
}

func TestSnapshotIsDetached(t *testing.T) {
	s, _ := newTestSession(t)
	jump(t, s, 3, historyTo5[:2], "doge.jpg")
	snap := s.Snapshot()
	snap.History[0] = "tampered"
	snap.Log[0].Text = "tampered"
	assert.Equal(t, puzzle.HandshakeToken, s.Snapshot().History[0])
	assert.NotEqual(t, "tampered", s.Snapshot().Log[0].Text)
}

func TestCloseSilencesSession(t *testing.T) {
	s, rec := newTestSession(t)
	jump(t, s, 2, historyTo5[:1], "doge.jpg")
	s.Close()
	assert.False(t, s.Alive())
	assert.False(t, s.Submit(puzzle.LeetCalibrate))
	s.Advance(5 * time.Minute)
	assert.Empty(t, rec.fatal)
	assert.Equal(t, 0, s.loop.Pending())
}
