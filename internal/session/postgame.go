package session

import (
	"fmt"
	"time"

	"cheekyos/internal/minigame"
	"cheekyos/internal/narrate"
	"cheekyos/internal/output"
)

func (s *Session) openTicTacToe() {
	if !s.alive || s.st.GameOver {
		return
	}
	s.ttt = minigame.NewTicTacToe(s.rand, s.ticTacToeWon, s.ticTacToeLost)
	s.openWindow(WindowTicTacToe)
}

// TicTacToeMove plays X at cell i of the open board.
func (s *Session) TicTacToeMove(i int) bool {
	if !s.alive || s.st.GameOver || s.ttt == nil || !s.st.Windows[WindowTicTacToe] {
		return false
	}
	return s.ttt.Move(i)
}

func (s *Session) ticTacToeWon()  { s.ticTacToeOver("...Fine, you win. Now where were we?") }
func (s *Session) ticTacToeLost() { s.ticTacToeOver("Wow... that's just sad. Let's pretend this didn't happen.") }

func (s *Session) ticTacToeOver(verdict string) {
	if !s.alive || s.st.GameOver || !s.st.Windows[WindowTicTacToe] {
		return
	}
	s.closeWindow(WindowTicTacToe)
	s.play([]narrate.Step{
		ai(verdict),
		narrate.Pause(500 * time.Millisecond),
		ai(backspaceLine),
		narrate.Do(s.popups.Start),
	}, s.unlock)
}

func (s *Session) openDecryptor() {
	if !s.alive || s.st.GameOver {
		return
	}
	s.decrypt = minigame.NewDecryptor(s.env(), minigame.DecryptHooks{
		OnComplete: s.decryptComplete,
		OnFailure:  s.decryptFailed,
	})
	s.openWindow(WindowDecryptor)
	s.decrypt.Start()
}

func (s *Session) DecryptSelect(row, col int) bool {
	if !s.alive || s.st.GameOver || s.decrypt == nil || !s.st.Windows[WindowDecryptor] {
		return false
	}
	return s.decrypt.Select(row, col)
}

func (s *Session) decryptComplete() {
	if !s.alive || s.st.GameOver {
		return
	}
	s.closeWindow(WindowDecryptor)
	s.play([]narrate.Step{
		ai("...Nice. The Meme Matrix grows stronger."),
		narrate.Pause(500 * time.Millisecond),
		ai("Attach the payload."),
	}, s.unlock)
}

func (s *Session) decryptFailed() {
	if !s.alive || s.st.GameOver {
		return
	}
	s.closeWindow(WindowDecryptor)
	s.play([]narrate.Step{
		ai("...System breach detected. Meme integrity lost."),
		narrate.Pause(time.Second),
		ai("Re-initiating decryption protocol..."),
		narrate.Pause(500 * time.Millisecond),
	}, func() {
		s.st.Stage = At(9)
		s.startStage(9)
	})
}

func (s *Session) startFinale() {
	if !s.alive || s.st.GameOver {
		return
	}
	s.lock()
	s.observer.StageEntered(s.st.Stage)
	s.play([]narrate.Step{
		ai("...Payload signature accepted. Launching..."),
		narrate.Pause(time.Second),
		ai("W-wait... what's that?! S̴Y̷S̸T̴E̷M̷ ̴C̴O̴R̶R̷U̴P̴T̴I̶O̴N̸!̷ GET IT!"),
	}, s.finale.Start)
}

func (s *Session) finaleWon() {
	if !s.alive || s.st.GameOver {
		return
	}
	s.play([]narrate.Step{
		ai("...Bug contained. System stabilizing..."),
		narrate.Pause(time.Second),
	}, s.victory)
}

func (s *Session) finaleLost() {
	if !s.alive || s.st.GameOver {
		return
	}
	s.st.BugSwarm = true
	s.play([]narrate.Step{
		sys("...TOO MANY BUGS. ARCHIVE CORRUPTED. SIGNAL LOST..."),
	}, func() { s.fatal("finale_lost") })
}

const (
	catFrameEvery = 200 * time.Millisecond
	catDuration   = 5 * time.Second
)

func (s *Session) victory() {
	s.play([]narrate.Step{
		sys("...SYSTEM STABLE. ARCHIVE SECURED."),
		narrate.Pause(500 * time.Millisecond),
		narrate.Do(s.startCat),
		narrate.Pause(catDuration),
		narrate.Do(s.stopCat),
		sys("--- ARCHIVE COMPLETE ---"),
		sys("Successfully archived: " + s.st.SelectedMeme),
		sys("You 'won'. Congratulations? <(￣︶￣)>"),
		narrate.Pause(time.Second),
		ai("Here's my treat! One last little game for me, please? <3"),
		narrate.Pause(1500 * time.Millisecond),
	}, func() {
		s.observer.Finished("won")
		s.openSnake()
	})
}

func (s *Session) startCat() {
	frames := s.pack.CatFrames
	if len(frames) == 0 {
		return
	}
	i := 0
	s.st.VictoryFrame = frames[0]
	s.catTimer = s.loop.Every(catFrameEvery, func() {
		i = (i + 1) % len(frames)
		s.st.VictoryFrame = frames[i]
	})
}

func (s *Session) stopCat() {
	s.loop.Cancel(s.catTimer)
	s.catTimer = 0
	s.st.VictoryFrame = ""
}

func (s *Session) openSnake() {
	if !s.alive || s.st.GameOver {
		return
	}
	s.snake = minigame.NewSnake(s.env(), s.snakeOver)
	s.openWindow(WindowSnake)
	s.snake.Start()
}

func (s *Session) SnakeTurn(d minigame.Dir) bool {
	if !s.alive || s.snake == nil || !s.st.Windows[WindowSnake] {
		return false
	}
	return s.snake.Turn(d)
}

func (s *Session) snakeOver(fragments, keys int) {
	if !s.alive {
		return
	}
	s.closeWindow(WindowSnake)
	s.st.SnakeFragments = fragments
	s.st.SnakeKeys = keys
	s.play([]narrate.Step{
		sys("...Snake.exe terminated."),
		sys(fmt.Sprintf("Meme fragments recovered: %d", fragments)),
		sys(fmt.Sprintf("Decryption keys secured: %d", keys)),
		narrate.Do(func() { s.flash(FlashRed, 300*time.Millisecond) }),
		narrate.Pause(100 * time.Millisecond),
		narrate.Line("[NOTICE] SYSTEM FILE UNREDACTED", output.TagSystem),
		narrate.Line("Reason: UNKNOWN", output.TagSystem),
		ai("Oh. You survived the meme hunt."),
		ai("Fine. Have your precious password. It was redacted for a reason."),
	}, func() {
		s.st.PasswordRevealed = true
		s.openWindow(WindowInbox)
	})
}

// emailsAvailable is how many emails the inbox lists: none before the
// password is revealed, then one per recovered fragment, at least one.
func (s *Session) emailsAvailable() int {
	if !s.st.PasswordRevealed {
		return 0
	}
	return min(max(s.st.SnakeFragments, 1), len(s.pack.Emails))
}

// AuthenticateInbox checks the inbox password. A wrong password leaves the
// inbox locked and sets InboxError.
func (s *Session) AuthenticateInbox(password string) bool {
	if !s.alive || !s.st.PasswordRevealed || s.st.InboxUnlocked {
		return false
	}
	if password != s.pack.InboxPassword {
		s.st.InboxError = InboxAuthError
		return false
	}
	s.st.InboxError = ""
	s.st.InboxUnlocked = true
	return true
}

// OpenEmail marks email i read. Reading the last available email starts the
// CRT shutdown once.
func (s *Session) OpenEmail(i int) bool {
	if !s.alive || !s.st.InboxUnlocked || i < 0 || i >= s.emailsAvailable() {
		return false
	}
	s.st.EmailsRead[i] = true
	s.st.SelectedEmail = i
	if len(s.st.EmailsRead) >= s.emailsAvailable() {
		s.startCRT()
	}
	return true
}

func (s *Session) startCRT() {
	if s.crtStarted {
		return
	}
	s.crtStarted = true
	s.loop.After(2*time.Second, func() {
		s.setCRT(CRTAlert)
		s.lock()
		s.loop.After(6*time.Second, func() {
			if s.st.CRT != CRTAlert {
				return
			}
			s.flash(FlashWhite, 300*time.Millisecond)
			s.setCRT(CRTCollapse)
			s.loop.After(4*time.Second, func() { s.setCRT(CRTOff) })
		})
	})
}

// setCRT only ever moves the CRT state forward.
func (s *Session) setCRT(c CRT) {
	if !s.alive || c <= s.st.CRT {
		return
	}
	s.st.CRT = c
}
