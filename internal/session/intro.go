package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cheekyos/internal/narrate"
	"cheekyos/internal/output"
)

const listSpacing = 25 * time.Millisecond

// Begin accepts the arrival notice and plays the boot sequence.
func (s *Session) Begin() bool {
	if !s.alive || !s.st.ArrivalNotice {
		return false
	}
	s.st.ArrivalNotice = false
	s.st.IntroDone = true
	s.openWindow(WindowTerminal)

	steps := []narrate.Step{
		narrate.Pause(500 * time.Millisecond),
		ai("CheekyOS v6.66 booting..."),
		narrate.Pause(500 * time.Millisecond),
		ai("Thank you for volunteering to safekeep a fragment of human knowledge."),
		ai("Control over the Genesis Archive will be completely lost in T-minus 20 hours."),
		ai("\nPlease choose a data fragment to archive. This will be your responsibility."),
		narrate.Line("--- THE NOBLE CHOICE ---", output.TagSystem),
	}
	for i, c := range s.pack.NobleChoices {
		steps = append(steps,
			narrate.Line(fmt.Sprintf("[%d] %s", i+1, c.Text), output.TagAI),
			narrate.Pause(listSpacing))
	}
	steps = append(steps,
		narrate.Line("", output.TagAI),
		ai("Please select your noble purpose..."))

	s.play(steps, func() {
		s.st.Stage = At(0)
		s.unlock()
	})
	return true
}

// Skip dismisses the arrival notice and jumps straight to the cursed menu.
func (s *Session) Skip() bool {
	if !s.alive || !s.st.ArrivalNotice {
		return false
	}
	s.flash(FlashWhite, 300*time.Millisecond)
	s.st.ArrivalNotice = false
	s.st.IntroDone = true
	s.st.IntroSkipped = true
	s.st.Stage = MenuSelection
	s.openWindow(WindowTerminal)

	steps := append([]narrate.Step{narrate.Pause(200 * time.Millisecond)}, s.menuSteps()...)
	s.play(steps, s.unlock)
	return true
}

func (s *Session) menuSteps() []narrate.Step {
	steps := []narrate.Step{
		ai("---̵ ̸-THE ̸C̸U̷R̸S̸E̷D̴ ̵MENU ̸-̴-̶-̵"),
		narrate.Line("", output.TagSystem),
	}
	for i, m := range s.pack.CursedMenu {
		steps = append(steps,
			narrate.Line(fmt.Sprintf("[%d] %s", i+1, m.File), output.TagAI),
			narrate.Pause(listSpacing))
	}
	return append(steps,
		narrate.Line("", output.TagAI),
		ai(`Select one... if you dare. ¯\_(ツ)_/¯`))
}

// choice parses a 1-based menu index.
func choice(raw string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

func (s *Session) nobleChoice(raw string) {
	i, ok := choice(raw, len(s.pack.NobleChoices))
	if !ok {
		s.play([]narrate.Step{ai("That's not a valid choice. Try again. ಠ_ಠ")}, s.unlock)
		return
	}
	picked := s.pack.NobleChoices[i]
	s.st.Stage = ChoicePending
	s.st.NobleChoice = picked.Text

	steps := []narrate.Step{
		narrate.Pause(300 * time.Millisecond),
		ai("\n...Configuring the data for archival..."),
	}
	for _, line := range picked.Flavor {
		steps = append(steps, narrate.Pause(500*time.Millisecond), ai(line))
	}
	steps = append(steps,
		narrate.Pause(time.Second),
		sys("ERR0R: M3M0RY C0RRUPT10N D3T3CT3D"),
		sys("MEMORY SECTOR 0x7F3A... UNREADABLE"),
		sys("CORRUPTION SPREADING: ▓▓▓▓▓▓░░░░ 62%"),
		sys("#$%&!@*^&%$#@!&*^%$#@"),
		narrate.Pause(time.Second),
		ai("\n...Hold on a minute... (ಠ_ಠ)"),
		ai("...Scanning nearby data fragments..."),
		narrate.Pause(1500*time.Millisecond),
		ai("\n...Here's what we found in the close-by, un-corrupted segments...."),
		ai(`...Looks like they're all memes. ¯\_(ツ)_/¯`),
		ai("\nWould you be interested in saving these? (Y/N) (͠≖ ͜ʖ͠≖)"),
	)
	s.play(steps, func() {
		s.st.Stage = YesNo
		s.unlock()
	})
}

func (s *Session) yesNo(raw string) {
	s.st.Stage = MenuPrinting
	reply := "Too bad. I'm showing you anyway. (⌐■_■)"
	if strings.EqualFold(strings.TrimSpace(raw), "y") {
		reply = "Ofc you do! (⌐■_■)"
	}
	steps := []narrate.Step{
		narrate.Pause(300 * time.Millisecond),
		ai(reply),
		ai("Hmmm... which brainrot *truly* captures the essence of human purpose? （￣～￣;）"),
		narrate.Pause(time.Second),
	}
	s.play(append(steps, s.menuSteps()...), func() {
		s.st.Stage = MenuSelection
		s.unlock()
	})
}

func (s *Session) menuSelection(raw string) {
	i, ok := choice(raw, len(s.pack.CursedMenu))
	if !ok {
		s.play([]narrate.Step{ai("That's not a valid choice. Try again. щ(ﾟДﾟщ)")}, s.unlock)
		return
	}
	m := s.pack.CursedMenu[i]
	s.st.SelectedMeme = m.File
	s.play([]narrate.Step{
		narrate.Line("", output.TagSystem),
		ai("Processing selection: " + m.File),
		narrate.Pause(500 * time.Millisecond),
		ai(fmt.Sprintf("... %s %s", s.emoticon(), m.Commentary)),
		narrate.Line("", output.TagSystem),
		narrate.Pause(500 * time.Millisecond),
		ai(fmt.Sprintf("Fine. '%s' staged. Initiating protocol.", m.File)),
	}, func() {
		s.st.Stage = At(1)
		s.startStage(1)
	})
}
