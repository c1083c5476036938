package ui

import (
	"fmt"
	"math"
	"strings"

	"cheekyos/internal/effects"
	"cheekyos/internal/finale"
	"cheekyos/internal/minigame"
	"cheekyos/internal/output"
	"cheekyos/internal/session"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
)

const sadCat = ` /\_/\
( ;_; )
 > ^ <`

func (r *Root) render() string {
	s := r.snap
	if r.layout == LayoutTooSmall {
		return r.renderTooSmall()
	}
	switch s.CRT {
	case session.CRTOff:
		return strings.Repeat("\n", max(0, r.rows-1))
	case session.CRTCollapse:
		return r.renderCollapse()
	}
	if s.ArrivalNotice {
		return r.applyFlash(r.renderArrival())
	}

	var body string
	if s.Finale.State == finale.Active {
		body = r.renderFinale()
	} else {
		body = r.renderDesktop()
	}
	screen := lipgloss.JoinVertical(lipgloss.Left, r.headerText(), body, r.statusText())

	switch {
	case s.GameOver:
		screen = composeOverlay(screen, r.renderGameOver(), r.cols, r.rows)
	case s.CRT == session.CRTAlert:
		alert := r.theme.Overlay.BorderForeground(lipgloss.Color("#FF0000")).Render(
			r.theme.Fail.Render("!! CRT DISPLAY FAILURE IMMINENT !!") + "\n" +
				r.theme.Muted.Render("Degauss coil offline. Do not touch the glass."))
		screen = composeOverlay(screen, alert, r.cols, r.rows)
	}
	return r.applyFlash(r.applyGlitch(screen))
}

func (r *Root) renderTooSmall() string {
	msg := fmt.Sprintf("CheekyOS needs at least 80x24 (now %dx%d).", r.cols, r.rows)
	return lipgloss.Place(max(1, r.cols), max(1, r.rows), lipgloss.Center, lipgloss.Center, r.theme.Fail.Render(msg))
}

func (r *Root) renderCollapse() string {
	mid := r.rows / 2
	lines := make([]string, r.rows)
	w := max(2, r.cols/3)
	lines[mid] = strings.Repeat(" ", (r.cols-w)/2) + r.theme.FlashWhite.Render(strings.Repeat(" ", w))
	return strings.Join(lines, "\n")
}

func (r *Root) renderArrival() string {
	title := r.theme.OverlayTitle.Render("CHEEKYOS ARCHIVE NODE 7")
	body := strings.Join([]string{
		title,
		"",
		"Welcome, Runner. The archive remembers every meme the world tried to forget.",
		"Somebody has to keep it alive. Congratulations, it's you.",
		"",
		r.theme.Accent.Render("[Enter] begin") + "   " + r.theme.Muted.Render("[S] skip the intro"),
	}, "\n")
	box := r.theme.Overlay.Render(body)
	return lipgloss.Place(max(1, r.cols), max(1, r.rows), lipgloss.Center, lipgloss.Center, box)
}

func (r *Root) headerText() string {
	s := r.snap
	width := max(1, r.cols-2)
	parts := []string{"CheekyOS"}
	if r.docs.PackName != "" {
		parts = append(parts, r.docs.PackName)
	}
	parts = append(parts, s.FakeTime, "stage "+s.Stage.String())
	if s.FailStreak > 0 {
		parts = append(parts, fmt.Sprintf("fails %d/%d", s.FailStreak, session.MaxFailStreak))
	}
	if s.Glitch != "" {
		parts = append(parts, "glitch:"+s.Glitch)
	}
	txt := strings.Join(parts, " | ")
	if r.debug {
		txt = fmt.Sprintf("%s | %dx%d %v", txt, r.cols, r.rows, r.layout)
	}
	bar := r.protocolBar()
	txt = trimForWidth(txt, max(1, width-lipgloss.Width(bar)-1))
	gap := max(1, width-lipgloss.Width(txt)-lipgloss.Width(bar))
	return r.theme.Header.Width(max(1, r.cols)).Render(txt + strings.Repeat(" ", gap) + bar)
}

func (r *Root) protocolBar() string {
	m := r.progress
	m.SetWidth(18)
	return m.ViewAs(protocolPercent(r.snap.Stage))
}

func protocolPercent(st session.Stage) float64 {
	if st.Kind != session.Numbered {
		return 0
	}
	return math.Min(1, float64(st.N)/9)
}

func (r *Root) statusText() string {
	s := r.snap
	keys := r.help.View(r.keymap)
	if s.InputLocked && s.NarrationActive {
		keys = r.theme.Accent.Render(strings.TrimSpace(r.spin.View())+" AI typing") + " | " + keys
	}
	if s.Headline != "" {
		keys += " | " + s.Headline
	}
	if r.statusFlash != "" {
		keys += " | " + r.statusFlash
	}
	keys = trimForWidth(keys, max(1, r.cols-2))
	return r.theme.Status.Width(max(1, r.cols)).Render(keys)
}

func (r *Root) renderDesktop() string {
	s := r.snap
	h := max(3, r.rows-2)
	icons := r.renderIcons(h)
	mainW := max(10, r.cols-iconWidth)

	termW := mainW
	docW := 0
	top, hasTop := r.topWindow()
	if hasTop && r.layout == LayoutWide {
		termW = mainW * 3 / 5
		docW = mainW - termW
	}
	area := blank(termW, h)
	if s.WindowOpen(session.WindowTerminal) {
		panelW := min(termW, max(40, termW-4))
		panelH := min(h, max(10, h-2))
		panel := r.renderTerminal(panelW, panelH)
		row := int(math.Round(r.termY))
		col := int(math.Round(r.termX)) + (termW-panelW)/2
		area = composeOverlayAt(area, panel, termW, h, row, col)
	}
	parts := []string{icons, area}
	if docW > 0 {
		parts = append(parts, r.renderDocWindow(top, docW, h))
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if hasTop && docW == 0 {
		w := min(r.cols-8, 72)
		out = composeOverlay(out, r.renderDocWindow(top, w, h-4), r.cols, h)
	}

	if mg := r.renderMinigame(); mg != "" {
		out = composeOverlay(out, mg, r.cols, h)
	}
	if s.VictoryFrame != "" {
		out = composeOverlay(out, r.theme.Overlay.Render(s.VictoryFrame), r.cols, h)
	}
	return r.renderPopups(out, h)
}

func (r *Root) renderIcons(h int) string {
	lines := make([]string, h)
	lines[0] = r.theme.PanelTitle.Render(" DESKTOP")
	for i, w := range session.DesktopWindows {
		row := 2 + 2*i
		if row >= h {
			break
		}
		label := iconLabel(w)
		marker := "  "
		if r.snap.WindowOpen(w) {
			marker = "▸ "
		}
		style := r.theme.Muted
		if r.snap.WindowOpen(w) {
			style = r.theme.Accent
		}
		if w == session.WindowManual && r.snap.ManualLocked {
			label = "Manual ✗"
			style = r.theme.Fail
		}
		lines[row] = style.Render(marker + label)
	}
	for i := range lines {
		lines[i] = padCells(lines[i], iconWidth)
	}
	return strings.Join(lines, "\n")
}

func iconLabel(w session.Window) string {
	switch w {
	case session.WindowTerminal:
		return "Terminal"
	case session.WindowNetFeed:
		return "NetFeed"
	case session.WindowManual:
		return "Manual"
	case session.WindowASCII:
		return "ASCII"
	case session.WindowStatusLog:
		return "Status Log"
	case session.WindowLore:
		return "Lore"
	case session.WindowInbox:
		return "Inbox"
	}
	return string(w)
}

func (r *Root) renderTerminal(width, height int) string {
	innerW := max(1, width-2)
	innerH := max(1, height-2)
	var lines []string
	for _, e := range r.snap.Log {
		text := e.Text
		style := r.theme.AI
		switch e.Tag {
		case output.TagPlayer:
			text = "> " + text
			style = r.theme.Player
		case output.TagSystem:
			style = r.theme.System
		}
		for _, l := range strings.Split(ansi.Wrap(text, innerW, ""), "\n") {
			lines = append(lines, style.Render(l))
		}
	}
	prompt := "> " + r.displayInput()
	if !r.snap.InputLocked && r.focus == focusTerminal && r.frame/15%2 == 0 {
		prompt += "█"
	}
	if r.snap.InputLocked {
		prompt = r.theme.Muted.Render(prompt)
	}
	lines = append(lines, prompt)
	if len(lines) > innerH {
		lines = lines[len(lines)-innerH:]
	}
	return r.drawPanel("ARCHIVE TERMINAL", lines, width, height, r.theme.TerminalBorder)
}

// displayInput shows what the player typed, run through the keyboard
// sabotage while it is active.
func (r *Root) displayInput() string {
	if !r.snap.Leetspeak {
		return r.input
	}
	return leet(r.input)
}

var leetReplacer = strings.NewReplacer("A", "4", "a", "4", "E", "3", "e", "3", "I", "1", "i", "1", "O", "0", "o", "0")

func leet(s string) string { return leetReplacer.Replace(s) }

func (r *Root) renderDocWindow(w session.Window, width, height int) string {
	innerW := max(1, width-2)
	innerH := max(1, height-2)
	var lines []string
	title := strings.ToUpper(iconLabel(w))
	switch w {
	case session.WindowManual:
		lines = r.markdownLines("manual", r.docs.Manual, innerW)
	case session.WindowASCII:
		lines = asciiTable(innerW)
	case session.WindowStatusLog:
		if r.docs.StatusLog != nil {
			lines = r.markdownLines("status_log", r.docs.StatusLog(r.snap.PasswordRevealed), innerW)
		}
	case session.WindowLore:
		if r.docs.Lore != nil {
			lines = r.markdownLines("lore", r.docs.Lore(r.snap.LoreCycle), innerW)
		}
	case session.WindowNetFeed:
		lines = r.netFeedLines(innerW)
	case session.WindowInbox:
		lines = r.inboxLines(innerW)
	}
	if n := len(r.order) - 1; n > 0 {
		title = fmt.Sprintf("%s (+%d)", title, n)
	}
	if max(0, len(lines)-innerH) < r.docScroll {
		r.docScroll = max(0, len(lines)-innerH)
	}
	lines = lines[min(r.docScroll, len(lines)):]
	return r.drawPanel(title, lines, width, height, r.theme.PanelBorder)
}

func (r *Root) markdownLines(name, src string, width int) []string {
	cacheKey := fmt.Sprintf("%s/%d", name, width)
	if doc, ok := r.mdCache[cacheKey]; ok && doc.src == src {
		return doc.out
	}
	out := strings.Split(ansi.Wrap(src, width, ""), "\n")
	if renderer := r.markdownRenderer(width); renderer != nil {
		if rendered, err := renderer.Render(src); err == nil {
			out = strings.Split(strings.Trim(rendered, "\n"), "\n")
		}
	}
	r.mdCache[cacheKey] = renderedDoc{src: src, out: out}
	return out
}

func (r *Root) markdownRenderer(width int) *glamour.TermRenderer {
	if tr, ok := r.markdown[width]; ok {
		return tr
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(10, width-4)),
	)
	if err != nil {
		tr = nil
	}
	r.markdown[width] = tr
	return tr
}

func asciiTable(width int) []string {
	lines := []string{"ASCII DECIMAL REFERENCE", ""}
	perRow := max(1, min(6, width/9))
	var row []string
	for c := 'A'; c <= 'Z'; c++ {
		row = append(row, fmt.Sprintf("%c = %-3d", c, c))
		if len(row) == perRow {
			lines = append(lines, strings.Join(row, "  "))
			row = nil
		}
	}
	if len(row) > 0 {
		lines = append(lines, strings.Join(row, "  "))
	}
	return append(lines, "", "SPACE = 32")
}

func (r *Root) netFeedLines(width int) []string {
	var lines []string
	if r.snap.Headline != "" {
		lines = append(lines, r.theme.Fail.Render(trimForWidth("BREAKING: "+r.snap.Headline, width)), "")
	}
	for _, item := range r.docs.NetFeed {
		lines = append(lines, strings.Split(ansi.Wrap("• "+item, width, ""), "\n")...)
	}
	return lines
}

func (r *Root) inboxLines(width int) []string {
	s := r.snap
	if !s.InboxUnlocked {
		lines := []string{"SECURE MAILBOX", ""}
		if !s.PasswordRevealed {
			return append(lines, r.theme.Muted.Render("Sealed. No credentials on file."))
		}
		masked := strings.Repeat("*", len([]rune(r.password)))
		if r.focus == focusInbox && r.frame/15%2 == 0 {
			masked += "█"
		}
		lines = append(lines, "PASSWORD: "+masked)
		if s.InboxError != "" {
			lines = append(lines, "", r.theme.Fail.Render(trimForWidth(s.InboxError, width)))
		}
		return append(lines, "", r.theme.Muted.Render("Tab switches focus. Enter submits."))
	}
	lines := []string{fmt.Sprintf("INBOX (%d/%d)", s.EmailsAvailable, len(r.docs.Emails)), ""}
	for i := 0; i < s.EmailsAvailable && i < len(r.docs.Emails); i++ {
		e := r.docs.Emails[i]
		mark := "●"
		if containsInt(s.EmailsRead, i) {
			mark = " "
		}
		line := trimForWidth(fmt.Sprintf("%s %s: %s", mark, e.Sender, e.Subject), width-2)
		if i == r.emailIndex {
			line = r.theme.Accent.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	if i := s.SelectedEmail; i >= 0 && i < len(r.docs.Emails) && r.docs.Emails[i].Body != nil {
		lines = append(lines, "", strings.Repeat("─", width))
		body := r.docs.Emails[i].Body(s.FakeTime)
		lines = append(lines, r.markdownLines(fmt.Sprintf("email%d", i), body, width)...)
	}
	return lines
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func (r *Root) renderMinigame() string {
	s := r.snap
	switch {
	case s.Snake != nil && s.WindowOpen(session.WindowSnake):
		return r.renderSnake(s.Snake)
	case s.Decryptor != nil && s.WindowOpen(session.WindowDecryptor):
		return r.renderDecryptor(s.Decryptor)
	case s.TicTacToe != "" && s.WindowOpen(session.WindowTicTacToe):
		return r.renderTicTacToe(s.TicTacToe)
	}
	return ""
}

func (r *Root) renderTicTacToe(board string) string {
	cells := []rune(board)
	var b strings.Builder
	b.WriteString(r.theme.OverlayTitle.Render("CPU RE-ALLOCATION: TIC-TAC-TOE") + "\n\n")
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			i := row*3 + col
			c := string(cells[i])
			if cells[i] == rune(minigame.Empty) {
				c = r.theme.Muted.Render(fmt.Sprint(i + 1))
			}
			b.WriteString(" " + c + " ")
			if col < 2 {
				b.WriteString("│")
			}
		}
		b.WriteString("\n")
		if row < 2 {
			b.WriteString("───┼───┼───\n")
		}
	}
	b.WriteString("\n" + r.theme.Muted.Render("1-9 to move. Esc forfeits."))
	return r.theme.Overlay.Render(b.String())
}

func (r *Root) renderDecryptor(d *session.DecryptorView) string {
	var b strings.Builder
	b.WriteString(r.theme.OverlayTitle.Render("MEME PACKET DECRYPTOR") + "\n")
	b.WriteString(r.theme.Muted.Render("Make every row read "+string(minigame.TargetRow[:])) + "\n\n")
	for ri, row := range d.Rows {
		for ci, c := range row {
			cell := " " + string(c) + " "
			if d.Selected != nil && d.Selected.Row == ri && d.Selected.Col == ci {
				cell = "[" + string(c) + "]"
			}
			if ri == r.cursorRow && ci == r.cursorCol {
				cell = r.theme.Glitch.Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	m := r.progress
	m.SetWidth(12)
	pct := float64(d.TimeLeft) / minigame.DecryptSeconds
	b.WriteString(fmt.Sprintf("\n%s %2ds", m.ViewAs(math.Max(0, math.Min(1, pct))), d.TimeLeft))
	b.WriteString("\n" + r.theme.Muted.Render("Arrows move. Enter swaps."))
	return r.theme.Overlay.Render(b.String())
}

func (r *Root) renderSnake(sv *session.SnakeView) string {
	grid := make([][]rune, minigame.SnakeHeight)
	for y := range grid {
		grid[y] = []rune(strings.Repeat("·", minigame.SnakeWidth))
	}
	put := func(p minigame.Point, c rune) {
		if p.Y >= 0 && p.Y < minigame.SnakeHeight && p.X >= 0 && p.X < minigame.SnakeWidth {
			grid[p.Y][p.X] = c
		}
	}
	put(sv.Food, '✦')
	for i, p := range sv.Body {
		c := 'o'
		if i == 0 {
			c = '@'
		}
		put(p, c)
	}
	var b strings.Builder
	b.WriteString(r.theme.OverlayTitle.Render("DATA SNAKE") + "\n")
	b.WriteString(fmt.Sprintf("fragments %d  keys %d\n\n", sv.Fragments, sv.Keys))
	for _, row := range grid {
		b.WriteString(string(row) + "\n")
	}
	b.WriteString(r.theme.Muted.Render("Arrows or WASD."))
	return r.theme.Overlay.Render(b.String())
}

// renderPopups draws the ad swarm at its glass coordinates.
func (r *Root) renderPopups(body string, h int) string {
	if len(r.snap.Popups) == 0 {
		return body
	}
	g := glass{top: 0, left: 0, cols: r.cols, rows: h}
	cfg := effects.DefaultPopupConfig()
	pw, ph := g.scale(cfg.Popup.W, cfg.Popup.H)
	pw, ph = max(pw, 18), max(ph, 4)
	for _, p := range r.snap.Popups {
		col, row := g.toCell(p.Pos.X, p.Pos.Y)
		bcol, brow := g.scale(p.Button.X, p.Button.Y)
		lines := make([]string, ph-2)
		lines[0] = "FREE RAM! CLICK NOW!"
		if p.Closing {
			lines[0] = "closing..."
		}
		if brow < len(lines) {
			btn := min(bcol, max(0, pw-5))
			lines[brow] = padCells(lines[brow], btn) + "[X]"
		}
		box := r.drawPanel("AD", lines, pw, ph, r.theme.Popup)
		body = composeOverlayAt(body, box, r.cols, h, row, col)
	}
	return body
}

func (r *Root) renderFinale() string {
	s := r.snap
	h := max(3, r.rows-2)
	g := glass{top: 0, left: 0, cols: r.cols, rows: h}
	lines := make([][]rune, h)
	for i := range lines {
		lines[i] = []rune(strings.Repeat(" ", r.cols))
	}
	size := finale.DefaultConfig().TargetSize
	for _, t := range s.Finale.Targets {
		col, row := g.toCell(t.X, t.Y)
		w, _ := g.scale(size, size)
		for i, c := range []rune(bugSprite(w)) {
			if row >= 0 && row < h && col+i >= 0 && col+i < r.cols {
				lines[row][col+i] = c
			}
		}
	}
	out := make([]string, h)
	for i, l := range lines {
		out[i] = string(l)
	}
	msg := fmt.Sprintf(" CONTAIN THE BUG  misses %d ", s.Finale.Misses)
	out[0] = r.theme.Fail.Render(padCells(msg, r.cols))
	return strings.Join(out, "\n")
}

func bugSprite(w int) string {
	if w < 3 {
		return "*"
	}
	return "<" + strings.Repeat("#", w-2) + ">"
}

func (r *Root) renderGameOver() string {
	lines := []string{
		r.theme.Fail.Render("SYSTEM FAILURE"),
		"",
		sadCat,
		"",
	}
	if r.snap.BugSwarm {
		lines = append(lines, r.theme.Fail.Render("The bug got out. Everything is bugs now."), "")
	}
	lines = append(lines, r.theme.Muted.Render("Rebooting the archive..."))
	return r.theme.Overlay.BorderForeground(lipgloss.Color("#FF0000")).Render(strings.Join(lines, "\n"))
}

func (r *Root) applyGlitch(screen string) string {
	kind := r.snap.Glitch
	if r.snap.Finale.Glitch != "" {
		kind = r.snap.Finale.Glitch
	}
	if r.motionLevel == "off" {
		if kind != "" && kind != "invert" {
			return screen
		}
	}
	lines := strings.Split(screen, "\n")
	switch kind {
	case "shake":
		if r.frame%2 == 0 {
			for i := range lines {
				lines[i] = " " + ansi.Truncate(lines[i], max(0, r.cols-1), "")
			}
		}
	case "bars", "static":
		for i := range lines {
			if (i+r.frame)%6 == 0 {
				lines[i] = r.theme.Glitch.Render(strings.Repeat("▓", r.cols))
			}
		}
	case "tear":
		for i := len(lines) / 3; i < 2*len(lines)/3; i++ {
			lines[i] = "   " + ansi.Truncate(lines[i], max(0, r.cols-3), "")
		}
	case "invert":
		for i := range lines {
			lines[i] = r.theme.Glitch.Render(padCells(ansi.Strip(lines[i]), r.cols))
		}
	}
	if r.snap.PowerFlicker && r.frame%4 < 2 {
		for i := range lines {
			lines[i] = r.theme.Muted.Render(ansi.Strip(lines[i]))
		}
	}
	return strings.Join(lines, "\n")
}

func (r *Root) applyFlash(screen string) string {
	var style lipgloss.Style
	switch r.snap.Flash {
	case session.FlashWhite:
		style = r.theme.FlashWhite
	case session.FlashRed:
		style = r.theme.FlashRed
	default:
		return screen
	}
	lines := strings.Split(screen, "\n")
	for i := range lines {
		lines[i] = style.Render(padCells(ansi.Strip(lines[i]), r.cols))
	}
	return strings.Join(lines, "\n")
}

func (r *Root) drawPanel(title string, lines []string, width, height int, border lipgloss.Style) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	top := "┌" + strings.Repeat("─", innerW) + "┐"
	if title != "" && innerW > 4 {
		t := trimForWidth(title, innerW-4)
		top = border.Render("┌─ ") + r.theme.PanelTitle.Render(t) + border.Render(" "+strings.Repeat("─", max(0, innerW-3-ansi.StringWidth(t)))+"┐")
	} else {
		top = border.Render(top)
	}

	out := make([]string, 0, height)
	out = append(out, top)
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, border.Render("│")+r.theme.PanelBody.Render(padCells(line, innerW))+border.Render("│"))
	}
	out = append(out, border.Render("└"+strings.Repeat("─", innerW)+"┘"))
	return strings.Join(out, "\n")
}
