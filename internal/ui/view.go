package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cheekyos/internal/effects"
	"cheekyos/internal/finale"
	"cheekyos/internal/minigame"
	"cheekyos/internal/session"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
)

const (
	frameRate  = 30
	iconWidth  = 16
	inputLimit = 256
)

type applyMsg struct {
	fn func(*Root)
}

type frameMsg time.Time

type deskKeyMap struct {
	Manual    key.Binding
	ASCII     key.Binding
	StatusLog key.Binding
	Lore      key.Binding
	NetFeed   key.Binding
	Inbox     key.Binding
	Terminal  key.Binding
	Style     key.Binding
	Quit      key.Binding
}

func (k deskKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Manual, k.ASCII, k.StatusLog, k.Lore, k.NetFeed, k.Inbox, k.Terminal, k.Style, k.Quit}
}

func (k deskKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Manual, k.ASCII, k.StatusLog, k.Lore}, {k.NetFeed, k.Inbox, k.Terminal, k.Style, k.Quit}}
}

type focus int

const (
	focusTerminal focus = iota
	focusInbox
)

type Root struct {
	theme        Theme
	debug        bool
	ctrl         Controller
	docs         Docs
	styleVariant string
	motionLevel  string
	mouseScope   string

	mu       sync.Mutex
	program  *tea.Program
	running  bool
	inUpdate atomic.Bool

	layout LayoutMode
	cols   int
	rows   int

	snap        session.Snapshot
	order       []session.Window
	input       string
	password    string
	focus       focus
	emailIndex  int
	docScroll   int
	cursorRow   int
	cursorCol   int
	statusFlash string
	frame       int

	help     help.Model
	keymap   deskKeyMap
	progress progress.Model
	spin     spinner.Model
	markdown map[int]*glamour.TermRenderer
	mdCache  map[string]renderedDoc
	logger   *clog.Logger

	spring       harmonica.Spring
	termX, termY float64
	velX, velY   float64

	lastInputEvent string
}

type renderedDoc struct {
	src string
	out []string
}

type Options struct {
	Debug        bool
	StyleVariant string
	MotionLevel  string
	MouseScope   string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "cheekyos-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(frameRate), 6.0, 0.5)
	if motionLevel == "reduced" {
		spring = harmonica.NewSpring(harmonica.FPS(frameRate), 9.0, 0.92)
	}
	bar := progress.New(
		progress.WithWidth(18),
		progress.WithColors(lipgloss.Color("#2E7D43"), lipgloss.Color("#E5D47A"), lipgloss.Color("#FF6B6B")),
		progress.WithScaled(true),
	)
	if motionLevel == "off" {
		bar.SetSpringOptions(1000.0, 1.0)
	}
	spin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	r := &Root{
		theme:        theme,
		debug:        opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		mouseScope:   normalizeMouseScope(opts.MouseScope),
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		snap:         session.Snapshot{ArrivalNotice: true, InputLocked: true, SelectedEmail: -1},
		help:         h,
		progress:     bar,
		spin:         spin,
		markdown:     map[int]*glamour.TermRenderer{},
		mdCache:      map[string]renderedDoc{},
		logger:       logger,
		spring:       spring,
	}
	r.keymap = deskKeyMap{
		Manual:    key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Manual")),
		ASCII:     key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "ASCII")),
		StatusLog: key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "Log")),
		Lore:      key.NewBinding(key.WithKeys("f4"), key.WithHelp("F4", "Lore")),
		NetFeed:   key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "NetFeed")),
		Inbox:     key.NewBinding(key.WithKeys("f6"), key.WithHelp("F6", "Inbox")),
		Terminal:  key.NewBinding(key.WithKeys("f7"), key.WithHelp("F7", "Terminal")),
		Style:     key.NewBinding(key.WithKeys("f10"), key.WithHelp("F10", "CRT")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+q", "ctrl+c"), key.WithHelp("^Q", "Quit")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(frameTickCmd(), spinnerTickCmd(r.spin))
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	r.inUpdate.Store(true)
	defer r.inUpdate.Store(false)
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
			if _, ok := msg.(frameMsg); ok {
				cmd = frameTickCmd()
			}
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, nil
	case frameMsg:
		r.frame++
		if r.ctrl != nil {
			r.setSnapshot(r.ctrl.OnFrame(time.Time(msg)))
		}
		r.stepSpring()
		return r, frameTickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spin, cmd = r.spin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.handlePaste(msg)
	case tea.MouseClickMsg:
		return r.handleMouseClick(msg)
	case tea.MouseMotionMsg:
		return r.handleMouseMotion(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "CheekyOS display driver crashed. Check logs."
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	v := tea.NewView(r.render())
	v.AltScreen = true
	v.MouseMode = r.currentMouseMode()
	v.DisableBracketedPasteMode = false
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p == nil {
		return
	}
	// Quit sends into the program's message loop, which is blocked while
	// Update runs.
	if r.inUpdate.Load() {
		go p.Quit()
		return
	}
	p.Quit()
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
	if c != nil {
		r.setSnapshot(c.Snapshot())
	}
}

func (r *Root) SetDocs(docs Docs) {
	r.apply(func(r *Root) {
		r.docs = docs
		r.mdCache = map[string]renderedDoc{}
	})
}

func (r *Root) SetStyleVariant(variant string) {
	r.apply(func(r *Root) {
		r.styleVariant = normalizeStyleVariant(variant)
		r.theme = ThemeForVariant(r.styleVariant)
		r.spin.Style = r.theme.Accent
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(r *Root) {
		r.statusFlash = strings.TrimSpace(msg)
	})
}

// apply runs fn against the model on the update goroutine. Calls made from
// inside Update run immediately.
func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	if r.inUpdate.Load() {
		fn(r)
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

// dispatchController calls into the game and picks up the resulting state.
func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	fn(r.ctrl)
	r.setSnapshot(r.ctrl.Snapshot())
}

func (r *Root) setSnapshot(s session.Snapshot) {
	prev := r.snap
	r.snap = s

	kept := r.order[:0]
	for _, w := range r.order {
		if s.WindowOpen(w) {
			kept = append(kept, w)
		}
	}
	r.order = kept
	for _, w := range s.Windows {
		if isDocWindow(w) && !containsWindow(r.order, w) {
			r.order = append(r.order, w)
			r.docScroll = 0
		}
	}

	if s.WindowOpen(session.WindowInbox) && !prev.WindowOpen(session.WindowInbox) {
		r.focus = focusInbox
		r.emailIndex = 0
	}
	if !s.WindowOpen(session.WindowInbox) {
		r.focus = focusTerminal
		r.password = ""
	}
	if s.EmailsAvailable > 0 {
		r.emailIndex = min(max(r.emailIndex, 0), s.EmailsAvailable-1)
	}
	if s.Decryptor == nil {
		r.cursorRow, r.cursorCol = 0, 0
	}
}

func isDocWindow(w session.Window) bool {
	switch w {
	case session.WindowManual, session.WindowASCII, session.WindowStatusLog,
		session.WindowLore, session.WindowNetFeed, session.WindowInbox:
		return true
	}
	return false
}

func containsWindow(ws []session.Window, w session.Window) bool {
	for _, x := range ws {
		if x == w {
			return true
		}
	}
	return false
}

func (r *Root) topWindow() (session.Window, bool) {
	if len(r.order) == 0 {
		return "", false
	}
	return r.order[len(r.order)-1], true
}

func (r *Root) desktopDisabled() bool {
	s := r.snap
	return s.GameOver || s.CRT != session.CRTNone || s.Finale.State == finale.Active
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, r.keymap.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	s := r.snap
	if s.ArrivalNotice {
		switch {
		case msg.Code == tea.KeyEnter:
			r.dispatchController(func(c Controller) { c.OnBegin() })
		case msg.Code == tea.KeyEsc || msg.Text == "s" || msg.Text == "S":
			r.dispatchController(func(c Controller) { c.OnSkip() })
		}
		return r, nil
	}
	if r.desktopDisabled() {
		return r, nil
	}

	switch {
	case s.WindowOpen(session.WindowSnake):
		return r.handleSnakeKey(msg)
	case s.WindowOpen(session.WindowDecryptor):
		return r.handleDecryptorKey(msg)
	case s.WindowOpen(session.WindowTicTacToe):
		return r.handleTicTacToeKey(msg)
	}

	switch {
	case key.Matches(msg, r.keymap.Manual):
		r.toggle(session.WindowManual)
		return r, nil
	case key.Matches(msg, r.keymap.ASCII):
		r.toggle(session.WindowASCII)
		return r, nil
	case key.Matches(msg, r.keymap.StatusLog):
		r.toggle(session.WindowStatusLog)
		return r, nil
	case key.Matches(msg, r.keymap.Lore):
		r.toggle(session.WindowLore)
		return r, nil
	case key.Matches(msg, r.keymap.NetFeed):
		r.toggle(session.WindowNetFeed)
		return r, nil
	case key.Matches(msg, r.keymap.Inbox):
		r.toggle(session.WindowInbox)
		return r, nil
	case key.Matches(msg, r.keymap.Terminal):
		r.toggle(session.WindowTerminal)
		return r, nil
	case key.Matches(msg, r.keymap.Style):
		next := NextStyleVariant(r.styleVariant)
		r.SetStyleVariant(next)
		r.dispatchController(func(c Controller) { c.OnStyleChange(next) })
		return r, nil
	}

	switch msg.Code {
	case tea.KeyEsc:
		if w, ok := r.topWindow(); ok {
			r.dispatchController(func(c Controller) { c.OnCloseWindow(w) })
		}
		return r, nil
	case tea.KeyTab:
		if s.WindowOpen(session.WindowInbox) {
			if r.focus == focusInbox {
				r.focus = focusTerminal
			} else {
				r.focus = focusInbox
			}
		}
		return r, nil
	case tea.KeyPgUp:
		r.docScroll = max(0, r.docScroll-5)
		return r, nil
	case tea.KeyPgDown:
		r.docScroll += 5
		return r, nil
	}

	if r.focus == focusInbox {
		return r.handleInboxKey(msg)
	}
	return r.handleTerminalKey(msg)
}

func (r *Root) toggle(w session.Window) {
	r.dispatchController(func(c Controller) { c.OnToggleWindow(w) })
}

func (r *Root) handleTerminalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if !r.snap.WindowOpen(session.WindowTerminal) {
		return r, nil
	}
	switch msg.Code {
	case tea.KeyEnter:
		line := r.input
		submitted := false
		r.dispatchController(func(c Controller) { submitted = c.OnSubmit(line) })
		if submitted {
			r.input = ""
		}
		return r, nil
	case tea.KeyBackspace:
		if backspaceFried(r.snap) {
			r.statusFlash = "Backspace is fried."
			return r, nil
		}
		r.input = dropLastRune(r.input)
		return r, nil
	}
	if msg.Text != "" && msg.Mod&tea.ModCtrl == 0 {
		r.input = appendInput(r.input, msg.Text)
	}
	return r, nil
}

func (r *Root) handleInboxKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	s := r.snap
	if !s.InboxUnlocked {
		switch msg.Code {
		case tea.KeyEnter:
			if !s.PasswordRevealed {
				r.statusFlash = "Inbox sealed. Recover the password first."
				return r, nil
			}
			pw := r.password
			r.password = ""
			r.dispatchController(func(c Controller) { c.OnAuthenticate(pw) })
		case tea.KeyBackspace:
			r.password = dropLastRune(r.password)
		default:
			if msg.Text != "" && msg.Mod&tea.ModCtrl == 0 {
				r.password = appendInput(r.password, msg.Text)
			}
		}
		return r, nil
	}
	switch msg.Code {
	case tea.KeyUp:
		r.emailIndex = max(0, r.emailIndex-1)
	case tea.KeyDown:
		r.emailIndex = min(max(0, s.EmailsAvailable-1), r.emailIndex+1)
	case tea.KeyEnter:
		i := r.emailIndex
		r.docScroll = 0
		r.dispatchController(func(c Controller) { c.OnOpenEmail(i) })
	}
	return r, nil
}

func (r *Root) handleTicTacToeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.Code == tea.KeyEsc {
		r.dispatchController(func(c Controller) { c.OnCloseWindow(session.WindowTicTacToe) })
		return r, nil
	}
	if len(msg.Text) == 1 && msg.Text[0] >= '1' && msg.Text[0] <= '9' {
		i := int(msg.Text[0] - '1')
		r.dispatchController(func(c Controller) { c.OnTicTacToeMove(i) })
	}
	return r, nil
}

func (r *Root) handleDecryptorKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyUp:
		r.cursorRow = max(0, r.cursorRow-1)
	case tea.KeyDown:
		r.cursorRow = min(minigame.GridSize-1, r.cursorRow+1)
	case tea.KeyLeft:
		r.cursorCol = max(0, r.cursorCol-1)
	case tea.KeyRight:
		r.cursorCol = min(minigame.GridSize-1, r.cursorCol+1)
	case tea.KeyEnter, tea.KeySpace:
		row, col := r.cursorRow, r.cursorCol
		r.dispatchController(func(c Controller) { c.OnDecryptSelect(row, col) })
	}
	return r, nil
}

func (r *Root) handleSnakeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	dir, ok := snakeDir(msg)
	if ok {
		r.dispatchController(func(c Controller) { c.OnSnakeTurn(dir) })
	}
	return r, nil
}

func snakeDir(msg tea.KeyPressMsg) (minigame.Dir, bool) {
	switch {
	case msg.Code == tea.KeyUp || msg.Text == "w":
		return minigame.Up, true
	case msg.Code == tea.KeyDown || msg.Text == "s":
		return minigame.Down, true
	case msg.Code == tea.KeyLeft || msg.Text == "a":
		return minigame.Left, true
	case msg.Code == tea.KeyRight || msg.Text == "d":
		return minigame.Right, true
	}
	return 0, false
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))

	if r.snap.ArrivalNotice || r.desktopDisabled() {
		return r, nil
	}
	text := strings.NewReplacer("\r", "", "\n", " ", "\t", " ").Replace(msg.Content)
	if text == "" {
		return r, nil
	}
	if r.focus == focusInbox && !r.snap.InboxUnlocked {
		r.password = appendInput(r.password, text)
		return r, nil
	}
	if r.snap.WindowOpen(session.WindowTerminal) {
		r.input = appendInput(r.input, text)
	}
	return r, nil
}

func (r *Root) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_click:%d,%d button:%v", mouse.X, mouse.Y, mouse.Button))

	if r.mouseScope == "off" || mouse.Button != tea.MouseLeft {
		return r, nil
	}
	if r.snap.ArrivalNotice {
		r.dispatchController(func(c Controller) { c.OnBegin() })
		return r, nil
	}
	g := r.glass()
	if !g.contains(mouse.X, mouse.Y) {
		return r, nil
	}
	x, y := g.toArea(mouse.X, mouse.Y)
	used := false
	r.dispatchController(func(c Controller) { used = c.OnPlayAreaClick(x, y) })
	if used || r.desktopDisabled() {
		return r, nil
	}
	if w, ok := r.iconAt(mouse.X, mouse.Y); ok {
		r.toggle(w)
	}
	return r, nil
}

func (r *Root) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	if r.mouseScope == "off" || len(r.snap.Popups) == 0 {
		return r, nil
	}
	g := r.glass()
	if !g.contains(mouse.X, mouse.Y) {
		return r, nil
	}
	x, y := g.toArea(mouse.X, mouse.Y)
	r.dispatchController(func(c Controller) { c.OnPlayAreaHover(x, y) })
	return r, nil
}

// glass is the body of the screen between the header and status rows.
func (r *Root) glass() glass {
	return glass{top: 1, left: 0, cols: max(1, r.cols), rows: max(1, r.rows-2)}
}

func (r *Root) iconAt(col, row int) (session.Window, bool) {
	if col >= iconWidth {
		return "", false
	}
	i := row - 2
	if i < 0 || i%2 != 0 || i/2 >= len(session.DesktopWindows) {
		return "", false
	}
	return session.DesktopWindows[i/2], true
}

// stepSpring eases the rendered terminal toward its drifted position.
func (r *Root) stepSpring() {
	tx, ty := r.terminalTarget()
	if r.motionLevel == "off" {
		r.termX, r.termY, r.velX, r.velY = tx, ty, 0, 0
		return
	}
	r.termX, r.velX = r.spring.Update(r.termX, r.velX, tx)
	r.termY, r.velY = r.spring.Update(r.termY, r.velY, ty)
}

func (r *Root) terminalTarget() (float64, float64) {
	anchor := effects.DefaultDriftConfig().Anchor
	g := r.glass()
	dx := (r.snap.Terminal.X - anchor.X) * float64(g.cols) / effects.PlayArea.W
	dy := (r.snap.Terminal.Y - anchor.Y) * float64(g.rows) / effects.PlayArea.H
	return dx, dy
}

func backspaceFried(s session.Snapshot) bool {
	return s.Stage.Kind == session.Numbered && s.Stage.N == 6
}

func appendInput(cur, text string) string {
	out := []rune(cur + text)
	if len(out) > inputLimit {
		out = out[:inputLimit]
	}
	return string(out)
}

func dropLastRune(s string) string {
	rs := []rune(s)
	if len(rs) == 0 {
		return s
	}
	return string(rs[:len(rs)-1])
}

func frameTickCmd() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func (r *Root) currentMouseMode() tea.MouseMode {
	if r.mouseScope == "off" {
		return tea.MouseModeNone
	}
	return tea.MouseModeAllMotion
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "retro_terminal", "amber", "phosphor_blue":
		return strings.TrimSpace(v)
	default:
		return "retro_terminal"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func normalizeMouseScope(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	r.statusFlash = "Recovered UI panic"

	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"messageType", msgType,
		"stage", r.snap.Stage.String(),
		"layout", r.layout,
		"cols", r.cols,
		"rows", r.rows,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
