package platform

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/palmrunner/palmrunner/internal/eventqueue"
)

// tuiScreen buffers guest framebuffer writes behind a mutex; the render
// loop reads it on its own schedule rather than on every Paint, so a fast
// guest repainting every tick doesn't stall on terminal I/O.
type tuiScreen struct {
	mu            sync.Mutex
	width, height int
	pixels        []uint32
}

func (s *tuiScreen) Width() int  { return s.width }
func (s *tuiScreen) Height() int { return s.height }

func (s *tuiScreen) Paint(pixels []uint32) error {
	s.mu.Lock()
	s.pixels = append([]uint32(nil), pixels...)
	s.mu.Unlock()
	return nil
}

func (s *tuiScreen) snapshot() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint32(nil), s.pixels...)
}

// TUIPlatform renders the guest's framebuffer as a block-character grid
// and a scrollable stdout log, using bubbletea's alt-screen program, and
// translates terminal key presses into eventqueue Events on a queue the
// caller supplies (the same queue the guest's EventQueue.getNextEvent
// drains).
type TUIPlatform struct {
	screen  *tuiScreen
	events  *eventqueue.Queue
	program *tea.Program

	mu       sync.Mutex
	exitCode *int
	onExit   func(code int)
	onTick   func()
}

// NewTUIPlatform creates a TUIPlatform with a width x height guest screen.
// events is the queue key presses and periodic Update events are pushed
// onto; Run must be called to actually run the terminal program, and it
// blocks until the program quits.
func NewTUIPlatform(events *eventqueue.Queue, width, height int) *TUIPlatform {
	return &TUIPlatform{
		screen: &tuiScreen{width: width, height: height},
		events: events,
	}
}

func (p *TUIPlatform) Now() uint64 { return uint64(time.Now().UnixMilli()) }

func (p *TUIPlatform) Screen() Screen { return p.screen }

// WriteStdout appends a line to the scrollable log pane rather than to the
// real process stdout, which the terminal program owns while running.
func (p *TUIPlatform) WriteStdout(b []byte) (int, error) {
	if p.program != nil {
		p.program.Send(stdoutMsg(string(b)))
	}
	return len(b), nil
}

func (p *TUIPlatform) Exit(code int) {
	p.mu.Lock()
	p.exitCode = &code
	onExit := p.onExit
	p.mu.Unlock()
	if p.program != nil {
		p.program.Quit()
	}
	if onExit != nil {
		onExit(code)
	}
}

// OnExit registers a callback invoked when the guest requests termination.
func (p *TUIPlatform) OnExit(fn func(code int)) {
	p.mu.Lock()
	p.onExit = fn
	p.mu.Unlock()
}

// OnTick registers a callback invoked once per terminal frame, before the
// frame's Update pseudo-event is pushed — the hook that lets a host loop
// drive one Executor.Tick per Bubble Tea tick, exactly the data-flow
// spec.md §2 describes, without bubbletea's model needing to know what an
// Executor is.
func (p *TUIPlatform) OnTick(fn func()) {
	p.mu.Lock()
	p.onTick = fn
	p.mu.Unlock()
}

// Run starts the terminal program and blocks until the user quits or Exit
// is called: one goroutine owns the terminal, everything else hands it
// messages.
func (p *TUIPlatform) Run() error {
	p.mu.Lock()
	onTick := p.onTick
	p.mu.Unlock()

	m := newTUIModel(p.screen, p.events, onTick)
	p.program = tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.program.Run()
	return err
}

type stdoutMsg string

type tuiModel struct {
	screen *tuiScreen
	events *eventqueue.Queue
	onTick func()
	log    viewport.Model
	lines  []string
	width  int
	height int
}

func newTUIModel(screen *tuiScreen, events *eventqueue.Queue, onTick func()) tuiModel {
	return tuiModel{
		screen: screen,
		events: events,
		onTick: onTick,
		log:    viewport.New(40, 8),
	}
}

type tickMsg struct{}

func tuiTick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.log.Width = msg.Width
		m.log.Height = 8
		return m, nil

	case stdoutMsg:
		m.lines = append(m.lines, string(msg))
		if len(m.lines) > 500 {
			m.lines = m.lines[len(m.lines)-500:]
		}
		m.log.SetContent(joinLines(m.lines))
		m.log.GotoBottom()
		return m, nil

	case tickMsg:
		if m.onTick != nil {
			m.onTick()
		}
		m.events.Push(eventqueue.Update())
		return m, tuiTick()

	case tea.KeyMsg:
		if k, ok := keyCodeForTeaKey(msg); ok {
			m.events.Push(eventqueue.KeyDownEvent(k))
			m.events.Push(eventqueue.KeyUpEvent(k))
			return m, nil
		}
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m tuiModel) View() string {
	frame := renderFramebuffer(m.screen.snapshot(), m.screen.Width(), m.screen.Height())
	title := lipgloss.NewStyle().Bold(true).Render("palmrunner")
	return lipgloss.JoinVertical(lipgloss.Left, title, frame, m.log.View())
}

// renderFramebuffer downsamples the guest's pixel buffer into a grid of
// lipgloss-colored spaces, two guest pixels per terminal cell row (terminal
// glyphs are roughly twice as tall as wide).
func renderFramebuffer(pixels []uint32, width, height int) string {
	if len(pixels) != width*height || width == 0 || height == 0 {
		return ""
	}

	var b []byte
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			argb := pixels[y*width+x]
			style := lipgloss.NewStyle().Background(lipgloss.Color(hexColor(argb)))
			b = append(b, []byte(style.Render(" "))...)
		}
		b = append(b, '\n')
	}
	return string(b)
}

func hexColor(argb uint32) string {
	r := (argb >> 16) & 0xFF
	g := (argb >> 8) & 0xFF
	bl := argb & 0xFF
	return fmt.Sprintf("#%02x%02x%02x", r, g, bl)
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// keyCodeForTeaKey maps the subset of terminal keys the WIPI keypad
// contract understands onto eventqueue KeyCodes.
func keyCodeForTeaKey(msg tea.KeyMsg) (eventqueue.KeyCode, bool) {
	switch msg.Type {
	case tea.KeyUp:
		return eventqueue.KeyUp, true
	case tea.KeyDown:
		return eventqueue.KeyDown, true
	case tea.KeyLeft:
		return eventqueue.KeyLeft, true
	case tea.KeyRight:
		return eventqueue.KeyRight, true
	case tea.KeyEnter:
		return eventqueue.KeyOK, true
	}
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		switch r := msg.Runes[0]; {
		case r >= '0' && r <= '9':
			return eventqueue.Key0 + eventqueue.KeyCode(r-'0'), true
		case r == '#':
			return eventqueue.KeyHash, true
		case r == '*':
			return eventqueue.KeyStar, true
		}
	}
	return 0, false
}
