// Package multiplexer drives the event loop that hosts two PTY children
// side by side: the assistant REPL (pane 0) and the OS shell (pane 1). It
// demultiplexes user keystrokes to the focused child, pipes each child's
// output through its Screen, and handles SIGWINCH-driven resize.
//
// There is no shared-state locking: one goroutine drains tcell's event
// channel (tcell owns the controlling terminal's input fd once Screen.Init
// has run, so nothing else may read it) and one reader goroutine per PTY
// master performs blocking reads, each handing its result to a funnel
// channel. Every byte that touches a Screen, a ScrollPad, or Multiplexer
// state is processed by the single goroutine running Run's select loop —
// Go's netpoller-backed blocking Read stands in for the single-threaded
// epoll loop this design is descended from.
package multiplexer

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"ishell/internal/escapelexer"
	"ishell/internal/hostterm"
	"ishell/internal/ptychild"
	"ishell/internal/screen"
)

// Pane indices. Index 0 is always the assistant, index 1 the shell.
const (
	PaneAssistant = 0
	PaneShell     = 1
	numPanes      = 2
)

// FocusNone means no pane currently receives forwarded keystrokes.
const FocusNone = -1

const defaultCommandPrefix = 0x02 // ^B

// Multiplexer owns every Screen, child PTY, and the HostTerminal session.
type Multiplexer struct {
	Host     *hostterm.HostTerminal
	Screens  [numPanes]*screen.Screen
	Children [numPanes]*ptychild.Child

	// SessionID identifies this run in log output. It has no meaning to any
	// other process; ishell has no daemon or attach protocol to share it with.
	SessionID string

	Lexer         *escapelexer.EscapeLexer
	CommandPrefix byte

	Focus             int
	ZoomedIn          bool
	WaitingForCommand bool

	DividerRow int
	StatusRow  int
}

// New builds a Multiplexer bound to host. commandPrefix of 0 defaults to ^B.
func New(host *hostterm.HostTerminal, commandPrefix byte) *Multiplexer {
	if commandPrefix == 0 {
		commandPrefix = defaultCommandPrefix
	}
	return &Multiplexer{
		Host:          host,
		SessionID:     uuid.NewString(),
		Lexer:         escapelexer.New(),
		CommandPrefix: commandPrefix,
		Focus:         FocusNone,
	}
}

// layout is the result of computing pane rectangles for the current host
// dimensions and zoom state.
type layout struct {
	rects      [numPanes]screen.Rect
	dividerRow int
	statusRow  int
}

// computeLayout implements the middle-row split: assistant on top, shell on
// bottom, a one-row divider, and a one-row status bar. While zoomed in on a
// focused pane, that pane takes every row but the status bar and the
// sibling's rectangle is marked invalid so it is skipped on render.
func (m *Multiplexer) computeLayout() layout {
	rows, cols := m.Host.Dimensions()
	middle := (rows - 1) / 2

	lo := layout{dividerRow: middle, statusRow: rows - 1}

	if m.ZoomedIn && m.Focus != FocusNone {
		full := screen.Rect{MinY: 0, MinX: 0, MaxY: rows - 1, MaxX: cols}
		lo.rects[m.Focus] = full
		lo.rects[otherPane(m.Focus)] = screen.InvalidRect
		return lo
	}

	lo.rects[PaneAssistant] = screen.Rect{MinY: 0, MinX: 0, MaxY: middle, MaxX: cols}
	lo.rects[PaneShell] = screen.Rect{MinY: middle + 1, MinX: 0, MaxY: rows - 1, MaxX: cols}
	return lo
}

func otherPane(p int) int {
	if p == PaneAssistant {
		return PaneShell
	}
	return PaneAssistant
}

// Start spawns both children at the current layout's dimensions and builds
// their Screens. Focus starts on the assistant pane so the session is
// immediately interactive.
func (m *Multiplexer) Start(shellCmd string, shellArgs []string, assistantCmd string, assistantArgs []string, assistantEnv map[string]string) error {
	lo := m.computeLayout()
	m.DividerRow, m.StatusRow = lo.dividerRow, lo.statusRow

	assistantRect := lo.rects[PaneAssistant]
	assistant, err := ptychild.Spawn(assistantCmd, assistantArgs, assistantRect.Rows(), assistantRect.Cols(), assistantEnv)
	if err != nil {
		return fmt.Errorf("spawn assistant: %w", err)
	}

	shellRect := lo.rects[PaneShell]
	shell, err := ptychild.Spawn(shellCmd, shellArgs, shellRect.Rows(), shellRect.Cols(), nil)
	if err != nil {
		assistant.Close()
		return fmt.Errorf("spawn shell: %w", err)
	}

	m.Children[PaneAssistant] = assistant
	m.Children[PaneShell] = shell
	m.Screens[PaneAssistant] = screen.New(int(assistant.Master.Fd()), assistant.Pid(), assistantRect)
	m.Screens[PaneShell] = screen.New(int(shell.Master.Fd()), shell.Pid(), shellRect)
	m.Focus = PaneAssistant

	// One goroutine per child reaps it as soon as it exits, so the status
	// bar's liveness indicator (see statusLabel) reflects reality and no
	// zombie is left behind once the master fd is closed at shutdown.
	go assistant.Wait()
	go shell.Wait()

	log.Printf("ishell: session %s started (assistant pid=%d, shell pid=%d)", m.SessionID, assistant.Pid(), shell.Pid())
	return nil
}

// readResult funnels one read batch from a child master into Run's single
// dispatch loop.
type readResult struct {
	pane int
	data []byte
	n    int
	err  error
}

func readLoop(r io.Reader, pane int, out chan<- readResult) {
	buf := make([]byte, 1024)
	for {
		n, err := r.Read(buf)
		var data []byte
		if n > 0 {
			data = append([]byte(nil), buf[:n]...)
		}
		out <- readResult{pane: pane, data: data, n: n, err: err}
		if n <= 0 {
			return
		}
	}
}

// pollInput is the sole reader of the controlling terminal's input: tcell
// itself took ownership of that fd in Screen.Init, so keystrokes are drained
// through its event channel rather than a second raw read of stdin, which
// would otherwise race tcell for the same bytes.
func pollInput(s tcell.Screen, out chan<- escapelexer.TerminalChar) {
	for {
		ev := s.PollEvent()
		if ev == nil {
			return
		}
		switch e := ev.(type) {
		case *tcell.EventKey:
			if tc, ok := keyToTerminalChar(e); ok {
				out <- tc
			}
		case *tcell.EventResize:
			// tcell already tracks its own size; SIGWINCH drives our resize.
		}
	}
}

// Run drives the event loop until the host terminal closes, a child exits,
// or a fatal read error occurs. It returns nil on clean shutdown.
func (m *Multiplexer) Run() error {
	events := make(chan readResult)
	keys := make(chan escapelexer.TerminalChar)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	go func() {
		pollInput(m.Host.Screen, keys)
		close(keys)
	}()
	go readLoop(m.Children[PaneAssistant].Master, PaneAssistant, events)
	go readLoop(m.Children[PaneShell].Master, PaneShell, events)

	m.Host.Clear()
	m.repaintChrome()
	for i := range m.Screens {
		m.renderScreen(i)
	}
	m.updateHostCursor()
	m.Host.Show()

	for {
		select {
		case tc, ok := <-keys:
			if !ok {
				return nil
			}
			m.handleKeyEvent(tc)
		case r := <-events:
			if r.n <= 0 {
				return nil
			}
			m.handleScreenOutput(r.pane, r.data)
		case <-sigCh:
			m.drainSignals(sigCh)
			m.resize()
		}
	}
}

func (m *Multiplexer) drainSignals(sigCh <-chan os.Signal) {
	for {
		select {
		case <-sigCh:
		default:
			return
		}
	}
}

// handleScreenOutput decodes newly read child bytes and replays them onto
// that pane's Screen, then repaints it.
func (m *Multiplexer) handleScreenOutput(pane int, data []byte) {
	fd := int(m.Children[pane].Master.Fd())
	for _, tc := range m.Lexer.Decode(fd, data) {
		m.Screens[pane].HandleChar(tc)
	}
	m.renderScreen(pane)
	m.updateHostCursor()
	m.Host.Show()
}

// resize recomputes the layout and rebuilds any Screen whose rectangle
// changed shape, reflowing its content and pushing the new size to its
// child. A rectangle that only moved (same rows/cols) is updated in place
// without reflowing.
func (m *Multiplexer) resize() {
	lo := m.computeLayout()
	m.DividerRow, m.StatusRow = lo.dividerRow, lo.statusRow

	for i, old := range m.Screens {
		rect := lo.rects[i]
		if !rect.Valid() {
			old.Rect = screen.InvalidRect
			continue
		}
		if old.Rect.Valid() && rect.Rows() == old.Rect.Rows() && rect.Cols() == old.Rect.Cols() {
			old.Rect = rect
			continue
		}
		m.Screens[i] = screen.Reflow(old, rect.Cols(), rect.Rows(), rect)
		if err := m.Children[i].Resize(rect.Rows(), rect.Cols()); err != nil {
			fmt.Fprintf(os.Stderr, "ishell: resize pane %d: %v\n", i, err)
		}
	}

	m.Host.Clear()
	m.repaintChrome()
	for i := range m.Screens {
		m.renderScreen(i)
	}
	m.updateHostCursor()
	m.Host.Show()
}

// switchFocus cycles NONE -> assistant -> shell -> assistant. A no-op while
// zoomed in, since the sibling pane isn't rendered to switch to.
func (m *Multiplexer) switchFocus() {
	if m.ZoomedIn {
		return
	}
	switch m.Focus {
	case FocusNone:
		m.Focus = PaneAssistant
	case PaneAssistant:
		m.Focus = PaneShell
	default:
		m.Focus = PaneAssistant
	}
	m.repaintChrome()
	m.updateHostCursor()
	m.Host.Show()
}

// toggleZoom flips zoom state and recomputes the layout.
func (m *Multiplexer) toggleZoom() {
	m.ZoomedIn = !m.ZoomedIn
	m.resize()
}

// toggleManualScroll enters or exits manual scroll on the focused pane.
func (m *Multiplexer) toggleManualScroll() {
	if m.Focus == FocusNone {
		return
	}
	pad := m.Screens[m.Focus].Pad
	if pad.InManualScroll() {
		pad.ManualScrollReset()
	} else {
		pad.ManualScrollEnter()
	}
	m.renderScreen(m.Focus)
	m.Host.Show()
}

// Shutdown releases every child and restores the host terminal. Closing each
// master delivers SIGHUP to its child; the Wait goroutine started in Start
// reaps it once it exits. Safe to call even if Start failed partway through.
func (m *Multiplexer) Shutdown() {
	for _, c := range m.Children {
		if c != nil {
			c.Close()
		}
	}
	m.Host.Teardown()
	log.Printf("ishell: session %s ended", m.SessionID)
}
