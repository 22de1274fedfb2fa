// Package screen binds a ScrollPad to a host-terminal viewport rectangle,
// translating decoded TerminalChar events into pad operations and owning the
// reflow algorithm used to rebuild a pad under new dimensions.
package screen

import (
	"ishell/internal/escapelexer"
	"ishell/internal/scrollpad"
)

// Rect is the host-terminal rectangle a Screen's visible window blits into.
// An invalid rect (all fields -1) means the screen does not blit at all,
// used when a pane is hidden behind a zoomed sibling.
type Rect struct {
	MinY, MinX, MaxY, MaxX int
}

// InvalidRect marks a screen that should not be rendered.
var InvalidRect = Rect{MinY: -1, MinX: -1, MaxY: -1, MaxX: -1}

func (r Rect) Valid() bool {
	return r.MinY >= 0 && r.MinX >= 0 && r.MaxY >= 0 && r.MaxX >= 0
}

func (r Rect) Rows() int {
	return r.MaxY - r.MinY
}

func (r Rect) Cols() int {
	return r.MaxX - r.MinX
}

// Screen bundles a ScrollPad with the child's PTY and the host-terminal
// rectangle its visible window is blitted into.
type Screen struct {
	Pad      *scrollpad.ScrollPad
	MasterFD int
	Pid      int
	Rect     Rect
}

// New creates a Screen sized to rect (or (0,0) before dimensions are known).
func New(masterFD, pid int, rect Rect) *Screen {
	rows, cols := rect.Rows(), rect.Cols()
	if rows <= 0 {
		rows = 0
	}
	if cols <= 0 {
		cols = 0
	}
	return &Screen{
		Pad:      scrollpad.New(cols, rows),
		MasterFD: masterFD,
		Pid:      pid,
		Rect:     rect,
	}
}

// HandleChar dispatches one decoded TerminalChar to the backing pad.
func (s *Screen) HandleChar(tc escapelexer.TerminalChar) {
	switch tc.Ch {
	case 0x07, 0x0F:
		// BEL, SI: consumed and ignored.
		return
	case escapelexer.KeyClear:
		s.Pad.Clear()
	case escapelexer.KeyDCH:
		s.Pad.Erase(arg(tc, 0, 1))
	case escapelexer.KeyEL:
		s.Pad.EraseToEOL()
	case escapelexer.KeyCUP:
		y, x := 1, 1
		if len(tc.Args) == 2 {
			y, x = tc.Args[0], tc.Args[1]
		}
		s.Pad.Move(s.Pad.Translate(y, x))
	case escapelexer.KeyVPA:
		y := arg(tc, 0, 1)
		s.Pad.Move(s.Pad.TranslateY(y), s.Pad.CursorX)
	case escapelexer.KeyCUB:
		s.Pad.CursorBack(arg(tc, 0, 1))
	case escapelexer.KeyCUF:
		s.Pad.CursorForward(arg(tc, 0, 1))
	case escapelexer.KeyCUU:
		s.Pad.CursorUp(arg(tc, 0, 1))
	case escapelexer.KeyCUD:
		s.Pad.CursorDown(arg(tc, 0, 1))
	case escapelexer.KeyRI:
		s.Pad.ScrollUp()
	case escapelexer.KeyICH:
		s.Pad.InsertNext(arg(tc, 0, 1))
	case escapelexer.KeyOSCPromptStart, escapelexer.KeyOSCPromptEnd,
		escapelexer.KeyOSCPreExec, escapelexer.KeyOSCCmdFinish:
		// Retained as markers only; no effect on the pad.
		return
	case 0:
		// Unrecognized CSI: discarded.
		return
	default:
		if tc.Ch >= 0 && tc.Ch < 256 {
			s.handleByte(byte(tc.Ch))
		}
	}
}

func (s *Screen) handleByte(b byte) {
	switch b {
	case '\r':
		s.Pad.CursorReturn()
	case '\n':
		s.Pad.Newline()
	case 0x08:
		s.Pad.CursorBack(1)
	default:
		if b >= 0x20 {
			s.Pad.Write(rune(b))
		}
	}
}

func arg(tc escapelexer.TerminalChar, i, def int) int {
	if i < len(tc.Args) {
		return tc.Args[i]
	}
	return def
}

// Refresh returns the rows of the pad currently visible through the
// screen's rectangle, for blitting by the host terminal.
func (s *Screen) Refresh() (rows [][]rune, userPlaced [][]bool, cursorY, cursorX int, ok bool) {
	if !s.Rect.Valid() {
		return nil, nil, 0, 0, false
	}
	start := s.Pad.ViewportStart()
	n := s.Rect.Rows()
	rows = make([][]rune, n)
	userPlaced = make([][]bool, n)
	for i := 0; i < n; i++ {
		row := make([]rune, s.Pad.NCols)
		placed := make([]bool, s.Pad.NCols)
		for x := 0; x < s.Pad.NCols; x++ {
			row[x], placed[x] = s.Pad.Cell(start+i, x)
		}
		rows[i] = row
		userPlaced[i] = placed
	}
	return rows, userPlaced, s.Pad.CursorY - start, s.Pad.CursorX, true
}

// Reflow builds a new Screen at (nCols, nLines) / rect from old, replaying
// old's content so that paragraph breaks and user-placed glyphs survive the
// new width.
func Reflow(old *Screen, nCols, nLines int, rect Rect) *Screen {
	ns := New(old.MasterFD, old.Pid, rect)
	ns.Pad = scrollpad.New(nCols, nLines)

	type bufCell struct {
		ch rune
	}
	var buf []bufCell
	flush := func() {
		for _, c := range buf {
			ns.Pad.Write(c.ch)
		}
		buf = buf[:0]
	}

	emittedAny := false
	oldCursorY, oldCursorX := old.Pad.CursorY, old.Pad.CursorX
	haveCursor := false
	var newCursorY, newCursorX int

	for y := 0; y < old.Pad.PadLines; y++ {
		li := old.Pad.LineInfoAt(y)
		if li == scrollpad.LineUntouched {
			continue
		}
		if li == scrollpad.LineUnwrapped && emittedAny {
			flush()
			ns.Pad.Newline()
		}
		emittedAny = true

		for x := 0; x < old.Pad.NCols; x++ {
			ch, placed := old.Pad.Cell(y, x)
			buf = append(buf, bufCell{ch: ch})
			if placed {
				flush()
			}
			if y == oldCursorY && x == oldCursorX {
				haveCursor = true
				newCursorY, newCursorX = ns.Pad.CursorY, ns.Pad.CursorX
			}
		}
	}

	if haveCursor {
		ns.Pad.CursorY = newCursorY
		ns.Pad.CursorX = newCursorX
		ns.Pad.CursorWrapped = false
	}
	return ns
}
