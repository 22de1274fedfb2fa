package screen

import (
	"testing"

	"ishell/internal/escapelexer"
	"ishell/internal/scrollpad"
)

func rect(rows, cols int) Rect {
	return Rect{MinY: 0, MinX: 0, MaxY: rows, MaxX: cols}
}

func TestHandleCharCUP(t *testing.T) {
	s := New(0, 0, rect(24, 80))
	s.HandleChar(escapelexer.TerminalChar{Ch: escapelexer.KeyCUP, Args: []int{16, 1}})
	if s.Pad.CursorY != 15 || s.Pad.CursorX != 0 {
		t.Fatalf("expected cursor at (15,0), got (%d,%d)", s.Pad.CursorY, s.Pad.CursorX)
	}
}

func TestHandleCharPlainBytesAndControls(t *testing.T) {
	s := New(0, 0, rect(24, 80))
	for _, b := range []byte("hi\r\n") {
		s.HandleChar(escapelexer.TerminalChar{Ch: int(b), Sequence: []byte{b}})
	}
	s.HandleChar(escapelexer.TerminalChar{Ch: int('X'), Sequence: []byte{'X'}})
	ch, _ := s.Pad.Cell(0, 0)
	if ch != 'h' {
		t.Fatalf("expected 'h' at (0,0), got %q", ch)
	}
	if s.Pad.CursorY != 1 || s.Pad.CursorX != 1 {
		t.Fatalf("expected cursor at (1,1) after CRLF+X, got (%d,%d)", s.Pad.CursorY, s.Pad.CursorX)
	}
}

func TestHandleCharIgnoresBELAndSI(t *testing.T) {
	s := New(0, 0, rect(24, 80))
	before := s.Pad.CursorX
	s.HandleChar(escapelexer.TerminalChar{Ch: 0x07})
	s.HandleChar(escapelexer.TerminalChar{Ch: 0x0F})
	if s.Pad.CursorX != before {
		t.Fatal("BEL/SI must not move the cursor")
	}
}

// buildWidePad constructs the scenario-6 fixture: "ABCDE" wrapped into "FG"
// at n_cols=5.
func buildWidePad(t *testing.T) *Screen {
	t.Helper()
	s := New(0, 0, rect(24, 5))
	for _, ch := range "ABCDEFG" {
		s.Pad.Write(ch)
	}
	return s
}

func TestReflowWiden(t *testing.T) {
	old := buildWidePad(t)
	if old.Pad.LineInfoAt(0) != scrollpad.LineUnwrapped || old.Pad.LineInfoAt(1) != scrollpad.LineWrapped {
		t.Fatalf("fixture setup wrong: line0=%v line1=%v", old.Pad.LineInfoAt(0), old.Pad.LineInfoAt(1))
	}

	ns := Reflow(old, 10, 24, rect(24, 10))

	want := "ABCDEFG"
	for i, r := range want {
		ch, _ := ns.Pad.Cell(0, i)
		if ch != r {
			t.Fatalf("cell (0,%d): got %q, want %q", i, ch, r)
		}
	}
	if ns.Pad.LineInfoAt(0) != scrollpad.LineUnwrapped {
		t.Fatalf("expected line 0 unwrapped, got %v", ns.Pad.LineInfoAt(0))
	}
	if ns.Pad.LineInfoAt(1) != scrollpad.LineUntouched {
		t.Fatalf("expected line 1 untouched, got %v", ns.Pad.LineInfoAt(1))
	}
}

func TestReflowPreservesParagraphBreaks(t *testing.T) {
	old := New(0, 0, rect(24, 20))
	for _, ch := range "hello" {
		old.Pad.Write(ch)
	}
	old.Pad.Newline()
	for _, ch := range "world" {
		old.Pad.Write(ch)
	}

	ns := Reflow(old, 5, 24, rect(24, 5))
	if ns.Pad.LineInfoAt(0) != scrollpad.LineUnwrapped {
		t.Fatalf("expected first paragraph row unwrapped, got %v", ns.Pad.LineInfoAt(0))
	}
	// The 15 unplaced trailing cells of the old 20-column "hello" row are
	// flushed before the paragraph break and fill rows 1-3 at width 5, so
	// the second paragraph starts on row 4.
	if ns.Pad.LineInfoAt(4) != scrollpad.LineUnwrapped {
		t.Fatalf("expected second paragraph to start a new unwrapped row, got %v", ns.Pad.LineInfoAt(4))
	}
	ch, _ := ns.Pad.Cell(4, 0)
	if ch != 'w' {
		t.Fatalf("expected 'w' at start of second paragraph row, got %q", ch)
	}
}
