// Package hostterm wraps a character-cell rendering surface (gdamore/tcell)
// behind the narrow pad/cursor/color-pair API the multiplexer needs: init in
// raw/noecho/nodelay mode, offscreen pads blitted to a screen rectangle, and
// named color-pair attributes, mirroring the curses API spec.md §4.4 allows
// substituting.
package hostterm

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Pad is an offscreen character-cell buffer, blitted to a HostTerminal
// rectangle via Blit (the equivalent of ncurses' pad + prefresh).
type Pad struct {
	rows, cols int
	cells      [][]rune
	styles     [][]tcell.Style
}

// NewPad allocates a blank h x w pad.
func NewPad(h, w int) *Pad {
	p := &Pad{rows: h, cols: w}
	p.cells = make([][]rune, h)
	p.styles = make([][]tcell.Style, h)
	for y := 0; y < h; y++ {
		p.cells[y] = make([]rune, w)
		p.styles[y] = make([]tcell.Style, w)
		for x := 0; x < w; x++ {
			p.cells[y][x] = ' '
		}
	}
	return p
}

// SetCell writes one glyph into the pad at (y, x). Out-of-bounds writes are
// silently dropped, mirroring waddch's own bounds tolerance.
func (p *Pad) SetCell(y, x int, ch rune, style tcell.Style) {
	if y < 0 || y >= p.rows || x < 0 || x >= p.cols {
		return
	}
	p.cells[y][x] = ch
	p.styles[y][x] = style
}

// ClearRow blanks row y with style.
func (p *Pad) ClearRow(y int, style tcell.Style) {
	if y < 0 || y >= p.rows {
		return
	}
	for x := 0; x < p.cols; x++ {
		p.cells[y][x] = ' '
		p.styles[y][x] = style
	}
}

// HostTerminal is the multiplexer's singleton rendering surface.
type HostTerminal struct {
	Screen tcell.Screen

	ColorDivider    tcell.Style // magenta on default: focused divider half
	ColorDividerDim tcell.Style // white on default: unfocused divider half
	ColorStatusBar  tcell.Style // white on magenta: bottom status bar
}

// New initializes the screen in raw, noecho, nodelay mode and builds the
// standard color pairs.
func New() (*HostTerminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("new screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	s.SetStyle(tcell.StyleDefault)
	s.HideCursor()
	s.EnablePaste()

	h := &HostTerminal{
		Screen:          s,
		ColorDivider:    tcell.StyleDefault.Foreground(tcell.ColorPurple),
		ColorDividerDim: tcell.StyleDefault.Foreground(tcell.ColorWhite),
		ColorStatusBar:  tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorPurple),
	}
	return h, nil
}

// Dimensions returns the host terminal's current (rows, cols).
func (h *HostTerminal) Dimensions() (rows, cols int) {
	cols, rows = h.Screen.Size()
	return rows, cols
}

// NewPad allocates an offscreen pad of h rows by w columns.
func (h *HostTerminal) NewPad(rows, cols int) *Pad {
	return NewPad(rows, cols)
}

// Blit copies pad rows [padY, padY+(maxY-minY)) into the screen rectangle
// [minY,minX)-[maxY,maxX), mirroring ncurses' prefresh.
func (h *HostTerminal) Blit(pad *Pad, padY, padX, minY, minX, maxY, maxX int) {
	rows := maxY - minY
	cols := maxX - minX
	for y := 0; y < rows; y++ {
		py := padY + y
		if py < 0 || py >= pad.rows {
			continue
		}
		for x := 0; x < cols; x++ {
			px := padX + x
			if px < 0 || px >= pad.cols {
				continue
			}
			h.Screen.SetContent(minX+x, minY+y, pad.cells[py][px], nil, pad.styles[py][px])
		}
	}
}

// ClearRect blanks the screen rectangle with style (used for the divider and
// status bar rows, and to blank a pane hidden by zoom).
func (h *HostTerminal) ClearRect(minY, minX, maxY, maxX int, style tcell.Style) {
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			h.Screen.SetContent(x, y, ' ', nil, style)
		}
	}
}

// PutString writes s starting at (y, x) with style.
func (h *HostTerminal) PutString(y, x int, s string, style tcell.Style) {
	for i, r := range s {
		h.Screen.SetContent(x+i, y, r, nil, style)
	}
}

// ShowCursor positions and reveals the hardware cursor.
func (h *HostTerminal) ShowCursor(y, x int) {
	h.Screen.ShowCursor(x, y)
}

// HideCursor hides the hardware cursor (used when focus is NONE).
func (h *HostTerminal) HideCursor() {
	h.Screen.HideCursor()
}

// Show flushes all pending SetContent calls to the real terminal.
func (h *HostTerminal) Show() {
	h.Screen.Show()
}

// Clear blanks the entire screen.
func (h *HostTerminal) Clear() {
	h.Screen.Clear()
}

// Teardown restores the terminal. Safe to call multiple times.
func (h *HostTerminal) Teardown() {
	h.Screen.Fini()
}
