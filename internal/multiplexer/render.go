package multiplexer

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// renderScreen blits pane i's currently visible rows into its host rectangle.
// A pane hidden by zoom (invalid rect) is skipped.
func (m *Multiplexer) renderScreen(i int) {
	s := m.Screens[i]
	rows, _, _, _, ok := s.Refresh()
	if !ok {
		return
	}
	pad := m.Host.NewPad(len(rows), s.Rect.Cols())
	for y, row := range rows {
		for x, ch := range row {
			pad.SetCell(y, x, ch, tcell.StyleDefault)
		}
	}
	m.Host.Blit(pad, 0, 0, s.Rect.MinY, s.Rect.MinX, s.Rect.MaxY, s.Rect.MaxX)
}

// updateHostCursor positions the hardware cursor at the focused pane's
// translated cursor cell, or hides it when no pane is focused or the
// focused pane is not currently rendered.
func (m *Multiplexer) updateHostCursor() {
	if m.Focus == FocusNone {
		m.Host.HideCursor()
		return
	}
	s := m.Screens[m.Focus]
	if !s.Rect.Valid() {
		m.Host.HideCursor()
		return
	}
	_, _, cy, cx, ok := s.Refresh()
	if !ok {
		m.Host.HideCursor()
		return
	}
	m.Host.ShowCursor(s.Rect.MinY+cy, s.Rect.MinX+cx)
}

// repaintChrome draws the divider row (highlighted on the focused pane's
// half) and the status bar naming each child's liveness and pid.
func (m *Multiplexer) repaintChrome() {
	_, cols := m.Host.Dimensions()
	half := cols / 2

	leftStyle, rightStyle := m.Host.ColorDividerDim, m.Host.ColorDividerDim
	switch m.Focus {
	case PaneAssistant:
		leftStyle = m.Host.ColorDivider
	case PaneShell:
		rightStyle = m.Host.ColorDivider
	}

	dividerPad := m.Host.NewPad(1, cols)
	for x := 0; x < cols; x++ {
		style := leftStyle
		if x >= half {
			style = rightStyle
		}
		dividerPad.SetCell(0, x, '─', style)
	}
	m.Host.Blit(dividerPad, 0, 0, m.DividerRow, 0, m.DividerRow+1, cols)

	m.Host.ClearRect(m.StatusRow, 0, m.StatusRow+1, cols, m.Host.ColorStatusBar)
	m.Host.PutString(m.StatusRow, 0, m.statusLabel(), m.Host.ColorStatusBar)
}

// statusLabel reports each child's pid and whether it has exited, the
// liveness indicator pulled from the original prototype's status bar.
func (m *Multiplexer) statusLabel() string {
	label := " ishell"
	names := [numPanes]string{PaneAssistant: "assistant", PaneShell: "shell"}
	for i, name := range names {
		c := m.Children[i]
		if c == nil {
			continue
		}
		state := "running"
		if c.Exited() {
			state = "exited"
		}
		label += fmt.Sprintf("  %s[%d]:%s", name, c.Pid(), state)
	}
	return label
}
