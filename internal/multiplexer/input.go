package multiplexer

import (
	"github.com/gdamore/tcell/v2"

	"ishell/internal/escapelexer"
)

// handleKeyEvent dispatches one keystroke decoded off the host terminal's
// own event channel.
func (m *Multiplexer) handleKeyEvent(tc escapelexer.TerminalChar) {
	m.handleInput(tc)
	m.updateHostCursor()
	m.Host.Show()
}

// handleInput implements the command-prefix dispatch: the first keystroke
// after CommandPrefix selects a multiplexer command instead of reaching a
// child; every other keystroke is forwarded to the focused pane, or
// intercepted for manual-scroll navigation.
func (m *Multiplexer) handleInput(tc escapelexer.TerminalChar) {
	if !m.WaitingForCommand && tc.Ch == int(m.CommandPrefix) {
		m.WaitingForCommand = true
		return
	}

	if m.WaitingForCommand {
		m.WaitingForCommand = false
		m.runCommand(tc)
		return
	}

	if m.Focus == FocusNone {
		return
	}

	pad := m.Screens[m.Focus].Pad
	if pad.InManualScroll() {
		switch tc.Ch {
		case escapelexer.KeyCUU:
			pad.ManualScrollUp()
			m.renderScreen(m.Focus)
		case escapelexer.KeyCUD:
			pad.ManualScrollDown()
			m.renderScreen(m.Focus)
		}
		// Every other key is discarded while frozen on the scrollback: only
		// the arrows navigate it, and nothing reaches the child until it is
		// released via the command prefix again.
		return
	}

	m.Children[m.Focus].Master.Write(tc.Sequence)
}

// runCommand dispatches one ^B-prefixed command byte.
func (m *Multiplexer) runCommand(tc escapelexer.TerminalChar) {
	switch tc.Ch {
	case int('\t'):
		m.switchFocus()
	case int('z'), int('Z'):
		m.toggleZoom()
	case int('['):
		m.toggleManualScroll()
	}
}

// keyToTerminalChar converts one event off the host terminal's own input
// channel into the same TerminalChar shape child-output decoding produces,
// so handleInput never has to care which side a keystroke came from. tcell
// owns the controlling terminal's input fd (it started reading it the
// moment Screen.Init ran); re-reading stdin directly alongside it would
// split keystrokes between two readers, so this is the only place raw
// keystrokes enter the multiplexer.
func keyToTerminalChar(ev *tcell.EventKey) (escapelexer.TerminalChar, bool) {
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		return escapelexer.TerminalChar{Ch: int(r), Sequence: []byte(string(r))}, true
	}

	switch ev.Key() {
	case tcell.KeyUp:
		return escapelexer.TerminalChar{Ch: escapelexer.KeyCUU, Sequence: []byte("\x1b[A")}, true
	case tcell.KeyDown:
		return escapelexer.TerminalChar{Ch: escapelexer.KeyCUD, Sequence: []byte("\x1b[B")}, true
	case tcell.KeyRight:
		return escapelexer.TerminalChar{Ch: escapelexer.KeyCUF, Sequence: []byte("\x1b[C")}, true
	case tcell.KeyLeft:
		return escapelexer.TerminalChar{Ch: escapelexer.KeyCUB, Sequence: []byte("\x1b[D")}, true
	case tcell.KeyEnter:
		return escapelexer.TerminalChar{Ch: '\r', Sequence: []byte{'\r'}}, true
	case tcell.KeyTab:
		return escapelexer.TerminalChar{Ch: '\t', Sequence: []byte{'\t'}}, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return escapelexer.TerminalChar{Ch: 0x7F, Sequence: []byte{0x7F}}, true
	case tcell.KeyEsc:
		return escapelexer.TerminalChar{Ch: 0x1B, Sequence: []byte{0x1B}}, true
	case tcell.KeyHome:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[1~")}, true
	case tcell.KeyEnd:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[4~")}, true
	case tcell.KeyPgUp:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[5~")}, true
	case tcell.KeyPgDn:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[6~")}, true
	case tcell.KeyInsert:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[2~")}, true
	case tcell.KeyDelete:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[3~")}, true
	case tcell.KeyF1:
		return escapelexer.TerminalChar{Sequence: []byte("\x1bOP")}, true
	case tcell.KeyF2:
		return escapelexer.TerminalChar{Sequence: []byte("\x1bOQ")}, true
	case tcell.KeyF3:
		return escapelexer.TerminalChar{Sequence: []byte("\x1bOR")}, true
	case tcell.KeyF4:
		return escapelexer.TerminalChar{Sequence: []byte("\x1bOS")}, true
	case tcell.KeyF5:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[15~")}, true
	case tcell.KeyF6:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[17~")}, true
	case tcell.KeyF7:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[18~")}, true
	case tcell.KeyF8:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[19~")}, true
	case tcell.KeyF9:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[20~")}, true
	case tcell.KeyF10:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[21~")}, true
	case tcell.KeyF11:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[23~")}, true
	case tcell.KeyF12:
		return escapelexer.TerminalChar{Sequence: []byte("\x1b[24~")}, true
	}

	if ev.Key() >= tcell.KeyCtrlA && ev.Key() <= tcell.KeyCtrlZ {
		b := byte(ev.Key())
		return escapelexer.TerminalChar{Ch: int(b), Sequence: []byte{b}}, true
	}

	return escapelexer.TerminalChar{}, false
}
