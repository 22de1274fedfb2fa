// Package escapelexer turns raw PTY byte streams into a sequence of
// TerminalChar events: plain bytes, control bytes, recognized CSI commands,
// and OSC 133 shell-integration markers. State is kept per file descriptor so
// a partial sequence at the end of one read is resumed on the next.
package escapelexer

import (
	"io"
	"strconv"
)

// Key values at or above keyBase identify a recognized escape command or OSC
// marker rather than a raw byte. Values below keyBase are raw byte values
// (0-255); ch == 0 marks an unrecognized CSI sequence whose raw bytes are
// preserved in Sequence.
const keyBase = 256

const (
	KeyClear = keyBase + iota
	KeyDCH
	KeyEL
	KeyCUP
	KeyVPA
	KeyCUB
	KeyCUF
	KeyCUU
	KeyCUD
	KeyRI
	KeyICH
	KeyOSCPromptStart // OSC 133;A
	KeyOSCPromptEnd   // OSC 133;B
	KeyOSCPreExec     // OSC 133;C
	KeyOSCCmdFinish   // OSC 133;D[;N]
)

// TerminalChar is the lexer's output unit.
type TerminalChar struct {
	Ch       int
	Args     []int
	Sequence []byte
}

// LexerState is the per-fd partial-sequence state. in_osc implies in_escape.
type LexerState struct {
	InEscape  bool
	InOSC     bool
	EscapeSeq []byte
	OSCSeq    []byte
}

// EscapeLexer owns one LexerState per fd for the life of the multiplexer.
type EscapeLexer struct {
	states map[int]*LexerState
}

// New returns an EscapeLexer with no fds registered yet.
func New() *EscapeLexer {
	return &EscapeLexer{states: make(map[int]*LexerState)}
}

func (l *EscapeLexer) stateFor(fd int) *LexerState {
	st, ok := l.states[fd]
	if !ok {
		st = &LexerState{}
		l.states[fd] = st
	}
	return st
}

// Forget releases the state for fd. Call after the fd is closed.
func (l *EscapeLexer) Forget(fd int) {
	delete(l.states, fd)
}

// ReadAndEscape performs one read of at most 1024 bytes from r, decodes it
// using fd's persistent state, and returns the produced events along with the
// raw byte count. A non-positive count signals EOF or error, matching the
// read(2) convention the decoder is built around.
func (l *EscapeLexer) ReadAndEscape(fd int, r io.Reader) ([]TerminalChar, int, error) {
	buf := make([]byte, 1024)
	n, err := r.Read(buf)
	if n <= 0 {
		return nil, n, err
	}
	return l.Decode(fd, buf[:n]), n, err
}

// Decode applies the byte-by-byte decoding rules to data using (and
// mutating) fd's persistent state, without performing any I/O itself.
func (l *EscapeLexer) Decode(fd int, data []byte) []TerminalChar {
	st := l.stateFor(fd)
	var out []TerminalChar
	for _, b := range data {
		l.step(st, b, &out)
	}
	return out
}

func (l *EscapeLexer) step(st *LexerState, b byte, out *[]TerminalChar) {
	switch {
	case st.InOSC:
		l.stepOSC(st, b, out)
	case st.InEscape:
		l.stepEscape(st, b, out)
	case b == 0x1B:
		st.InEscape = true
		st.EscapeSeq = append(st.EscapeSeq[:0], b)
	default:
		*out = append(*out, TerminalChar{Ch: int(b), Sequence: []byte{b}})
	}
}

// stepEscape accumulates the byte after ESC. The very first byte after ESC
// decides whether this opens an OSC string; everything else accumulates as a
// CSI (or CSI-shaped) buffer until a final byte is seen.
func (l *EscapeLexer) stepEscape(st *LexerState, b byte, out *[]TerminalChar) {
	if len(st.EscapeSeq) == 1 && b == ']' {
		st.InOSC = true
		st.OSCSeq = st.OSCSeq[:0]
		st.EscapeSeq = append(st.EscapeSeq, b)
		return
	}

	st.EscapeSeq = append(st.EscapeSeq, b)
	if isCSIFinal(b) {
		tc := decodeCSI(st.EscapeSeq)
		*out = append(*out, tc)
		st.InEscape = false
		st.EscapeSeq = st.EscapeSeq[:0]
	}
}

func isCSIFinal(b byte) bool {
	if b == 0x9C {
		return true
	}
	return b >= 0x40 && b <= 0x7E && b != '['
}

func (l *EscapeLexer) stepOSC(st *LexerState, b byte, out *[]TerminalChar) {
	if b == 0x07 {
		l.finishOSC(st, out)
		return
	}
	if b == 0x1B {
		// Tentatively treat as the start of ST (ESC \). If the next byte
		// isn't '\\', it is folded back into the payload below.
		st.OSCSeq = append(st.OSCSeq, b)
		return
	}
	if len(st.OSCSeq) > 0 && st.OSCSeq[len(st.OSCSeq)-1] == 0x1B {
		if b == 0x5C {
			st.OSCSeq = st.OSCSeq[:len(st.OSCSeq)-1]
			l.finishOSC(st, out)
			return
		}
		// Not a real ST; the ESC was payload, keep accumulating.
	}
	st.OSCSeq = append(st.OSCSeq, b)
}

func (l *EscapeLexer) finishOSC(st *LexerState, out *[]TerminalChar) {
	tc, ok := decodeOSC133(st.OSCSeq)
	if ok {
		*out = append(*out, tc)
	}
	st.InOSC = false
	st.InEscape = false
	st.EscapeSeq = st.EscapeSeq[:0]
	st.OSCSeq = st.OSCSeq[:0]
}

// decodeOSC133 matches payload against "133;X[;N]" with X in {A,B,C,D}.
func decodeOSC133(payload []byte) (TerminalChar, bool) {
	s := string(payload)
	if len(s) < 5 || s[:4] != "133;" {
		return TerminalChar{}, false
	}
	rest := s[4:]
	if len(rest) == 0 {
		return TerminalChar{}, false
	}
	marker := rest[0]
	var ch int
	switch marker {
	case 'A':
		ch = KeyOSCPromptStart
	case 'B':
		ch = KeyOSCPromptEnd
	case 'C':
		ch = KeyOSCPreExec
	case 'D':
		ch = KeyOSCCmdFinish
	default:
		return TerminalChar{}, false
	}
	tc := TerminalChar{Ch: ch, Sequence: append([]byte(nil), payload...)}
	if marker == 'D' && len(rest) > 2 && rest[1] == ';' {
		if n, err := strconv.Atoi(rest[2:]); err == nil {
			tc.Args = []int{n}
		}
	}
	return tc, true
}

// decodeCSI dispatches a complete CSI/escape sequence (including the leading
// ESC byte[s]) against the recognized table. Unrecognized sequences produce
// ch == 0 with the raw bytes preserved.
func decodeCSI(seq []byte) TerminalChar {
	raw := append([]byte(nil), seq...)
	if len(seq) == 2 && seq[1] == 'M' {
		return TerminalChar{Ch: KeyRI, Sequence: raw}
	}
	if len(seq) < 2 || seq[1] != '[' {
		return TerminalChar{Ch: 0, Sequence: raw}
	}
	final := seq[len(seq)-1]
	params := string(seq[2 : len(seq)-1])

	switch final {
	case 'J':
		if params == "" {
			return TerminalChar{Ch: KeyClear, Sequence: raw}
		}
	case 'P':
		return numericCSI(KeyDCH, params, raw)
	case 'K':
		if params == "" {
			return TerminalChar{Ch: KeyEL, Sequence: raw}
		}
	case 'H':
		return cupCSI(params, raw)
	case 'd':
		return numericCSI(KeyVPA, params, raw)
	case 'D':
		return numericCSI(KeyCUB, params, raw)
	case 'C':
		return numericCSI(KeyCUF, params, raw)
	case 'A':
		return numericCSI(KeyCUU, params, raw)
	case 'B':
		return numericCSI(KeyCUD, params, raw)
	case '@':
		return numericCSI(KeyICH, params, raw)
	}
	return TerminalChar{Ch: 0, Sequence: raw}
}

// numericCSI parses a single optional numeric parameter, dropping it (but
// preserving recognition) on conversion failure.
func numericCSI(ch int, params string, raw []byte) TerminalChar {
	tc := TerminalChar{Ch: ch, Sequence: raw}
	if params == "" {
		return tc
	}
	if n, err := strconv.Atoi(params); err == nil {
		tc.Args = []int{n}
	}
	return tc
}

// cupCSI parses CUP's "H" (no args) or "y;x H" (both present) form.
func cupCSI(params string, raw []byte) TerminalChar {
	tc := TerminalChar{Ch: KeyCUP, Sequence: raw}
	if params == "" {
		return tc
	}
	for i := 0; i < len(params); i++ {
		if params[i] == ';' {
			y, errY := strconv.Atoi(params[:i])
			x, errX := strconv.Atoi(params[i+1:])
			if errY == nil {
				tc.Args = append(tc.Args, y)
			}
			if errY == nil && errX == nil {
				tc.Args = append(tc.Args, x)
			}
			return tc
		}
	}
	return tc
}
