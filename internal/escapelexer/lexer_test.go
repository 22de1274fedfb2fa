package escapelexer

import (
	"reflect"
	"testing"
)

func TestDecodeMinimalCUP(t *testing.T) {
	l := New()
	out := l.Decode(0, []byte("\x1b[16;1H"))
	if len(out) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(out), out)
	}
	if out[0].Ch != KeyCUP {
		t.Fatalf("expected KeyCUP, got %d", out[0].Ch)
	}
	if !reflect.DeepEqual(out[0].Args, []int{16, 1}) {
		t.Fatalf("expected args [16 1], got %v", out[0].Args)
	}
}

func TestDecodeMixedPlainAndCUP(t *testing.T) {
	l := New()
	out := l.Decode(0, []byte("Test\x1b[16;1HTest"))
	if len(out) != 9 {
		t.Fatalf("expected 9 events, got %d: %+v", len(out), out)
	}
	want := []byte("Test")
	for i, b := range want {
		if out[i].Ch != int(b) {
			t.Fatalf("event %d: expected %q, got %d", i, b, out[i].Ch)
		}
	}
	if out[4].Ch != KeyCUP || !reflect.DeepEqual(out[4].Args, []int{16, 1}) {
		t.Fatalf("event 4: expected CUP(16,1), got %+v", out[4])
	}
	for i, b := range want {
		if out[5+i].Ch != int(b) {
			t.Fatalf("event %d: expected %q, got %d", 5+i, b, out[5+i].Ch)
		}
	}
}

func TestDecodeOSC133CmdFinishWithExitCode(t *testing.T) {
	l := New()
	out := l.Decode(0, []byte("\x1b]133;D;2\x07"))
	if len(out) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(out), out)
	}
	if out[0].Ch != KeyOSCCmdFinish {
		t.Fatalf("expected KeyOSCCmdFinish, got %d", out[0].Ch)
	}
	if !reflect.DeepEqual(out[0].Args, []int{2}) {
		t.Fatalf("expected args [2], got %v", out[0].Args)
	}
}

func TestDecodeOSC133MarkersWithoutArgs(t *testing.T) {
	cases := []struct {
		payload string
		want    int
	}{
		{"\x1b]133;A\x07", KeyOSCPromptStart},
		{"\x1b]133;B\x07", KeyOSCPromptEnd},
		{"\x1b]133;C\x07", KeyOSCPreExec},
	}
	for _, c := range cases {
		l := New()
		out := l.Decode(0, []byte(c.payload))
		if len(out) != 1 || out[0].Ch != c.want {
			t.Fatalf("%q: expected single event %d, got %+v", c.payload, c.want, out)
		}
	}
}

func TestDecodeOSCTerminatedByST(t *testing.T) {
	l := New()
	out := l.Decode(0, []byte("\x1b]133;A\x1b\\"))
	if len(out) != 1 || out[0].Ch != KeyOSCPromptStart {
		t.Fatalf("expected single KeyOSCPromptStart event, got %+v", out)
	}
}

func TestDecodeUnrecognizedOSCDiscarded(t *testing.T) {
	l := New()
	out := l.Decode(0, []byte("\x1b]0;some title\x07X"))
	if len(out) != 1 || out[0].Ch != int('X') {
		t.Fatalf("expected only the trailing X, got %+v", out)
	}
}

func TestDecodeUnrecognizedCSIPreservesSequence(t *testing.T) {
	l := New()
	out := l.Decode(0, []byte("\x1b[J\x1b[99x"))
	if len(out) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(out), out)
	}
	if out[0].Ch != KeyClear {
		t.Fatalf("expected KeyClear, got %d", out[0].Ch)
	}
	if out[1].Ch != 0 {
		t.Fatalf("expected unrecognized ch=0, got %d", out[1].Ch)
	}
	if string(out[1].Sequence) != "\x1b[99x" {
		t.Fatalf("expected raw sequence preserved, got %q", out[1].Sequence)
	}
}

func TestDecodeReverseIndex(t *testing.T) {
	l := New()
	out := l.Decode(0, []byte("\x1bM"))
	if len(out) != 1 || out[0].Ch != KeyRI {
		t.Fatalf("expected KeyRI, got %+v", out)
	}
}

func TestDecodeSplitAcrossCallsMatchesSingleChunk(t *testing.T) {
	input := []byte("Test\x1b[16;1HTest\x1b]133;D;2\x07more")

	whole := New().Decode(0, input)

	for split := 0; split <= len(input); split++ {
		l := New()
		var got []TerminalChar
		got = append(got, l.Decode(0, input[:split])...)
		got = append(got, l.Decode(0, input[split:])...)
		if len(got) != len(whole) {
			t.Fatalf("split at %d: expected %d events, got %d", split, len(whole), len(got))
		}
		for i := range whole {
			if got[i].Ch != whole[i].Ch || !reflect.DeepEqual(got[i].Args, whole[i].Args) {
				t.Fatalf("split at %d: event %d mismatch: got %+v want %+v", split, i, got[i], whole[i])
			}
		}
	}
}

func TestDecodeNumericParamDropOnFailure(t *testing.T) {
	l := New()
	out := l.Decode(0, []byte("\x1b[?@"))
	if len(out) != 1 {
		t.Fatalf("expected 1 event, got %d", len(out))
	}
	if out[0].Ch != KeyICH {
		t.Fatalf("command stays recognized even when its param doesn't parse, got %+v", out[0])
	}
	if out[0].Args != nil {
		t.Fatalf("unparseable param should be dropped, got %v", out[0].Args)
	}
}

func TestPerFdStateIsIndependent(t *testing.T) {
	l := New()
	l.Decode(1, []byte("\x1b["))
	out := l.Decode(2, []byte("A"))
	if len(out) != 1 || out[0].Ch != int('A') {
		t.Fatalf("fd 2 should be unaffected by fd 1's partial state, got %+v", out)
	}
	out2 := l.Decode(1, []byte("H"))
	if len(out2) != 1 || out2[0].Ch != KeyCUP {
		t.Fatalf("fd 1 should resume its partial CSI sequence, got %+v", out2)
	}
}
