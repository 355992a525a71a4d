package input

import (
	"encoding/binary"
	"testing"
)

func TestDecodeEventExtractsKeyEvents(t *testing.T) {
	buf := make([]byte, rawInputEventSize)
	binary.LittleEndian.PutUint16(buf[16:18], evKey)
	binary.LittleEndian.PutUint16(buf[18:20], 30)
	binary.LittleEndian.PutUint32(buf[20:24], 1)

	ev, ok := decodeEvent(buf)
	if !ok {
		t.Fatalf("expected ok for EV_KEY event")
	}
	if ev.Code != 30 || ev.Value != 1 {
		t.Fatalf("got %+v, want code=30 value=1", ev)
	}
}

func TestDecodeEventIgnoresNonKeyTypes(t *testing.T) {
	buf := make([]byte, rawInputEventSize)
	binary.LittleEndian.PutUint16(buf[16:18], 0x03) // EV_ABS
	if _, ok := decodeEvent(buf); ok {
		t.Fatalf("expected non-EV_KEY event to be rejected")
	}
}

func TestDecodeEventRejectsShortBuffer(t *testing.T) {
	if _, ok := decodeEvent(make([]byte, 4)); ok {
		t.Fatalf("expected short buffer to be rejected")
	}
}

func TestIsPointerCode(t *testing.T) {
	cases := map[uint16]bool{
		0x110: true,  // BTN_LEFT
		0x14a: true,  // BTN_TOUCH
		30:    false, // KEY_A
		1:     false, // KEY_ESC
	}
	for code, want := range cases {
		if got := isPointerCode(code); got != want {
			t.Errorf("isPointerCode(%#x) = %v, want %v", code, got, want)
		}
	}
}
