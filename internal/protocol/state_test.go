package protocol

import (
	"errors"
	"testing"

	"dinputproxy/internal/dinput"
)

// TestStatePacketRoundTrip checks encode/decode symmetry for the binary feed.
func TestStatePacketRoundTrip(t *testing.T) {
	pkt := &StatePacket{
		Seq:       42,
		Timestamp: 1717171717171,
		State: dinput.JoyState{
			X: -5, Y: 10, RotX: 150, RotY: -200, POV: 9000,
		},
	}
	pkt.State.Buttons[2] = 0x80

	wire := EncodeStatePacket(pkt)
	if len(wire) != StatePacketSize {
		t.Fatalf("wire length = %d, want %d", len(wire), StatePacketSize)
	}

	got, err := DecodeStatePacket(wire)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if *got != *pkt {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, pkt)
	}
}

// TestStatePacketRejectsGarbage checks malformed inputs are refused.
func TestStatePacketRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		nil,
		make([]byte, StatePacketSize-1),
		make([]byte, StatePacketSize+1),
		func() []byte { // wrong type byte
			b := make([]byte, StatePacketSize)
			b[0] = 0x7F
			return b
		}(),
	}
	for i, data := range cases {
		if _, err := DecodeStatePacket(data); !errors.Is(err, ErrBadStatePacket) {
			t.Errorf("case %d: err = %v, want ErrBadStatePacket", i, err)
		}
	}
}
