package dinput

import (
	"testing"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// TestJoyStateLayout pins the recognized state layout to exactly 48 bytes
// with the rotational axes at the documented offsets.
func TestJoyStateLayout(t *testing.T) {
	if got := unsafe.Sizeof(JoyState{}); got != JoyStateSize {
		t.Fatalf("JoyState size = %d, want %d", got, JoyStateSize)
	}
	if got := unsafe.Offsetof(JoyState{}.RotX); got != OffRotX {
		t.Errorf("RotX offset = %d, want %d", got, OffRotX)
	}
	if got := unsafe.Offsetof(JoyState{}.RotY); got != OffRotY {
		t.Errorf("RotY offset = %d, want %d", got, OffRotY)
	}
}

// TestJoyStateRoundTrip checks encode/decode symmetry.
func TestJoyStateRoundTrip(t *testing.T) {
	s := JoyState{
		X: -1, Y: 2, Z: -3,
		RotX: 150, RotY: -200, RotZ: 6,
		POV: 27000,
	}
	s.Slider[0] = 7
	s.Slider[1] = -8
	s.Buttons[3] = 0x80

	buf := EncodeJoyState(&s)
	if len(buf) != JoyStateSize {
		t.Fatalf("encoded length = %d, want %d", len(buf), JoyStateSize)
	}
	got, ok := DecodeJoyState(buf)
	if !ok {
		t.Fatal("decode rejected a recognized-size buffer")
	}
	if got != s {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, s)
	}

	if _, ok := DecodeJoyState(buf[:JoyStateSize-1]); ok {
		t.Error("decode accepted a truncated buffer")
	}
}

// TestDevTypeWord checks category/sub-category packing.
func TestDevTypeWord(t *testing.T) {
	w := MakeDevType(DevTypeFirstPerson, SubTypeSixDOF)
	if DevTypeCategory(w) != DevTypeFirstPerson {
		t.Errorf("category = 0x%02x", DevTypeCategory(w))
	}
	if DevTypeSubCategory(w) != SubTypeSixDOF {
		t.Errorf("sub-category = 0x%02x", DevTypeSubCategory(w))
	}
	// High bytes must not bleed into the extraction.
	if DevTypeCategory(w|0xFFFF0000) != DevTypeFirstPerson {
		t.Error("category extraction reads beyond the low byte")
	}
}

// TestDeviceIIDFor checks the factory-to-device identity pairing.
func TestDeviceIIDFor(t *testing.T) {
	if got := DeviceIIDFor(IIDIDirectInput8A); !ole.IsEqualGUID(got, IIDIDirectInputDevice8A) {
		t.Errorf("ANSI factory mapped to %s", got.String())
	}
	if got := DeviceIIDFor(IIDIDirectInput8W); !ole.IsEqualGUID(got, IIDIDirectInputDevice8W) {
		t.Errorf("Unicode factory mapped to %s", got.String())
	}
}

// TestResultConversions checks the HRESULT/error mapping both ways.
func TestResultConversions(t *testing.T) {
	if err := ErrorOf(SOK); err != nil {
		t.Errorf("success mapped to error %v", err)
	}
	if err := ErrorOf(SFalse); err != nil {
		t.Errorf("S_FALSE mapped to error %v", err)
	}

	err := ErrorOf(EFail)
	if err == nil {
		t.Fatal("failure code mapped to nil error")
	}
	if got := ResultOf(err); got != EFail {
		t.Errorf("round trip changed code: 0x%08x", got)
	}

	if got := ResultOf(errUnsupportedStub{}); got != EFail {
		t.Errorf("plain error mapped to 0x%08x, want E_FAIL", got)
	}
	if got := ResultOf(nil); got != SOK {
		t.Errorf("nil error mapped to 0x%08x", got)
	}
}

type errUnsupportedStub struct{}

func (errUnsupportedStub) Error() string { return "stub" }
