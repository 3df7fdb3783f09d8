package proxy_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	ole "github.com/go-ole/go-ole"

	"dinputproxy/internal/dinput"
	"dinputproxy/internal/proxy"
	"dinputproxy/internal/sim"
)

func newWrappedDevice(t *testing.T, dev *sim.Device) *proxy.DeviceProxy {
	t.Helper()
	return proxy.NewDeviceProxy(dev, dinput.IIDIDirectInputDevice8A, proxy.DefaultAxes, nil)
}

// stateWriter returns a StateFunc that fills recognized buffers with the
// given state and other sizes with a fixed pattern.
func stateWriter(s dinput.JoyState) func(buf []byte) error {
	return func(buf []byte) error {
		if len(buf) == dinput.JoyStateSize {
			copy(buf, dinput.EncodeJoyState(&s))
			return nil
		}
		for i := range buf {
			buf[i] = byte(i + 1)
		}
		return nil
	}
}

// TestSuppressionOnRecognizedBuffer verifies that a successful state fill
// through the proxy zeroes exactly the two rotational fields and nothing else.
func TestSuppressionOnRecognizedBuffer(t *testing.T) {
	want := dinput.JoyState{
		X: 100, Y: -300, Z: 42,
		RotX: 150, RotY: -200, RotZ: 777,
		POV: 9000,
	}
	want.Slider[0] = 11
	want.Slider[1] = -22
	want.Buttons[0] = 0x80
	want.Buttons[11] = 0x80

	dev := sim.NewDevice(sim.SixDOFInstance("pad"))
	dev.StateFunc = stateWriter(want)
	p := newWrappedDevice(t, dev)

	buf := make([]byte, dinput.JoyStateSize)
	if err := p.GetDeviceState(buf); err != nil {
		t.Fatalf("GetDeviceState failed: %v", err)
	}

	got, ok := dinput.DecodeJoyState(buf)
	if !ok {
		t.Fatal("buffer no longer decodes as JoyState")
	}
	if got.RotX != 0 || got.RotY != 0 {
		t.Errorf("rotational axes not suppressed: RotX=%d RotY=%d", got.RotX, got.RotY)
	}

	want.RotX, want.RotY = 0, 0
	if got != want {
		t.Errorf("non-rotational fields changed:\n got %+v\nwant %+v", got, want)
	}
}

// TestPassthroughOnUnrecognizedSizes verifies that buffers of any other size
// come back byte-identical to what the real device wrote.
func TestPassthroughOnUnrecognizedSizes(t *testing.T) {
	for _, size := range []int{0, 1, 47, 49, 64, 80} {
		dev := sim.NewDevice(sim.SixDOFInstance("pad"))
		p := newWrappedDevice(t, dev)

		direct := make([]byte, size)
		if err := dev.GetDeviceState(direct); err != nil {
			t.Fatalf("size %d: direct call failed: %v", size, err)
		}

		proxied := make([]byte, size)
		if err := p.GetDeviceState(proxied); err != nil {
			t.Fatalf("size %d: proxied call failed: %v", size, err)
		}
		if !bytes.Equal(direct, proxied) {
			t.Errorf("size %d: proxied buffer differs from direct fill", size)
		}
	}
}

// TestStateFailureLeavesBufferUntouched verifies failures propagate unchanged
// and the caller's buffer is not modified.
func TestStateFailureLeavesBufferUntouched(t *testing.T) {
	wantErr := ole.NewError(0x8007001E)
	dev := sim.NewDevice(sim.SixDOFInstance("pad"))
	dev.StateFunc = func(buf []byte) error { return wantErr }
	p := newWrappedDevice(t, dev)

	buf := make([]byte, dinput.JoyStateSize)
	for i := range buf {
		buf[i] = 0xAB
	}
	err := p.GetDeviceState(buf)
	if err != wantErr {
		t.Fatalf("error not propagated unchanged: got %v", err)
	}
	for i, b := range buf {
		if b != 0xAB {
			t.Fatalf("buffer modified at offset %d on failure", i)
		}
	}
}

// TestSuppressionToggle verifies the process-wide toggle turns interposition
// into pure forwarding.
func TestSuppressionToggle(t *testing.T) {
	dev := sim.NewDevice(sim.SixDOFInstance("pad"))
	dev.StateFunc = stateWriter(dinput.JoyState{RotX: 150, RotY: -200})
	p := newWrappedDevice(t, dev)

	proxy.SetSuppression(false)
	defer proxy.SetSuppression(true)

	buf := make([]byte, dinput.JoyStateSize)
	if err := p.GetDeviceState(buf); err != nil {
		t.Fatalf("GetDeviceState failed: %v", err)
	}
	got, _ := dinput.DecodeJoyState(buf)
	if got.RotX != 150 || got.RotY != -200 {
		t.Errorf("suppression applied while disabled: RotX=%d RotY=%d", got.RotX, got.RotY)
	}
}

// TestAxesSelection verifies per-axis configuration.
func TestAxesSelection(t *testing.T) {
	dev := sim.NewDevice(sim.SixDOFInstance("pad"))
	dev.StateFunc = stateWriter(dinput.JoyState{RotX: 150, RotY: -200})
	p := proxy.NewDeviceProxy(dev, dinput.IIDIDirectInputDevice8A, proxy.Axes{RotX: true}, nil)

	buf := make([]byte, dinput.JoyStateSize)
	if err := p.GetDeviceState(buf); err != nil {
		t.Fatalf("GetDeviceState failed: %v", err)
	}
	got, _ := dinput.DecodeJoyState(buf)
	if got.RotX != 0 {
		t.Errorf("RotX not suppressed: %d", got.RotX)
	}
	if got.RotY != -200 {
		t.Errorf("RotY suppressed despite config: %d", got.RotY)
	}
}

func newWrappedFactory(f *sim.Factory) *proxy.FactoryProxy {
	return proxy.NewFactoryProxy(f, dinput.IIDIDirectInput8A, proxy.DefaultTarget, proxy.DefaultAxes, nil)
}

// TestCreateDeviceWrapsMatchingClass verifies the wrap decision by identity:
// matching devices come back as proxies, non-matching ones as the real handle.
func TestCreateDeviceWrapsMatchingClass(t *testing.T) {
	match := newWrappedFactory(sim.NewFactory(sim.SixDOFInstance("pad")))
	dev, err := match.CreateDevice(nil)
	if err != nil {
		t.Fatalf("CreateDevice failed: %v", err)
	}
	if _, ok := dev.(*proxy.DeviceProxy); !ok {
		t.Errorf("matching device not wrapped: got %T", dev)
	}

	other := sim.SixDOFInstance("stick")
	other.DevType = dinput.MakeDevType(0x14, 0x01) // plain joystick
	plain := newWrappedFactory(sim.NewFactory(other))
	dev, err = plain.CreateDevice(nil)
	if err != nil {
		t.Fatalf("CreateDevice failed: %v", err)
	}
	if _, ok := dev.(*sim.Device); !ok {
		t.Errorf("non-matching device wrapped: got %T", dev)
	}
}

// TestCreateDeviceDescriptorQueryOnce verifies the capability check happens
// exactly once, at creation.
func TestCreateDeviceDescriptorQueryOnce(t *testing.T) {
	f := sim.NewFactory(sim.SixDOFInstance("pad"))
	fp := newWrappedFactory(f)
	dev, err := fp.CreateDevice(nil)
	if err != nil {
		t.Fatalf("CreateDevice failed: %v", err)
	}
	inner := f.Created()[0]
	if got := inner.Calls("GetDeviceInfo"); got != 1 {
		t.Fatalf("GetDeviceInfo called %d times at creation, want 1", got)
	}

	buf := make([]byte, dinput.JoyStateSize)
	for i := 0; i < 5; i++ {
		if err := dev.GetDeviceState(buf); err != nil {
			t.Fatalf("GetDeviceState failed: %v", err)
		}
	}
	if got := inner.Calls("GetDeviceInfo"); got != 1 {
		t.Errorf("GetDeviceInfo re-queried after creation: %d calls", got)
	}
}

// TestCreateDeviceFailOpen verifies a failed capability query still returns
// the real device, unwrapped.
func TestCreateDeviceFailOpen(t *testing.T) {
	f := sim.NewFactory(sim.SixDOFInstance("pad"))
	f.NewDeviceFunc = func(instance *ole.GUID) (*sim.Device, error) {
		d := sim.NewDevice(sim.SixDOFInstance("pad"))
		d.InfoErr = ole.NewError(dinput.EFail)
		return d, nil
	}
	fp := newWrappedFactory(f)

	dev, err := fp.CreateDevice(nil)
	if err != nil {
		t.Fatalf("CreateDevice failed despite fail-open policy: %v", err)
	}
	if _, ok := dev.(*sim.Device); !ok {
		t.Errorf("device wrapped despite failed capability query: got %T", dev)
	}
}

// TestCreateDeviceErrorPropagates verifies creation failures pass through
// unchanged with no wrapping attempt.
func TestCreateDeviceErrorPropagates(t *testing.T) {
	f := sim.NewFactory(sim.SixDOFInstance("pad"))
	f.CreateErr = ole.NewError(dinput.EFail)
	fp := newWrappedFactory(f)

	dev, err := fp.CreateDevice(nil)
	if err != f.CreateErr {
		t.Fatalf("creation error not propagated unchanged: got %v", err)
	}
	if dev != nil {
		t.Errorf("device returned alongside error: %v", dev)
	}
}

// TestDeviceReleaseTeardown verifies the wrapper is destroyed exactly once,
// exactly when the real reference count reaches zero.
func TestDeviceReleaseTeardown(t *testing.T) {
	dev := sim.NewDevice(sim.SixDOFInstance("pad")) // one outstanding ref
	p := newWrappedDevice(t, dev)

	destroyed := 0
	p.OnDestroy = func() { destroyed++ }

	const extra = 3
	for i := 0; i < extra; i++ {
		if got := p.AddRef(); got != uint32(i+2) {
			t.Fatalf("AddRef returned %d, want %d", got, i+2)
		}
	}

	for i := 0; i < extra; i++ {
		if got := p.Release(); got == 0 {
			t.Fatalf("count reached zero early at release %d", i+1)
		}
		if destroyed != 0 {
			t.Fatalf("wrapper destroyed while references remain")
		}
	}

	if got := p.Release(); got != 0 {
		t.Fatalf("final release returned %d, want 0", got)
	}
	if destroyed != 1 {
		t.Errorf("wrapper destroyed %d times, want exactly once", destroyed)
	}
	if dev.Refs() != 0 {
		t.Errorf("real device leaked %d references", dev.Refs())
	}
}

// TestDeviceIdentityQuery verifies self-return with a reference increment for
// the proxied identity, and forwarding for anything else.
func TestDeviceIdentityQuery(t *testing.T) {
	dev := sim.NewDevice(sim.SixDOFInstance("pad"))
	p := newWrappedDevice(t, dev)

	for _, iid := range []*ole.GUID{dinput.IIDIUnknown, dinput.IIDIDirectInputDevice8A} {
		before := dev.Refs()
		got, err := p.QueryInterface(iid)
		if err != nil {
			t.Fatalf("QueryInterface(%s) failed: %v", iid.String(), err)
		}
		if got != proxy.Unknown(p) {
			t.Errorf("QueryInterface(%s) did not return the proxy itself", iid.String())
		}
		if dev.Refs() != before+1 {
			t.Errorf("QueryInterface(%s) did not increment the shared count", iid.String())
		}
	}

	if _, err := p.QueryInterface(dinput.IIDIDirectInput8A); err == nil {
		t.Error("unrelated identity resolved instead of forwarding to the real object")
	}
}

// TestFactoryIdentityAndTeardown mirrors the device-side identity and
// refcount behavior on the factory proxy.
func TestFactoryIdentityAndTeardown(t *testing.T) {
	f := sim.NewFactory(sim.SixDOFInstance("pad"))
	fp := newWrappedFactory(f)

	destroyed := 0
	fp.OnDestroy = func() { destroyed++ }

	got, err := fp.QueryInterface(dinput.IIDIDirectInput8A)
	if err != nil {
		t.Fatalf("QueryInterface failed: %v", err)
	}
	if got != proxy.Unknown(fp) {
		t.Error("identity query did not return the factory proxy itself")
	}
	if f.Refs() != 2 {
		t.Fatalf("factory refs = %d after identity query, want 2", f.Refs())
	}

	if n := fp.Release(); n != 1 {
		t.Fatalf("first release returned %d, want 1", n)
	}
	if destroyed != 0 {
		t.Fatal("factory wrapper destroyed early")
	}
	if n := fp.Release(); n != 0 {
		t.Fatalf("final release returned %d, want 0", n)
	}
	if destroyed != 1 {
		t.Errorf("factory wrapper destroyed %d times, want exactly once", destroyed)
	}
}

// TestPureForwarding spot-checks that non-interposed operations reach the
// real device with no interference.
func TestPureForwarding(t *testing.T) {
	dev := sim.NewDevice(sim.SixDOFInstance("pad"))
	p := newWrappedDevice(t, dev)

	if err := p.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := p.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if err := p.Unacquire(); err != nil {
		t.Fatalf("Unacquire: %v", err)
	}
	var caps dinput.Capabilities
	if err := p.GetCapabilities(&caps); err != nil {
		t.Fatalf("GetCapabilities: %v", err)
	}
	if caps.Axes != 6 {
		t.Errorf("capabilities not forwarded: %+v", caps)
	}
	for _, op := range []string{"Acquire", "Poll", "Unacquire", "GetCapabilities"} {
		if dev.Calls(op) != 1 {
			t.Errorf("%s forwarded %d times, want 1", op, dev.Calls(op))
		}
	}
}

// TestSuppressRotationSizeGuard exercises the shared suppression core
// directly with the documented example values.
func TestSuppressRotationSizeGuard(t *testing.T) {
	s := dinput.JoyState{RotX: 150, RotY: -200, Z: 5}
	buf := dinput.EncodeJoyState(&s)
	proxy.SuppressRotation(buf, proxy.DefaultAxes)

	if v := int32(binary.LittleEndian.Uint32(buf[dinput.OffRotX:])); v != 0 {
		t.Errorf("RotX = %d, want 0", v)
	}
	if v := int32(binary.LittleEndian.Uint32(buf[dinput.OffRotY:])); v != 0 {
		t.Errorf("RotY = %d, want 0", v)
	}

	short := bytes.Repeat([]byte{0x55}, dinput.JoyStateSize-1)
	proxy.SuppressRotation(short, proxy.DefaultAxes)
	for i, b := range short {
		if b != 0x55 {
			t.Fatalf("short buffer modified at %d", i)
		}
	}
}
