package hidscan

import (
	"testing"

	"github.com/sstallion/go-hid"
)

// TestIsSixDOFClass checks the known motion controller table.
func TestIsSixDOFClass(t *testing.T) {
	cases := []struct {
		vid, pid uint16
		want     bool
	}{
		{0x054C, 0x05C4, true},  // DualShock 4
		{0x054C, 0x09CC, true},  // DualShock 4 v2
		{0x054C, 0x0CE6, true},  // DualSense
		{0x057E, 0x2009, true},  // Switch Pro
		{0x054C, 0x0BA0, false}, // Sony dongle, no sensor usage
		{0x046D, 0xC216, false}, // plain gamepad
	}
	for _, c := range cases {
		if got := IsSixDOFClass(c.vid, c.pid); got != c.want {
			t.Errorf("IsSixDOFClass(%04x, %04x) = %v, want %v", c.vid, c.pid, got, c.want)
		}
	}
}

// TestIsController filters out non-controller HID interfaces.
func TestIsController(t *testing.T) {
	cases := []struct {
		name string
		info hid.DeviceInfo
		want bool
	}{
		{"joystick", hid.DeviceInfo{UsagePage: 0x01, Usage: 0x04}, true},
		{"gamepad", hid.DeviceInfo{UsagePage: 0x01, Usage: 0x05}, true},
		{"mouse", hid.DeviceInfo{UsagePage: 0x01, Usage: 0x02}, false},
		{"keyboard", hid.DeviceInfo{UsagePage: 0x01, Usage: 0x06}, false},
		{"vendor page", hid.DeviceInfo{UsagePage: 0xFF00, Usage: 0x04}, false},
	}
	for _, c := range cases {
		if got := isController(&c.info); got != c.want {
			t.Errorf("%s: isController = %v, want %v", c.name, got, c.want)
		}
	}
}

// TestDescribeFallbackName uses the product table when the descriptor string
// is empty.
func TestDescribeFallbackName(t *testing.T) {
	info := hid.DeviceInfo{VendorID: 0x054C, ProductID: 0x0CE6, Path: "/dev/hidraw3"}
	got := describe(&info)
	if got.Product != "DualSense" {
		t.Errorf("product = %q, want fallback name", got.Product)
	}
	if !got.SixDOFClass {
		t.Error("DualSense should be flagged as motion class")
	}

	info.ProductStr = "Wireless Controller"
	if got := describe(&info); got.Product != "Wireless Controller" {
		t.Errorf("product = %q, descriptor string should win", got.Product)
	}
}
