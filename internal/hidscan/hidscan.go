// Package hidscan enumerates attached HID game controllers for the monitor.
// It works at the raw HID level, so it can report controllers whether or not
// a game currently has them open.
package hidscan

import (
	"fmt"
	"sort"

	"github.com/sstallion/go-hid"

	"dinputproxy/internal/protocol"
)

// Generic Desktop usage page and the joystick/gamepad usages on it.
const (
	usagePageGenericDesktop = 0x01
	usageJoystick           = 0x04
	usageGamepad            = 0x05
)

// sixDOFProducts lists vendor/product pairs of controllers known to expose
// motion sensors alongside the stick axes. These show up to games as
// first-person class devices with rotational axes.
var sixDOFProducts = map[uint32]string{
	packID(0x054C, 0x05C4): "DualShock 4",
	packID(0x054C, 0x09CC): "DualShock 4 (v2)",
	packID(0x054C, 0x0CE6): "DualSense",
	packID(0x057E, 0x2009): "Switch Pro Controller",
}

func packID(vid, pid uint16) uint32 {
	return uint32(vid)<<16 | uint32(pid)
}

// IsSixDOFClass reports whether a vendor/product pair is a known
// motion-sensing controller.
func IsSixDOFClass(vid, pid uint16) bool {
	_, ok := sixDOFProducts[packID(vid, pid)]
	return ok
}

// isController reports whether a HID interface looks like a game
// controller rather than a mouse or keyboard.
func isController(info *hid.DeviceInfo) bool {
	if info.UsagePage != usagePageGenericDesktop {
		return false
	}
	return info.Usage == usageJoystick || info.Usage == usageGamepad
}

// describe builds the wire payload for one enumerated interface.
func describe(info *hid.DeviceInfo) protocol.DevicePayload {
	product := info.ProductStr
	if known, ok := sixDOFProducts[packID(info.VendorID, info.ProductID)]; ok && product == "" {
		product = known
	}
	return protocol.DevicePayload{
		VendorID:    info.VendorID,
		ProductID:   info.ProductID,
		Product:     product,
		Path:        info.Path,
		SixDOFClass: IsSixDOFClass(info.VendorID, info.ProductID),
	}
}

// List enumerates attached game controllers. Each physical device appears
// once even if it exposes several HID interfaces.
func List() ([]protocol.DevicePayload, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("hidscan: init: %w", err)
	}

	seen := make(map[uint32]bool)
	var out []protocol.DevicePayload
	err := hid.Enumerate(0, 0, func(info *hid.DeviceInfo) error {
		if !isController(info) {
			return nil
		}
		id := packID(info.VendorID, info.ProductID)
		if seen[id] {
			return nil
		}
		seen[id] = true
		out = append(out, describe(info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hidscan: enumerate: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].VendorID != out[j].VendorID {
			return out[i].VendorID < out[j].VendorID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}
