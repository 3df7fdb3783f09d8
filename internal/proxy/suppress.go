package proxy

import (
	"encoding/binary"
	"sync/atomic"

	"dinputproxy/internal/dinput"
)

// Target selects which devices get wrapped: a created device is proxied when
// its reported category and sub-category both match.
type Target struct {
	Category    byte
	SubCategory byte
}

// DefaultTarget matches first-person six-degrees-of-freedom controllers, the
// class whose rotational axes some games misread as primary stick input.
var DefaultTarget = Target{
	Category:    dinput.DevTypeFirstPerson,
	SubCategory: dinput.SubTypeSixDOF,
}

// Matches reports whether a device type word names the targeted class.
func (t Target) Matches(devType uint32) bool {
	return dinput.DevTypeCategory(devType) == t.Category &&
		dinput.DevTypeSubCategory(devType) == t.SubCategory
}

// Axes selects which rotational fields GetDeviceState rewrites.
type Axes struct {
	RotX bool
	RotY bool
}

// DefaultAxes suppresses both rotational axes.
var DefaultAxes = Axes{RotX: true, RotY: true}

// suppressionOn gates suppression process-wide so the monitor can flip it at
// runtime without tearing down proxies. Non-zero means enabled.
var suppressionOn atomic.Bool

func init() {
	suppressionOn.Store(true)
}

// SetSuppression enables or disables state suppression process-wide.
func SetSuppression(enabled bool) {
	suppressionOn.Store(enabled)
}

// SuppressionEnabled reports the current process-wide suppression state.
func SuppressionEnabled() bool {
	return suppressionOn.Load()
}

// SuppressRotation zeroes the configured rotational axis fields in a state
// buffer. The rewrite applies only when the buffer is exactly the recognized
// layout size; any other shape is unrecognized and left untouched.
func SuppressRotation(buf []byte, axes Axes) {
	if len(buf) != dinput.JoyStateSize {
		return
	}
	if !suppressionOn.Load() {
		return
	}
	if axes.RotX {
		binary.LittleEndian.PutUint32(buf[dinput.OffRotX:], 0)
	}
	if axes.RotY {
		binary.LittleEndian.PutUint32(buf[dinput.OffRotY:], 0)
	}
}
