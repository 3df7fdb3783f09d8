// Package dinput provides the DirectInput8 data model: interface identifiers,
// the joystick state layout, device type words and instance metadata. The COM
// binding to the genuine system library lives in the windows-only files.
package dinput

import (
	"encoding/binary"

	ole "github.com/go-ole/go-ole"
)

// Interface identifiers recognized by the wrapper. The A/W pair differs only
// in the text encoding of string-typed members; everything else about the
// interfaces is identical.
var (
	IIDIUnknown             = ole.NewGUID("{00000000-0000-0000-C000-000000000046}")
	IIDIDirectInput8A       = ole.NewGUID("{BF798030-483A-4DA2-AA99-5D64ED369700}")
	IIDIDirectInput8W       = ole.NewGUID("{BF798031-483A-4DA2-AA99-5D64ED369700}")
	IIDIDirectInputDevice8A = ole.NewGUID("{54D41080-DC15-4833-A41B-748F73A38179}")
	IIDIDirectInputDevice8W = ole.NewGUID("{54D41081-DC15-4833-A41B-748F73A38179}")
)

// DeviceIIDFor maps a factory interface identifier to the device interface
// identifier of the same text encoding. Unrecognized identifiers map to the
// ANSI device identity.
func DeviceIIDFor(factoryIID *ole.GUID) *ole.GUID {
	if ole.IsEqualGUID(factoryIID, IIDIDirectInput8W) {
		return IIDIDirectInputDevice8W
	}
	return IIDIDirectInputDevice8A
}

// Device type word layout: category in the low byte, sub-category in the
// second byte. Matches GET_DIDEVICE_TYPE / GET_DIDEVICE_SUBTYPE.
const (
	DevTypeFirstPerson = 0x18

	SubTypeUnknown = 0x01
	SubTypeSixDOF  = 0x02
	SubTypeShooter = 0x03
)

// DevTypeCategory extracts the coarse device category from a type word.
func DevTypeCategory(devType uint32) byte {
	return byte(devType)
}

// DevTypeSubCategory extracts the sub-category tag from a type word.
func DevTypeSubCategory(devType uint32) byte {
	return byte(devType >> 8)
}

// MakeDevType packs a category and sub-category into a device type word.
func MakeDevType(category, subCategory byte) uint32 {
	return uint32(category) | uint32(subCategory)<<8
}

// JoyState is the recognized fixed-layout joystick state record. The wrapper
// only ever rewrites RotX and RotY; every other field is owned by the real
// device. The layout is exactly JoyStateSize bytes with no padding.
type JoyState struct {
	X, Y, Z          int32
	RotX, RotY, RotZ int32
	Slider           [2]int32
	POV              uint32
	Buttons          [12]byte
}

// JoyStateSize is the exact byte size of JoyState. State buffers of any other
// size are passed through untouched.
const JoyStateSize = 48

// Byte offsets of the rotational axis fields within a JoyState buffer.
const (
	OffRotX = 12
	OffRotY = 16
)

// DecodeJoyState parses a state buffer of exactly JoyStateSize bytes.
func DecodeJoyState(buf []byte) (JoyState, bool) {
	if len(buf) != JoyStateSize {
		return JoyState{}, false
	}
	var s JoyState
	le := binary.LittleEndian
	s.X = int32(le.Uint32(buf[0:]))
	s.Y = int32(le.Uint32(buf[4:]))
	s.Z = int32(le.Uint32(buf[8:]))
	s.RotX = int32(le.Uint32(buf[12:]))
	s.RotY = int32(le.Uint32(buf[16:]))
	s.RotZ = int32(le.Uint32(buf[20:]))
	s.Slider[0] = int32(le.Uint32(buf[24:]))
	s.Slider[1] = int32(le.Uint32(buf[28:]))
	s.POV = le.Uint32(buf[32:])
	copy(s.Buttons[:], buf[36:48])
	return s, true
}

// EncodeJoyState serializes a JoyState into a JoyStateSize-byte buffer.
func EncodeJoyState(s *JoyState) []byte {
	buf := make([]byte, JoyStateSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], uint32(s.X))
	le.PutUint32(buf[4:], uint32(s.Y))
	le.PutUint32(buf[8:], uint32(s.Z))
	le.PutUint32(buf[12:], uint32(s.RotX))
	le.PutUint32(buf[16:], uint32(s.RotY))
	le.PutUint32(buf[20:], uint32(s.RotZ))
	le.PutUint32(buf[24:], uint32(s.Slider[0]))
	le.PutUint32(buf[28:], uint32(s.Slider[1]))
	le.PutUint32(buf[32:], s.POV)
	copy(buf[36:48], s.Buttons[:])
	return buf
}

// DeviceInstance is the capability descriptor returned by a device's
// GetDeviceInfo operation. Obtained once per created device to decide
// whether interposition applies.
type DeviceInstance struct {
	InstanceGUID ole.GUID
	ProductGUID  ole.GUID
	DevType      uint32
	InstanceName string
	ProductName  string
	UsagePage    uint16
	Usage        uint16
}

// Capabilities mirrors the device capability record (DIDEVCAPS).
type Capabilities struct {
	Flags               uint32
	DevType             uint32
	Axes                uint32
	Buttons             uint32
	POVs                uint32
	FFSamplePeriod      uint32
	FFMinTimeResolution uint32
	FirmwareRevision    uint32
	HardwareRevision    uint32
	FFDriverVersion     uint32
}

// ObjectInstance describes a single input object (axis, button, POV) on a
// device, as reported by EnumObjects and GetObjectInfo.
type ObjectInstance struct {
	GUIDType  ole.GUID
	Ofs       uint32
	Type      uint32
	Flags     uint32
	Name      string
	UsagePage uint16
	Usage     uint16
}

// EffectInfo describes a force-feedback effect supported by a device.
type EffectInfo struct {
	GUID          ole.GUID
	EffType       uint32
	StaticParams  uint32
	DynamicParams uint32
	Name          string
}

// FileEffect is a force-feedback effect read from or written to a file.
type FileEffect struct {
	GUID         ole.GUID
	FriendlyName string
	Data         []byte
}

// Opaque records the proxy forwards without inspecting. Layout only matters
// to the real implementation.
type (
	// DataFormat describes the shape of state buffers (DIDATAFORMAT).
	DataFormat struct {
		Flags      uint32
		DataSize   uint32
		ObjectData []byte
	}

	// EffectParams carries effect creation parameters (DIEFFECT).
	EffectParams struct {
		Flags    uint32
		Duration uint32
		Raw      []byte
	}

	// EffectEscape is a driver-specific escape request (DIEFFESCAPE).
	EffectEscape struct {
		Command    uint32
		InBuffer   []byte
		OutBuffer  []byte
		OutWritten uint32
	}

	// ActionFormat carries action-map configuration (DIACTIONFORMAT).
	ActionFormat struct {
		Genre uint32
		Raw   []byte
	}

	// ImageInfoHeader receives device image metadata (DIDEVICEIMAGEINFOHEADER).
	ImageInfoHeader struct {
		SizeImageInfo uint32
		Buttons       uint32
		Views         uint32
		Raw           []byte
	}
)
