package protocol

import (
	"encoding/binary"
	"errors"

	"dinputproxy/internal/dinput"
)

// Binary state feed. One packet per poll:
//
//	[type(1)] [seq(4)] [timestamp(8)] [JoyState(48)] = 61 bytes
//
// Sent as websocket binary frames alongside the JSON control messages.
const (
	StatePacketType uint8 = 0x01

	StateHeaderSize = 13
	StatePacketSize = StateHeaderSize + dinput.JoyStateSize
)

var ErrBadStatePacket = errors.New("protocol: malformed state packet")

// StatePacket is one sample of the live device state feed.
type StatePacket struct {
	Seq       uint32
	Timestamp int64 // Unix ms
	State     dinput.JoyState
}

// EncodeStatePacket serializes a state sample to wire format.
func EncodeStatePacket(pkt *StatePacket) []byte {
	buf := make([]byte, StatePacketSize)
	buf[0] = StatePacketType
	binary.BigEndian.PutUint32(buf[1:5], pkt.Seq)
	binary.BigEndian.PutUint64(buf[5:13], uint64(pkt.Timestamp))
	copy(buf[StateHeaderSize:], dinput.EncodeJoyState(&pkt.State))
	return buf
}

// DecodeStatePacket parses a wire-format state sample.
func DecodeStatePacket(data []byte) (*StatePacket, error) {
	if len(data) != StatePacketSize || data[0] != StatePacketType {
		return nil, ErrBadStatePacket
	}
	pkt := &StatePacket{
		Seq:       binary.BigEndian.Uint32(data[1:5]),
		Timestamp: int64(binary.BigEndian.Uint64(data[5:13])),
	}
	state, ok := dinput.DecodeJoyState(data[StateHeaderSize:])
	if !ok {
		return nil, ErrBadStatePacket
	}
	pkt.State = state
	return pkt, nil
}
