// Package protocol defines the wire messages between the monitor server and
// its clients: JSON control messages over the websocket, plus a compact
// binary encoding for the high-rate device state feed.
package protocol

// MessageType identifies a JSON control message.
type MessageType string

const (
	// TypeStatus carries the monitor status snapshot.
	TypeStatus MessageType = "status"

	// TypeSuppression notifies of or requests a suppression toggle.
	TypeSuppression MessageType = "suppression"

	// TypeDevices carries the enumerated controller list.
	TypeDevices MessageType = "devices"

	// TypeError reports a server-side failure to the client.
	TypeError MessageType = "error"
)

// Message is the JSON envelope for control traffic.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// StatusPayload is the payload for TypeStatus.
type StatusPayload struct {
	Version            string `json:"version"`
	SuppressionEnabled bool   `json:"suppression_enabled"`
	TargetDevType      uint32 `json:"target_dev_type"`
	SuppressRotX       bool   `json:"suppress_rot_x"`
	SuppressRotY       bool   `json:"suppress_rot_y"`
	Source             string `json:"source"` // "system" or "simulated"
}

// SuppressionPayload is the payload for TypeSuppression.
type SuppressionPayload struct {
	Enabled bool `json:"enabled"`
}

// DevicePayload describes one enumerated controller.
type DevicePayload struct {
	VendorID    uint16 `json:"vendor_id"`
	ProductID   uint16 `json:"product_id"`
	Product     string `json:"product"`
	Path        string `json:"path,omitempty"`
	SixDOFClass bool   `json:"six_dof_class"`
}

// ErrorPayload is the payload for TypeError.
type ErrorPayload struct {
	Error string `json:"error"`
}
