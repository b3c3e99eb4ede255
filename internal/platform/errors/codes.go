// Package errors provides structured error handling for the battleship runtime.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidLayout marks a malformed or rule-violating fleet description.
	CodeInvalidLayout Code = "INVALID_LAYOUT"

	// CodeProtocolFault marks a malformed or unexpected wire message.
	CodeProtocolFault Code = "PROTOCOL_FAULT"

	// CodeCommunicationFault marks a timeout, I/O error or closed stream.
	CodeCommunicationFault Code = "COMMUNICATION_FAULT"

	// CodeCoordinateFault marks a shot coordinate that is out of range or
	// already fired upon.
	CodeCoordinateFault Code = "COORDINATE_FAULT"
)

// Retryable reports whether faults with this code enter the bounded
// retransmission path instead of failing immediately.
func (c Code) Retryable() bool {
	switch c {
	case CodeProtocolFault, CodeCommunicationFault:
		return true
	default:
		return false
	}
}

// Local reports whether faults with this code are handled on the local side
// and must never be reported to the peer.
func (c Code) Local() bool {
	switch c {
	case CodeCoordinateFault, CodeInvalidLayout:
		return true
	default:
		return false
	}
}
