package websocket

import "errors"

var (
	// ErrConnectionClosed indicates a write was attempted on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrWriteTimeout indicates the write buffer stayed full past the write timeout.
	ErrWriteTimeout = errors.New("write timeout")

	// ErrInvalidJSON indicates a payload could not be serialized.
	ErrInvalidJSON = errors.New("invalid JSON payload")

	// ErrUnknownEventType indicates a notification type outside the closed event set.
	ErrUnknownEventType = errors.New("unknown event notification type")
)
