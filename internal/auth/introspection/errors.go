package introspection

import "errors"

var (
	// ErrMissingURL indicates that no introspection endpoint was configured.
	ErrMissingURL = errors.New("introspection URL is required")

	// ErrRequestFailed indicates a transport or read failure talking to the
	// introspection endpoint.
	ErrRequestFailed = errors.New("introspection request failed")

	// ErrCircuitOpen indicates that the circuit breaker rejected the call.
	ErrCircuitOpen = errors.New("introspection circuit breaker is open")

	// ErrUnreadableResponse indicates that the response body is not a JSON object.
	ErrUnreadableResponse = errors.New("introspection response is not a JSON object")
)
