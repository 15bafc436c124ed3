package gateway

import "errors"

var (
	// ErrRequest indicates the gateway could not be reached or answered with a non-2xx status.
	ErrRequest = errors.New("gateway request failed")

	// ErrRPC indicates the gateway answered with a JSON-RPC error object.
	ErrRPC = errors.New("gateway rpc error")

	// ErrServerNotFound indicates a server search returned no match.
	ErrServerNotFound = errors.New("server not found")

	// ErrMalformed indicates a response missing the fields the bot needs.
	ErrMalformed = errors.New("malformed gateway response")
)
