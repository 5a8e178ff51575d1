package rpc

import (
	"encoding/hex"
	"fmt"
)

func decodeHex(s string) ([]byte, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("rpc: invalid hex payload: %w", err)
	}
	return raw, nil
}

type methodNotFoundError struct {
	method string
}

func (e *methodNotFoundError) Error() string {
	return fmt.Sprintf("rpc: unknown method %q", e.method)
}

func unknownMethodError(method string) error {
	return &methodNotFoundError{method: method}
}

// notFoundError marks an RPC lookup (by hash, height, or txid) that found
// nothing, distinct from a malformed request.
type notFoundError struct {
	resource string
}

func (e *notFoundError) Error() string { return e.resource + " not found" }

func notFound(resource string) error { return &notFoundError{resource: resource} }
