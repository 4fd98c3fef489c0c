package openvt

import "errors"

var (
	ErrUnknownVariant = errors.New("unrecognized vehicle message variant")
	ErrNotFinite      = errors.New("value is not representable on the wire")
	ErrUnknownHandler = errors.New("no signal handler registered under this name")
	ErrInvalidState   = errors.New("driver not ready")
)
