package types

import "errors"

// Sentinel errors for the closed taxonomies named in the error handling
// design: configuration errors are fatal at load time and never appear
// on the decision path; adapter/transport/auth/protocol errors are
// contained at their respective boundaries.
var (
	ErrInvalidFact      = errors.New("invalid fact")
	ErrInvalidIntent    = errors.New("invalid intent")
	ErrProfileLoad      = errors.New("profile load error")
	ErrDomainNotFound   = errors.New("domain not found")
	ErrAdapterTranslate = errors.New("adapter translation error")
	ErrAdapterConn      = errors.New("adapter connection error")
	ErrAdapterIntent    = errors.New("adapter intent error")
	ErrTransportTimeout = errors.New("transport timeout")
	ErrHandshake        = errors.New("handshake error")
	ErrConnection       = errors.New("connection error")
	ErrAuthInvalid      = errors.New("auth invalid")
)
