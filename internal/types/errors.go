package types

import "errors"

// Error taxonomy. Callers wrap these with fmt.Errorf("...: %w", ...) and
// test with errors.Is.
var (
	// ErrConfigurationMissing: a credential or endpoint for a capability is absent.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrProviderUnavailable: a configured provider failed (network, timeout, bad status, empty output).
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrParseFailure: model output could not be interpreted.
	ErrParseFailure = errors.New("parse failure")
	// ErrRenderFailure: the document or video renderer failed.
	ErrRenderFailure = errors.New("render failure")
	// ErrUserAbort: the run was interrupted.
	ErrUserAbort = errors.New("user abort")
)
