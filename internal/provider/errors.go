package provider

import "errors"

// Sentinel errors for adapter construction and registry lookup.
var (
	// ErrMissingAPIKey means the backend's credential is absent from
	// both configuration and the conventional environment variable.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrUnknownBackend means no adapter factory is registered under
	// the requested backend identity.
	ErrUnknownBackend = errors.New("unknown backend")
)

// MaxToolTurnsError is the terminal turn error recorded when the turn
// loop exhausts the session's chat-turn budget.
const MaxToolTurnsError = "Maximum number of tool uses reached"
