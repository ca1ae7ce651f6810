package errors

// Sentinel errors returned by the channel package. Codes follow no external
// protocol (there's no wire format here); they only give callers a stable
// value to switch on.
var (
	// ErrInvalidArgument is returned when a channel is constructed with a
	// non-positive buffer size or another malformed option.
	ErrInvalidArgument = New(1, "invalid argument")

	// ErrInternal wraps a recovered panic from a user-supplied transform.
	// Producer and consumer callback panics are only logged.
	ErrInternal = New(2, "internal error")
)
