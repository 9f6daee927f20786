package utils

// ErrUpstream indicates a failed call to an external provider
// Message keeps the provider's own error text when it was available
// so handlers can surface it to the caller
type ErrUpstream struct {
	Message string
	err     error
}

// NewErrUpstream creates new error
func NewErrUpstream(message string, err error) error {
	return &ErrUpstream{Message: message, err: err}
}

func (e *ErrUpstream) Error() string {
	if e.Message != "" {
		return "upstream error: " + e.Message
	}
	if e.err != nil {
		return "upstream error: " + e.err.Error()
	}
	return "upstream error"
}

func (e *ErrUpstream) Unwrap() error {
	return e.err
}
