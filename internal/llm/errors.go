package llm

// apiError wraps failures that a retry cannot fix: the service understood
// the request and rejected it, or returned something unparseable.
type apiError struct {
	err error
}

func (e *apiError) Error() string { return e.err.Error() }
func (e *apiError) Unwrap() error { return e.err }

func newAPIError(err error) error { return &apiError{err: err} }
