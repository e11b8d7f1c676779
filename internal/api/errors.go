package api

// ServerError is a business failure reported by the remote API. Message is
// the server's own text when it sent one, otherwise a generic fallback; it is
// meant to be shown to the user verbatim.
type ServerError struct {
	Message    string
	StatusCode int
}

func (e *ServerError) Error() string {
	return e.Message
}
