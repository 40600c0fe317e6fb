package realtime

// ErrorCode classifies client failures for the error handler.
type ErrorCode string

const (
	// ErrCodeNetwork covers transport-level failures; these are retryable and
	// drive the reconnect path.
	ErrCodeNetwork ErrorCode = "NETWORK"
	// ErrCodeValidation covers malformed or unexpected inbound payloads; these
	// are not retryable and never affect the connection lifecycle.
	ErrCodeValidation ErrorCode = "VALIDATION"
)

// ClientError is the machine-readable failure surfaced through the error
// handler. The client never returns connectivity errors from its public
// methods.
type ClientError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

func (e ClientError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func networkError(msg string) ClientError {
	return ClientError{Code: ErrCodeNetwork, Message: msg, Retryable: true}
}

func validationError(msg string) ClientError {
	return ClientError{Code: ErrCodeValidation, Message: msg, Retryable: false}
}
