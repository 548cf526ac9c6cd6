package model

// ValidationError is returned when a request is rejected before reaching the
// model. Message is safe to show to the caller.
type ValidationError struct {
	Message string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AssistantError is returned when the assistant could not produce an answer.
// Message is safe to show to the caller; the cause carries provider details
// and must only be logged.
type AssistantError struct {
	Message string
	cause   error
}

func NewAssistantError(msg string, cause error) *AssistantError {
	return &AssistantError{Message: msg, cause: cause}
}

func (e *AssistantError) Error() string {
	return e.Message
}

func (e *AssistantError) Unwrap() error {
	return e.cause
}
