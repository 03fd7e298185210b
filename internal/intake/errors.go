package intake

import "errors"

var (
	ErrMissingRequiredField = errors.New("intake: missing required field")
	ErrSlotUnavailable      = errors.New("intake: slot unavailable")
	ErrUnsupportedLanguage  = errors.New("intake: unsupported language")
	ErrActionNotAllowed     = errors.New("intake: action not allowed in current stage")
	ErrUnknownAction        = errors.New("intake: unknown action")
	ErrSessionEnded         = errors.New("intake: session ended")
	ErrSessionNotFound      = errors.New("intake: session not found")
)
