package eligibility

import "errors"

// Rejection codes.  They are stable and travel in API error bodies.
const (
	CodeRequiredFields  = "required_fields"
	CodePartySize       = "party_size"
	CodeWeekday         = "weekday"
	CodeHours           = "hours"
	CodeInvalidDateTime = "invalid_datetime"
	CodeLeadTime        = "lead_time"
)

// ValidationError is a rejected draft.  Message is meant for end users;
// Code is meant for programs.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

func newError(code, msg string) *ValidationError {
	return &ValidationError{Code: code, Message: msg}
}

// AsValidation unwraps err into a *ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
