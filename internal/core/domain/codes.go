package domain

import "errors"

// codedErrors pairs domain errors with identifiers that travel in API error
// bodies, so a client can rebuild the error on its side.
var codedErrors = []struct {
	code string
	err  error
}{
	{"invalid_credentials", ErrInvalidCredentials},
	{"user_not_found", ErrUserNotFound},
	{"user_exists", ErrUserExists},
	{"forbidden", ErrForbidden},
	{"no_period", ErrNoPeriod},
	{"period_not_found", ErrPeriodNotFound},
	{"period_inactive", ErrPeriodInactive},
	{"invalid_period", ErrInvalidPeriod},
	{"question_not_found", ErrQuestionNotFound},
	{"option_not_found", ErrOptionNotFound},
	{"form_not_found", ErrFormNotFound},
	{"form_exists", ErrFormExists},
	{"form_completed", ErrFormCompleted},
	{"form_incomplete", ErrFormIncomplete},
	{"invalid_answers", ErrInvalidAnswers},
	{"attachment_not_allowed", ErrAttachmentNotAllowed},
	{"attachment_invalid", ErrAttachmentInvalid},
	{"attachment_too_large", ErrAttachmentTooLarge},
	{"wizard_not_started", ErrWizardNotStarted},
	{"save_in_flight", ErrSaveInFlight},
	{"backend_unavailable", ErrBackendUnavailable},
}

// ErrorCode returns the wire identifier of err, or "" for errors outside the
// domain.
func ErrorCode(err error) string {
	for _, c := range codedErrors {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// ErrorFromCode is the inverse of ErrorCode; nil for an unknown code.
func ErrorFromCode(code string) error {
	for _, c := range codedErrors {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
