package domain

import "errors"

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrForbidden          = errors.New("access forbidden")
)

// Survey catalog and period errors.
var (
	ErrNoPeriod         = errors.New("no survey period available")
	ErrPeriodNotFound   = errors.New("survey period not found")
	ErrPeriodInactive   = errors.New("survey period is not active")
	ErrInvalidPeriod    = errors.New("invalid survey period")
	ErrQuestionNotFound = errors.New("question not found")
	ErrOptionNotFound   = errors.New("answer option not found")
)

// Form session errors.
var (
	ErrFormNotFound   = errors.New("form session not found")
	ErrFormExists     = errors.New("form session already exists")
	ErrFormCompleted  = errors.New("form session already completed")
	ErrFormIncomplete = errors.New("form session has unanswered required questions")
	ErrInvalidAnswers = errors.New("invalid answers")
)

// Attachment errors.
var (
	ErrAttachmentNotAllowed = errors.New("question does not accept attachments")
	ErrAttachmentInvalid    = errors.New("invalid attachment")
	ErrAttachmentTooLarge   = errors.New("attachment exceeds size limit")
)

// Wizard session errors.
var (
	ErrWizardNotStarted   = errors.New("survey wizard not started")
	ErrSaveInFlight       = errors.New("a save is already in progress")
	ErrBackendUnavailable = errors.New("survey backend unavailable")
)
