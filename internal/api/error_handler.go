package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Code
// names the domain error, when there is one.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusCoder is implemented by errors that already carry an HTTP status,
// such as REST API answers relayed by the wizard's backend client.
type statusCoder interface {
	StatusCode() int
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg, Code: domain.ErrorCode(err)})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"

	case errors.Is(err, domain.ErrNoPeriod):
		return http.StatusNotFound, "no survey period is available"
	case errors.Is(err, domain.ErrPeriodNotFound):
		return http.StatusNotFound, "survey period not found"
	case errors.Is(err, domain.ErrPeriodInactive):
		return http.StatusForbidden, "the survey period is closed"
	case errors.Is(err, domain.ErrInvalidPeriod):
		return http.StatusBadRequest, "invalid survey period"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound, "question not found"
	case errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusUnprocessableEntity, "option does not belong to the question"

	case errors.Is(err, domain.ErrFormNotFound):
		return http.StatusNotFound, "form session not found"
	case errors.Is(err, domain.ErrFormExists):
		return http.StatusConflict, "a form for this period already exists"
	case errors.Is(err, domain.ErrFormCompleted):
		return http.StatusConflict, "the form is already completed and can no longer change"
	case errors.Is(err, domain.ErrSaveInFlight):
		return http.StatusConflict, "a save is already in progress, try again shortly"
	case errors.Is(err, domain.ErrWizardNotStarted):
		return http.StatusConflict, "open the survey before answering it"
	case errors.Is(err, domain.ErrFormIncomplete), errors.Is(err, domain.ErrInvalidAnswers):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, domain.ErrAttachmentNotAllowed),
		errors.Is(err, domain.ErrAttachmentInvalid),
		errors.Is(err, domain.ErrAttachmentTooLarge):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, domain.ErrBackendUnavailable):
		log.Warn().Err(err).Str("path", c.Path()).Msg("survey backend unavailable")
		return http.StatusBadGateway, "the survey service is unavailable, your answers were kept"
	}

	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() >= 400 && sc.StatusCode() < 500 {
		return sc.StatusCode(), err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
