package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

type relayedError struct{ status int }

func (e relayedError) Error() string   { return fmt.Sprintf("backend %d", e.status) }
func (e relayedError) StatusCode() int { return e.status }

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "bad"), http.StatusBadRequest, ""},
		{"form exists", fmt.Errorf("create form: %w", domain.ErrFormExists), http.StatusConflict, domain.ErrorCode(domain.ErrFormExists)},
		{"form completed", domain.ErrFormCompleted, http.StatusConflict, domain.ErrorCode(domain.ErrFormCompleted)},
		{"save in flight", domain.ErrSaveInFlight, http.StatusConflict, domain.ErrorCode(domain.ErrSaveInFlight)},
		{"backend down", domain.ErrBackendUnavailable, http.StatusBadGateway, domain.ErrorCode(domain.ErrBackendUnavailable)},
		{"period closed", domain.ErrPeriodInactive, http.StatusForbidden, domain.ErrorCode(domain.ErrPeriodInactive)},
		{"incomplete", domain.ErrFormIncomplete, http.StatusUnprocessableEntity, domain.ErrorCode(domain.ErrFormIncomplete)},
		{"relayed 4xx", relayedError{status: http.StatusTeapot}, http.StatusTeapot, ""},
		{"relayed 5xx", relayedError{status: http.StatusServiceUnavailable}, http.StatusInternalServerError, ""},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, ""},
	}

	e := echo.New()
	handle := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/x", nil), rec)

			handle(tc.err, c)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Code != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, body.Code)
			}
			if tc.status == http.StatusInternalServerError && body.Error != "internal server error" {
				t.Fatalf("internal details leaked: %q", body.Error)
			}
		})
	}
}
