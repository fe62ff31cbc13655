package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sgirs-cali/portal/internal/api/middleware"
	"github.com/sgirs-cali/portal/internal/core/domain"
)

// ctxPrincipal returns the caller injected by the Auth middleware or the
// route guard. A missing principal means the route was wired without
// either and fails fast with 401.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return p, nil
}
