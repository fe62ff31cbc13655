package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/sgirs-cali/portal/internal/api/metrics"
	"github.com/sgirs-cali/portal/internal/core/domain"
)

// LoginPath is where unauthenticated visitors of protected pages are sent.
const LoginPath = "/login"

// Redirect reasons, also used as metric labels.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonRoleMismatch    = "role_mismatch"
	ReasonAuthPage        = "authenticated_auth_page"
)

var protectedPrefixes = []struct {
	prefix string
	role   domain.Role
}{
	{domain.HomeAdministrator, domain.RoleAdministrator},
	{domain.HomeOfficial, domain.RoleOfficial},
	{domain.HomeCitizen, domain.RoleCitizen},
}

var authPrefixes = []string{LoginPath, "/registro"}

// Decision is the guard's verdict for one navigation. An empty Redirect
// lets the request through.
type Decision struct {
	Redirect string
	Reason   string
}

// Decide routes a navigation to target (path plus optional query) for the
// given principal. A zero principal means no credential.
func Decide(target string, p domain.Principal) Decision {
	path := target
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	if !p.Authenticated() {
		for _, pp := range protectedPrefixes {
			if underPrefix(path, pp.prefix) {
				return Decision{
					Redirect: LoginPath + "?redirect=" + url.QueryEscape(target),
					Reason:   ReasonUnauthenticated,
				}
			}
		}
		return Decision{}
	}

	for _, ap := range authPrefixes {
		if underPrefix(path, ap) {
			return Decision{Redirect: p.Role.HomePath(), Reason: ReasonAuthPage}
		}
	}
	for _, pp := range protectedPrefixes {
		if underPrefix(path, pp.prefix) && p.Role != pp.role {
			return Decision{Redirect: p.Role.HomePath(), Reason: ReasonRoleMismatch}
		}
	}
	return Decision{}
}

// underPrefix matches whole path segments: "/admin" and "/admin/x" are under
// "/admin", "/administracion" is not.
func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// GuardConfig configures the page route guard.
type GuardConfig struct {
	Secret     string
	AuthCookie string
	RoleCookie string
	Skipper    echomiddleware.Skipper
	Logger     zerolog.Logger
}

// Guard resolves the caller of every page request and redirects according
// to Decide. Requests that pass carry the principal, if any.
func Guard(cfg GuardConfig) echo.MiddlewareFunc {
	if cfg.AuthCookie == "" {
		cfg.AuthCookie = "token"
	}
	if cfg.RoleCookie == "" {
		cfg.RoleCookie = "role"
	}
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			p := resolvePrincipal(c, cfg)
			target := c.Request().RequestURI
			if target == "" {
				target = c.Request().URL.RequestURI()
			}
			d := Decide(target, p)
			if d.Redirect != "" {
				metrics.GuardRedirectsTotal.WithLabelValues(d.Reason).Inc()
				cfg.Logger.Debug().
					Str("path", c.Request().URL.Path).
					Str("role", p.Role.String()).
					Str("reason", d.Reason).
					Str("location", d.Redirect).
					Msg("guard redirect")
				return c.Redirect(http.StatusFound, d.Redirect)
			}

			if p.Authenticated() {
				SetPrincipal(c, p)
			}
			return next(c)
		}
	}
}

// resolvePrincipal reads the credential from the auth cookie, else the
// bearer header. An invalid token counts as no credential. Without a role
// claim the role cookie decides.
func resolvePrincipal(c echo.Context, cfg GuardConfig) domain.Principal {
	raw := ""
	if ck, err := c.Cookie(cfg.AuthCookie); err == nil {
		raw = strings.TrimSpace(ck.Value)
	}
	if raw == "" {
		raw, _ = bearerToken(c.Request().Header.Get("Authorization"))
	}
	if raw == "" {
		return domain.Principal{}
	}

	p, hasRole, err := parseToken(cfg.Secret, raw)
	if err != nil {
		cfg.Logger.Debug().Str("path", c.Request().URL.Path).Msg("guard ignored invalid token")
		return domain.Principal{}
	}
	if hasRole {
		return p
	}

	roleRaw := ""
	if ck, err := c.Cookie(cfg.RoleCookie); err == nil {
		roleRaw = ck.Value
	}
	role, ok := domain.ParseRole(roleRaw)
	if !ok {
		cfg.Logger.Debug().Str("role", roleRaw).Str("user_id", p.UserID).Msg("unrecognised role, defaulting to citizen")
	}
	p.Role = role
	return p
}

// PortalSkipper skips the guard for the API and operational routes.
func PortalSkipper(c echo.Context) bool {
	path := c.Request().URL.Path
	for _, prefix := range []string{"/api", "/health", "/metrics", "/swagger"} {
		if underPrefix(path, prefix) {
			return true
		}
	}
	return false
}
