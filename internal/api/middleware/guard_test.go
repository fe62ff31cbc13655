package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

func principal(role domain.Role) domain.Principal {
	return domain.Principal{UserID: "u-1", Role: role, Token: "t"}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name     string
		target   string
		p        domain.Principal
		redirect string
		reason   string
	}{
		{"anonymous admin", "/admin", domain.Principal{}, "/login?redirect=%2Fadmin", ReasonUnauthenticated},
		{"anonymous official", "/funcionario", domain.Principal{}, "/login?redirect=%2Ffuncionario", ReasonUnauthenticated},
		{"anonymous citizen subpage keeps query", "/ciudadano/encuesta?paso=2", domain.Principal{}, "/login?redirect=%2Fciudadano%2Fencuesta%3Fpaso%3D2", ReasonUnauthenticated},
		{"anonymous public", "/", domain.Principal{}, "", ""},
		{"anonymous login", "/login", domain.Principal{}, "", ""},
		{"anonymous lookalike prefix", "/administracion", domain.Principal{}, "", ""},
		{"citizen on admin", "/admin", principal(domain.RoleCitizen), "/ciudadano", ReasonRoleMismatch},
		{"official on citizen", "/ciudadano/encuesta", principal(domain.RoleOfficial), "/funcionario", ReasonRoleMismatch},
		{"admin on official", "/funcionario", principal(domain.RoleAdministrator), "/admin", ReasonRoleMismatch},
		{"admin on admin", "/admin/usuarios", principal(domain.RoleAdministrator), "", ""},
		{"citizen on citizen", "/ciudadano", principal(domain.RoleCitizen), "", ""},
		{"authenticated login", "/login", principal(domain.RoleOfficial), "/funcionario", ReasonAuthPage},
		{"authenticated register", "/registro", principal(domain.RoleCitizen), "/ciudadano", ReasonAuthPage},
		{"authenticated public", "/acerca", principal(domain.RoleCitizen), "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.target, tc.p)
			if d.Redirect != tc.redirect {
				t.Errorf("redirect: expected %q, got %q", tc.redirect, d.Redirect)
			}
			if d.Reason != tc.reason {
				t.Errorf("reason: expected %q, got %q", tc.reason, d.Reason)
			}
		})
	}
}

type guardResult struct {
	rec       *httptest.ResponseRecorder
	called    bool
	principal domain.Principal
}

func runGuard(t *testing.T, req *http.Request) guardResult {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var res guardResult
	mw := Guard(GuardConfig{Secret: testSecret, Skipper: PortalSkipper, Logger: zerolog.Nop()})
	err := mw(func(c echo.Context) error {
		res.called = true
		res.principal, _ = PrincipalFrom(c)
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("guard error: %v", err)
	}
	res.rec = rec
	return res
}

func TestGuard_RedirectsAnonymousToLogin(t *testing.T) {
	for path, want := range map[string]string{
		"/admin":       "/login?redirect=%2Fadmin",
		"/funcionario": "/login?redirect=%2Ffuncionario",
	} {
		res := runGuard(t, httptest.NewRequest(http.MethodGet, path, nil))
		if res.called {
			t.Fatalf("%s: next should not run", path)
		}
		if res.rec.Code != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", path, res.rec.Code)
		}
		if loc := res.rec.Header().Get("Location"); loc != want {
			t.Errorf("%s: expected Location %q, got %q", path, want, loc)
		}
	}
}

func TestGuard_CookieTokenWithRoleClaim(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{"sub": "u-1", "role": "ciudadano"})
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signed})

	res := runGuard(t, req)
	if res.rec.Code != http.StatusFound || res.rec.Header().Get("Location") != "/ciudadano" {
		t.Fatalf("expected redirect to /ciudadano, got %d %q", res.rec.Code, res.rec.Header().Get("Location"))
	}
}

func TestGuard_RoleCookieFallback(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{"sub": "u-9"})
	req := httptest.NewRequest(http.MethodGet, "/admin/usuarios", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signed})
	req.AddCookie(&http.Cookie{Name: "role", Value: "Administrador"})

	res := runGuard(t, req)
	if !res.called {
		t.Fatalf("expected pass-through, got %d %q", res.rec.Code, res.rec.Header().Get("Location"))
	}
	if res.principal.Role != domain.RoleAdministrator || res.principal.UserID != "u-9" {
		t.Errorf("unexpected principal %#v", res.principal)
	}
}

func TestGuard_UnknownRoleDefaultsToCitizen(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{"sub": "u-1", "role": "superusuario"})
	req := httptest.NewRequest(http.MethodGet, "/funcionario", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signed})

	res := runGuard(t, req)
	if res.rec.Header().Get("Location") != "/ciudadano" {
		t.Fatalf("expected /ciudadano, got %q", res.rec.Header().Get("Location"))
	}
}

func TestGuard_BearerHeaderAccepted(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{"sub": "u-1", "role": "funcionario"})
	req := httptest.NewRequest(http.MethodGet, "/funcionario", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	res := runGuard(t, req)
	if !res.called {
		t.Fatalf("expected pass-through, got %d", res.rec.Code)
	}
}

func TestGuard_MalformedTokenIsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ciudadano", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "not-a-jwt"})

	res := runGuard(t, req)
	if loc := res.rec.Header().Get("Location"); loc != "/login?redirect=%2Fciudadano" {
		t.Fatalf("expected login redirect, got %q", loc)
	}

	login := httptest.NewRequest(http.MethodGet, "/login", nil)
	login.AddCookie(&http.Cookie{Name: "token", Value: "not-a-jwt"})
	if res := runGuard(t, login); !res.called {
		t.Fatal("login page must stay reachable with a broken token")
	}
}

func TestGuard_AuthenticatedLoginRedirectsHome(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{"sub": "u-1", "role": "admin"})
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signed})

	res := runGuard(t, req)
	if res.rec.Header().Get("Location") != "/admin" {
		t.Fatalf("expected /admin, got %q", res.rec.Header().Get("Location"))
	}
}

func TestGuard_SkipsAPIAndOperationalRoutes(t *testing.T) {
	for _, path := range []string{"/api/form/create", "/health", "/metrics", "/swagger/index.html"} {
		if res := runGuard(t, httptest.NewRequest(http.MethodGet, path, nil)); !res.called {
			t.Errorf("%s: guard should be skipped", path)
		}
	}
}
