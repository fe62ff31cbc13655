package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sgirs-cali/portal/internal/api/middleware"
	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/ports"
)

// PageConfig configures the session cookies set by the portal pages.
type PageConfig struct {
	AuthCookie string
	RoleCookie string
	Secure     bool
	TokenTTL   time.Duration
}

// PageHandler serves the portal pages outside the survey wizard: login,
// registration, logout and the role dashboards.
type PageHandler struct {
	auth    ports.AuthService
	reports SummaryReader
	cfg     PageConfig
	logger  zerolog.Logger
}

func NewPageHandler(auth ports.AuthService, reports SummaryReader, cfg PageConfig, logger zerolog.Logger) *PageHandler {
	if cfg.AuthCookie == "" {
		cfg.AuthCookie = "token"
	}
	if cfg.RoleCookie == "" {
		cfg.RoleCookie = "role"
	}
	return &PageHandler{auth: auth, reports: reports, cfg: cfg, logger: logger}
}

type pageView struct {
	Page     string `json:"page"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Data     any    `json:"data,omitempty"`
}

type adminDashboard struct {
	Summaries []domain.PeriodSummary `json:"summaries"`
	Users     []*domain.User         `json:"users"`
}

// Root handles GET /: signed-in users land on their home, visitors on the
// login page.
func (h *PageHandler) Root(c echo.Context) error {
	if p, ok := middleware.PrincipalFrom(c); ok {
		return c.Redirect(http.StatusFound, p.Role.HomePath())
	}
	return c.Redirect(http.StatusFound, middleware.LoginPath)
}

// LoginPage handles GET /login.
func (h *PageHandler) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, pageView{Page: "login", Redirect: c.QueryParam("redirect")})
}

// Login handles POST /login: it sets the session cookies and sends the user
// to the requested page when the new session may open it, else to the role
// home.
func (h *PageHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	p := domain.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.CanonicalRole(),
		Token:    token,
	}
	h.setSession(c, token, p.Role)

	dest := safeRedirect(c.QueryParam("redirect"), p)
	h.logger.Info().Str("user_id", user.ID).Str("role", p.Role.String()).Str("redirect", dest).Msg("portal login")
	return c.Redirect(http.StatusSeeOther, dest)
}

// RegisterPage handles GET /registro.
func (h *PageHandler) RegisterPage(c echo.Context) error {
	return c.JSON(http.StatusOK, pageView{Page: "registro"})
}

// Register handles POST /registro and sends the new citizen to the login
// page.
func (h *PageHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.auth.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

// Logout handles POST /logout.
func (h *PageHandler) Logout(c echo.Context) error {
	for _, name := range []string{h.cfg.AuthCookie, h.cfg.RoleCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

// CitizenHome handles GET /ciudadano.
func (h *PageHandler) CitizenHome(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageView{
		Page:     "ciudadano",
		Username: p.Username,
		Role:     p.Role.String(),
		Data:     map[string]string{"survey": domain.HomeCitizen + "/encuesta"},
	})
}

// OfficialHome handles GET /funcionario.
func (h *PageHandler) OfficialHome(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	summaries, err := h.reports.Summaries(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageView{
		Page:     "funcionario",
		Username: p.Username,
		Role:     p.Role.String(),
		Data:     summaries,
	})
}

// AdminHome handles GET /admin.
func (h *PageHandler) AdminHome(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	dash, err := h.adminDashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageView{
		Page:     "admin",
		Username: p.Username,
		Role:     p.Role.String(),
		Data:     dash,
	})
}

func (h *PageHandler) adminDashboard(ctx context.Context) (adminDashboard, error) {
	summaries, err := h.reports.Summaries(ctx)
	if err != nil {
		return adminDashboard{}, err
	}
	users, err := h.auth.ListUsers(ctx)
	if err != nil {
		return adminDashboard{}, err
	}
	return adminDashboard{Summaries: summaries, Users: users}, nil
}

func (h *PageHandler) setSession(c echo.Context, token string, role domain.Role) {
	maxAge := int(h.cfg.TokenTTL.Seconds())
	for name, value := range map[string]string{h.cfg.AuthCookie: token, h.cfg.RoleCookie: role.String()} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			Secure:   h.cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// safeRedirect returns target when it is a local path the principal may
// open, else the principal's home.
func safeRedirect(target string, p domain.Principal) string {
	home := p.Role.HomePath()
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return home
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return home
	}
	if middleware.Decide(target, p).Redirect != "" {
		return home
	}
	return target
}
