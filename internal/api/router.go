package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/sgirs-cali/portal/docs"
	"github.com/sgirs-cali/portal/internal/api/handler"
	"github.com/sgirs-cali/portal/internal/api/middleware"
	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/ports"
)

// RouterConfig carries the settings the HTTP layer needs.
type RouterConfig struct {
	JWTSecret          string
	AuthCookie         string
	RoleCookie         string
	SecureCookies      bool
	TokenTTL           time.Duration
	AttachmentMaxBytes int64
	// MetricsRegisterer receives the HTTP request metrics. Nil means the
	// default Prometheus registry.
	MetricsRegisterer prometheus.Registerer
}

// Dependencies are the services behind the routes.
type Dependencies struct {
	Auth    ports.AuthService
	Periods ports.PeriodService
	Catalog ports.CatalogService
	Forms   ports.FormService
	Wizard  handler.WizardFlow
	Health  map[string]handler.Pinger
}

// NewRouter builds and returns the Echo instance with all routes registered:
// the REST API under /api, the guarded portal pages and the operational
// endpoints.
func NewRouter(cfg RouterConfig, deps Dependencies, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "sgirs",
		Registerer: cfg.MetricsRegisterer,
		Skipper:    func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}))
	e.Use(middleware.Guard(middleware.GuardConfig{
		Secret:     cfg.JWTSecret,
		AuthCookie: cfg.AuthCookie,
		RoleCookie: cfg.RoleCookie,
		Skipper:    middleware.PortalSkipper,
		Logger:     log,
	}))

	// --- Operational routes ---
	healthHandler := handler.NewHealthHandler(deps.Health)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	registerAPI(e, cfg, deps)
	registerPages(e, cfg, deps, log)

	return e
}

func registerAPI(e *echo.Echo, cfg RouterConfig, deps Dependencies) {
	authHandler := handler.NewAuthHandler(deps.Auth)
	periodHandler := handler.NewPeriodHandler(deps.Periods)
	catalogHandler := handler.NewCatalogHandler(deps.Catalog)
	formHandler := handler.NewFormHandler(deps.Forms, cfg.AttachmentMaxBytes)
	reportHandler := handler.NewReportHandler(deps.Forms)
	userHandler := handler.NewUserHandler(deps.Auth)

	adminOnly := middleware.RBAC(domain.RoleAdministrator)
	citizens := middleware.RBAC(domain.RoleCitizen, domain.RoleAdministrator)
	staff := middleware.RBAC(domain.RoleOfficial, domain.RoleAdministrator)

	api := e.Group("/api")

	// --- Auth routes ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("", middleware.Auth(cfg.JWTSecret))

	// --- Periods ---
	secured.GET("/periods/active", periodHandler.List)
	secured.POST("/periods", periodHandler.Create, adminOnly)
	secured.POST("/periods/:id/activate", periodHandler.Activate, adminOnly)

	// --- Catalog ---
	secured.GET("/questions/by-number/:n", catalogHandler.QuestionsByNumber)
	secured.GET("/questions/steps", catalogHandler.Steps)
	secured.GET("/question-types", catalogHandler.QuestionTypes)
	secured.GET("/answer-options", catalogHandler.AnswerOptions)

	// --- Form sessions ---
	secured.GET("/form/verify/:period", formHandler.Verify, citizens)
	secured.POST("/form/create", formHandler.Create, citizens)
	secured.POST("/form/upload-attachments", formHandler.UploadAttachments, citizens)
	secured.POST("/form/complete", formHandler.Complete, citizens)
	secured.PATCH("/form/:userId/:periodId", formHandler.Patch, citizens)
	secured.GET("/forms/:userId/:periodId/events", formHandler.Events, adminOnly)

	// --- Reports and users ---
	secured.GET("/reports/summary", reportHandler.Summary, staff)
	secured.GET("/users", userHandler.List, adminOnly)
	secured.PATCH("/users/:id/role", userHandler.ChangeRole, adminOnly)
}

func registerPages(e *echo.Echo, cfg RouterConfig, deps Dependencies, log zerolog.Logger) {
	pageHandler := handler.NewPageHandler(deps.Auth, deps.Forms, handler.PageConfig{
		AuthCookie: cfg.AuthCookie,
		RoleCookie: cfg.RoleCookie,
		Secure:     cfg.SecureCookies,
		TokenTTL:   cfg.TokenTTL,
	}, log)
	wizardHandler := handler.NewWizardHandler(deps.Wizard, cfg.AttachmentMaxBytes)

	e.GET("/", pageHandler.Root)
	e.GET(middleware.LoginPath, pageHandler.LoginPage)
	e.POST(middleware.LoginPath, pageHandler.Login)
	e.GET("/registro", pageHandler.RegisterPage)
	e.POST("/registro", pageHandler.Register)
	e.POST("/logout", pageHandler.Logout)

	e.GET(domain.HomeCitizen, pageHandler.CitizenHome)
	e.GET(domain.HomeOfficial, pageHandler.OfficialHome)
	e.GET(domain.HomeAdministrator, pageHandler.AdminHome)

	survey := e.Group(domain.HomeCitizen + "/encuesta")
	survey.GET("", wizardHandler.Enter)
	survey.GET("/estado", wizardHandler.State)
	survey.PUT("/respuestas/:questionId", wizardHandler.SetAnswer)
	survey.POST("/adjuntos/:questionId", wizardHandler.Attach)
	survey.POST("/avanzar", wizardHandler.Advance)
	survey.POST("/retroceder", wizardHandler.Retreat)
	survey.POST("/guardar", wizardHandler.Save)
	survey.POST("/completar", wizardHandler.Complete)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
