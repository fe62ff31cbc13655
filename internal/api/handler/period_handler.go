package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/ports"
)

type PeriodHandler struct {
	periods ports.PeriodService
}

func NewPeriodHandler(periods ports.PeriodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

// List returns every survey period with its activity flag.
//
// @Summary      List survey periods
// @Tags         periods
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.SurveyPeriod
// @Failure      401  {object}  map[string]string
// @Router       /periods/active [get]
func (h *PeriodHandler) List(c echo.Context) error {
	periods, err := h.periods.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, periods)
}

// Create stores a new, inactive period.
//
// @Summary      Create a survey period
// @Tags         periods
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPeriodRequest  true  "Period"
// @Success      201   {object}  domain.SurveyPeriod
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /periods [post]
func (h *PeriodHandler) Create(c echo.Context) error {
	var req createPeriodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.periods.Create(c.Request().Context(), domain.SurveyPeriod{
		Name:     req.Name,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// Activate makes the period the only active one.
//
// @Summary      Activate a survey period
// @Tags         periods
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Period ID"
// @Success      200  {object}  domain.SurveyPeriod
// @Failure      404  {object}  map[string]string
// @Router       /periods/{id}/activate [post]
func (h *PeriodHandler) Activate(c echo.Context) error {
	p, err := h.periods.Activate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
