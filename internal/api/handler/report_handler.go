package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// SummaryReader reads the per-period form counts.
type SummaryReader interface {
	Summaries(ctx context.Context) ([]domain.PeriodSummary, error)
}

type ReportHandler struct {
	reports SummaryReader
}

func NewReportHandler(reports SummaryReader) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Summary returns form counts per survey period.
//
// @Summary      Per-period summary
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.PeriodSummary
// @Failure      403  {object}  map[string]string
// @Router       /reports/summary [get]
func (h *ReportHandler) Summary(c echo.Context) error {
	summaries, err := h.reports.Summaries(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaries)
}
