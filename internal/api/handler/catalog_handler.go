package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sgirs-cali/portal/internal/core/ports"
)

type CatalogHandler struct {
	catalog ports.CatalogService
}

func NewCatalogHandler(catalog ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// QuestionsByNumber returns the active questions of one step.
//
// @Summary      Questions of a step
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        n    path      int  true  "Step number (1-based)"
// @Success      200  {array}   domain.Question
// @Failure      400  {object}  map[string]string
// @Router       /questions/by-number/{n} [get]
func (h *CatalogHandler) QuestionsByNumber(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "step number must be a positive integer")
	}
	qs, err := h.catalog.QuestionsByNumber(c.Request().Context(), n)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, qs)
}

// Steps returns the number of wizard steps.
//
// @Summary      Step count
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  stepsResponse
// @Router       /questions/steps [get]
func (h *CatalogHandler) Steps(c echo.Context) error {
	total, err := h.catalog.StepCount(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stepsResponse{Total: total})
}

// QuestionTypes returns the question-type catalog.
//
// @Summary      Question types
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.QuestionType
// @Router       /question-types [get]
func (h *CatalogHandler) QuestionTypes(c echo.Context) error {
	types, err := h.catalog.QuestionTypes(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, types)
}

// AnswerOptions returns answer options, optionally restricted to a
// comma-separated list of question ids.
//
// @Summary      Answer options
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        question  query     string  false  "Question ids, comma separated"
// @Success      200       {array}   domain.AnswerOption
// @Router       /answer-options [get]
func (h *CatalogHandler) AnswerOptions(c echo.Context) error {
	var ids []string
	for _, raw := range c.QueryParams()["question"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	opts, err := h.catalog.AnswerOptions(c.Request().Context(), ids...)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, opts)
}
