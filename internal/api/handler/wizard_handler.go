package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/service"
)

// WizardFlow is the survey wizard as driven by the citizen pages.
type WizardFlow interface {
	Enter(ctx context.Context, p domain.Principal) (*service.WizardView, error)
	View(ctx context.Context, p domain.Principal) (*service.WizardView, error)
	SetAnswer(ctx context.Context, p domain.Principal, questionID string, in service.AnswerInput) (*service.WizardView, error)
	Attach(ctx context.Context, p domain.Principal, questionID, name string, data []byte) (*service.WizardView, error)
	Advance(ctx context.Context, p domain.Principal) (*service.WizardView, bool, error)
	Retreat(ctx context.Context, p domain.Principal) (*service.WizardView, error)
	Save(ctx context.Context, p domain.Principal) (*service.WizardView, error)
	Complete(ctx context.Context, p domain.Principal) (*service.WizardView, error)
}

// WizardHandler serves /ciudadano/encuesta.
type WizardHandler struct {
	wizard   WizardFlow
	maxBytes int64
}

func NewWizardHandler(wizard WizardFlow, maxBytes int64) *WizardHandler {
	return &WizardHandler{wizard: wizard, maxBytes: maxBytes}
}

// Enter opens or resumes the survey.
func (h *WizardHandler) Enter(c echo.Context) error {
	return h.render(c, h.wizard.Enter)
}

// State returns the current wizard state without touching it.
func (h *WizardHandler) State(c echo.Context) error {
	return h.render(c, h.wizard.View)
}

// SetAnswer records the answer to one question of the current step.
func (h *WizardHandler) SetAnswer(c echo.Context) error {
	var req answerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	questionID := c.Param("questionId")
	return h.render(c, func(ctx context.Context, p domain.Principal) (*service.WizardView, error) {
		return h.wizard.SetAnswer(ctx, p, questionID, service.AnswerInput{OptionID: req.OptionID, Text: req.Text})
	})
}

// Attach attaches the uploaded "file" to one question.
func (h *WizardHandler) Attach(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	data, err := readFile(fh, h.maxBytes)
	if err != nil {
		return err
	}
	questionID := c.Param("questionId")
	return h.render(c, func(ctx context.Context, p domain.Principal) (*service.WizardView, error) {
		return h.wizard.Attach(ctx, p, questionID, fh.Filename, data)
	})
}

// Advance moves to the next step when the current one is complete. A
// blocked advance is not an error: the view lists what is missing.
func (h *WizardHandler) Advance(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	view, advanced, err := h.wizard.Advance(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, advanceResponse{Advanced: advanced, View: view})
}

// Retreat moves back one step.
func (h *WizardHandler) Retreat(c echo.Context) error {
	return h.render(c, h.wizard.Retreat)
}

// Save sends the answers to the REST API.
func (h *WizardHandler) Save(c echo.Context) error {
	return h.render(c, h.wizard.Save)
}

// Complete submits the whole survey.
func (h *WizardHandler) Complete(c echo.Context) error {
	return h.render(c, h.wizard.Complete)
}

func (h *WizardHandler) render(c echo.Context, op func(context.Context, domain.Principal) (*service.WizardView, error)) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	view, err := op(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
