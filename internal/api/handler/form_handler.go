package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sgirs-cali/portal/internal/core/ports"
)

type FormHandler struct {
	forms    ports.FormService
	maxBytes int64
}

// NewFormHandler returns the form session handler. maxBytes bounds each
// uploaded file.
func NewFormHandler(forms ports.FormService, maxBytes int64) *FormHandler {
	return &FormHandler{forms: forms, maxBytes: maxBytes}
}

// Verify returns the caller's sessions for a period: none or one.
//
// @Summary      Verify form session
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Param        period  path      string  true  "Period ID"
// @Success      200     {array}   domain.FormSession
// @Router       /form/verify/{period} [get]
func (h *FormHandler) Verify(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	sessions, err := h.forms.Verify(c.Request().Context(), p.UserID, c.Param("period"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessions)
}

// Create opens a form session.
//
// @Summary      Create form session
// @Tags         forms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      formRequest  true  "Session"
// @Success      201   {object}  domain.FormSession
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /form/create [post]
func (h *FormHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req formRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	f, err := h.forms.Create(c.Request().Context(), p, req.UserID, req.PeriodID, req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, f)
}

// Patch replaces every answer of an open session.
//
// @Summary      Replace answers
// @Tags         forms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId    path      string            true  "User ID"
// @Param        periodId  path      string            true  "Period ID"
// @Param        body      body      patchFormRequest  true  "Answers"
// @Success      200       {object}  messageResponse
// @Failure      404       {object}  map[string]string
// @Failure      409       {object}  map[string]string
// @Router       /form/{userId}/{periodId} [patch]
func (h *FormHandler) Patch(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req patchFormRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.forms.Patch(c.Request().Context(), p, c.Param("userId"), c.Param("periodId"), req.Answers); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "answers saved"})
}

// UploadAttachments stores the files of a multipart request. Each file part
// is named after its question id; the text field "key.<question id>" carries
// the storage key chosen by the client.
//
// @Summary      Upload attachments
// @Tags         forms
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        period  query     string  true  "Period ID"
// @Success      201     {array}   domain.Attachment
// @Failure      403     {object}  map[string]string
// @Failure      422     {object}  map[string]string
// @Router       /form/upload-attachments [post]
func (h *FormHandler) UploadAttachments(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	periodID := c.QueryParam("period")
	if periodID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "period is required")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart payload")
	}

	var files []ports.AttachmentUpload
	for questionID, headers := range form.File {
		key := firstValue(form.Value[ports.AttachmentKeyPrefix+questionID])
		if key == "" {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("missing storage key for %s", questionID))
		}
		for _, fh := range headers {
			data, err := readFile(fh, h.maxBytes)
			if err != nil {
				return err
			}
			files = append(files, ports.AttachmentUpload{
				QuestionID: questionID,
				Name:       fh.Filename,
				Key:        key,
				Data:       data,
			})
		}
	}

	stored, err := h.forms.UploadAttachments(c.Request().Context(), p, periodID, files)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, stored)
}

// Complete closes a session for good.
//
// @Summary      Complete form session
// @Tags         forms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      formRequest  true  "Final answers"
// @Success      200   {object}  domain.FormSession
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /form/complete [post]
func (h *FormHandler) Complete(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req formRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	f, err := h.forms.Complete(c.Request().Context(), p, req.UserID, req.PeriodID, req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, f)
}

// Events returns the audit trail of one session.
//
// @Summary      Form audit trail
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Param        userId    path      string  true  "User ID"
// @Param        periodId  path      string  true  "Period ID"
// @Success      200       {array}   domain.FormEvent
// @Router       /forms/{userId}/{periodId}/events [get]
func (h *FormHandler) Events(c echo.Context) error {
	events, err := h.forms.Events(c.Request().Context(), c.Param("userId"), c.Param("periodId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

// readFile reads one uploaded file, refusing anything past maxBytes.
func readFile(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("%s exceeds the size limit", fh.Filename))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", fh.Filename, err)
	}
	defer f.Close()

	r := io.Reader(f)
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", fh.Filename, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("%s exceeds the size limit", fh.Filename))
	}
	return data, nil
}

func firstValue(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return strings.TrimSpace(vs[0])
}
