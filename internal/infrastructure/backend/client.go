// Package backend is the survey wizard's HTTP client for the portal's own
// REST API. Every call authenticates with the bearer token carried by the
// request context.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sgirs-cali/portal/internal/api/metrics"
	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/ports"
)

const defaultTimeout = 15 * time.Second

// KeyFieldPrefix is the multipart field prefix the upload endpoint expects.
const KeyFieldPrefix = ports.AttachmentKeyPrefix

// APIError is a non-2xx answer of the REST API. It unwraps to the domain
// error named by the body's code, if any.
type APIError struct {
	Status  int
	Code    string
	Message string
	err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.err }

// StatusCode returns the HTTP status the REST API answered with.
func (e *APIError) StatusCode() int { return e.Status }

// Client implements ports.SurveyBackend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.SurveyBackend = (*Client)(nil)

// New returns a client for the API rooted at baseURL (e.g.
// "http://localhost:8080/api").
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type formRequest struct {
	UserID   string          `json:"user_id"`
	PeriodID string          `json:"period_id"`
	Answers  []domain.Answer `json:"answers"`
}

type patchRequest struct {
	Answers []domain.Answer `json:"answers"`
}

type stepsResponse struct {
	Total int `json:"total"`
}

func (c *Client) Periods(ctx context.Context) ([]domain.SurveyPeriod, error) {
	var out []domain.SurveyPeriod
	err := c.do(ctx, "periods", http.MethodGet, "/periods/active", nil, &out)
	return out, err
}

func (c *Client) VerifyForm(ctx context.Context, periodID string) ([]domain.FormSession, error) {
	var out []domain.FormSession
	err := c.do(ctx, "verify", http.MethodGet, "/form/verify/"+url.PathEscape(periodID), nil, &out)
	return out, err
}

func (c *Client) QuestionsByNumber(ctx context.Context, n int) ([]domain.Question, error) {
	var out []domain.Question
	err := c.do(ctx, "questions", http.MethodGet, "/questions/by-number/"+strconv.Itoa(n), nil, &out)
	return out, err
}

func (c *Client) StepCount(ctx context.Context) (int, error) {
	var out stepsResponse
	if err := c.do(ctx, "steps", http.MethodGet, "/questions/steps", nil, &out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

func (c *Client) QuestionTypes(ctx context.Context) ([]domain.QuestionType, error) {
	var out []domain.QuestionType
	err := c.do(ctx, "question_types", http.MethodGet, "/question-types", nil, &out)
	return out, err
}

func (c *Client) AnswerOptions(ctx context.Context) ([]domain.AnswerOption, error) {
	var out []domain.AnswerOption
	err := c.do(ctx, "answer_options", http.MethodGet, "/answer-options", nil, &out)
	return out, err
}

func (c *Client) CreateForm(ctx context.Context, userID, periodID string, answers []domain.Answer) error {
	return c.do(ctx, "create", http.MethodPost, "/form/create", formRequest{userID, periodID, nonNil(answers)}, nil)
}

func (c *Client) PatchForm(ctx context.Context, userID, periodID string, answers []domain.Answer) error {
	path := "/form/" + url.PathEscape(userID) + "/" + url.PathEscape(periodID)
	return c.do(ctx, "patch", http.MethodPatch, path, patchRequest{nonNil(answers)}, nil)
}

func (c *Client) CompleteForm(ctx context.Context, userID, periodID string, answers []domain.Answer) error {
	return c.do(ctx, "complete", http.MethodPost, "/form/complete", formRequest{userID, periodID, nonNil(answers)}, nil)
}

// UploadAttachments sends every file in one multipart request. Each file
// part is named after its question id; its storage key goes in the text
// field KeyFieldPrefix+questionID.
func (c *Client) UploadAttachments(ctx context.Context, periodID string, files []ports.AttachmentUpload) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		if err := mw.WriteField(KeyFieldPrefix+f.QuestionID, f.Key); err != nil {
			return fmt.Errorf("upload: write key: %w", err)
		}
		part, err := mw.CreateFormFile(f.QuestionID, f.Name)
		if err != nil {
			return fmt.Errorf("upload: create part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("upload: write part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("upload: close multipart: %w", err)
	}

	path := "/form/upload-attachments?period=" + url.QueryEscape(periodID)
	return c.send(ctx, "upload", http.MethodPost, path, &body, mw.FormDataContentType(), nil)
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", endpoint, err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.send(ctx, endpoint, method, path, body, contentType, out)
}

func (c *Client) send(ctx context.Context, endpoint, method, path string, body io.Reader, contentType string, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.BackendRequestDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := ports.TokenFromContext(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s: %w", endpoint, err)
		}
		return fmt.Errorf("%s: %w: %v", endpoint, domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", endpoint, decodeError(resp))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", endpoint, err)
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	var envelope struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &envelope)

	e := &APIError{Status: resp.StatusCode, Code: envelope.Code, Message: envelope.Error}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	e.err = domain.ErrorFromCode(envelope.Code)
	if e.err == nil {
		switch {
		case resp.StatusCode >= 500:
			e.err = domain.ErrBackendUnavailable
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			e.err = domain.ErrForbidden
		}
	}
	return e
}

func nonNil(answers []domain.Answer) []domain.Answer {
	if answers == nil {
		return []domain.Answer{}
	}
	return answers
}
