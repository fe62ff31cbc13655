package ports

import (
	"context"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// SurveyBackend is the REST API as seen from the portal's survey wizard.
// Calls authenticate with the token carried by ctx (see ContextWithToken).
type SurveyBackend interface {
	Periods(ctx context.Context) ([]domain.SurveyPeriod, error)
	VerifyForm(ctx context.Context, periodID string) ([]domain.FormSession, error)
	QuestionsByNumber(ctx context.Context, n int) ([]domain.Question, error)
	StepCount(ctx context.Context) (int, error)
	QuestionTypes(ctx context.Context) ([]domain.QuestionType, error)
	AnswerOptions(ctx context.Context) ([]domain.AnswerOption, error)
	CreateForm(ctx context.Context, userID, periodID string, answers []domain.Answer) error
	PatchForm(ctx context.Context, userID, periodID string, answers []domain.Answer) error
	UploadAttachments(ctx context.Context, periodID string, files []AttachmentUpload) error
	CompleteForm(ctx context.Context, userID, periodID string, answers []domain.Answer) error
}

type tokenKey struct{}

// ContextWithToken returns ctx carrying the caller's bearer token.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token set by ContextWithToken.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}
