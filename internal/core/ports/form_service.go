package ports

import (
	"context"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// AttachmentKeyPrefix prefixes the multipart text field carrying the storage
// key of the file uploaded under the same question id.
const AttachmentKeyPrefix = "key."

// AttachmentUpload is one file received by the upload endpoint.
type AttachmentUpload struct {
	QuestionID string
	Name       string
	Key        string
	Data       []byte
}

// FormService is the authoritative side of form sessions.
type FormService interface {
	// Verify returns the caller's sessions for the period: empty or one.
	Verify(ctx context.Context, userID, periodID string) ([]domain.FormSession, error)
	Create(ctx context.Context, actor domain.Principal, userID, periodID string, answers []domain.Answer) (*domain.FormSession, error)
	Patch(ctx context.Context, actor domain.Principal, userID, periodID string, answers []domain.Answer) error
	UploadAttachments(ctx context.Context, actor domain.Principal, periodID string, files []AttachmentUpload) ([]domain.Attachment, error)
	Complete(ctx context.Context, actor domain.Principal, userID, periodID string, answers []domain.Answer) (*domain.FormSession, error)
	Events(ctx context.Context, userID, periodID string) ([]domain.FormEvent, error)
	Summaries(ctx context.Context) ([]domain.PeriodSummary, error)
}

// AuditSink receives form audit events for asynchronous persistence.
type AuditSink interface {
	Enqueue(e domain.FormEvent)
}
