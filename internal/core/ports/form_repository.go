package ports

import (
	"context"
	"time"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// FormRepository persists form sessions. (user_id, period_id) is unique.
type FormRepository interface {
	// Find returns the session of user for period, or domain.ErrFormNotFound.
	Find(ctx context.Context, userID, periodID string) (*domain.FormSession, error)
	// Create inserts a session; domain.ErrFormExists on a duplicate pair.
	Create(ctx context.Context, f *domain.FormSession) error
	// ReplaceAnswers overwrites the answers of a session that is not
	// completed. domain.ErrFormNotFound if there is none.
	ReplaceAnswers(ctx context.Context, userID, periodID string, answers []domain.Answer, at time.Time) error
	// Complete stores the final answers and flips the session to completed,
	// creating it if needed. domain.ErrFormCompleted if already completed.
	Complete(ctx context.Context, userID, periodID string, answers []domain.Answer, at time.Time) (*domain.FormSession, error)
	Summaries(ctx context.Context) ([]domain.PeriodSummary, error)
}

// FormEventRepository persists the form audit trail.
type FormEventRepository interface {
	Insert(ctx context.Context, e *domain.FormEvent) error
	List(ctx context.Context, userID, periodID string) ([]domain.FormEvent, error)
}

// AttachmentStore keeps uploaded files.
type AttachmentStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}
