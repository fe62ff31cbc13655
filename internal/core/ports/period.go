package ports

import (
	"context"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// PeriodRepository persists survey periods.
type PeriodRepository interface {
	List(ctx context.Context) ([]domain.SurveyPeriod, error)
	FindByID(ctx context.Context, id string) (*domain.SurveyPeriod, error)
	Create(ctx context.Context, p *domain.SurveyPeriod) error
	// Activate marks period id active and every other period inactive.
	Activate(ctx context.Context, id string) error
}

// PeriodService manages survey periods.
type PeriodService interface {
	List(ctx context.Context) ([]domain.SurveyPeriod, error)
	Get(ctx context.Context, id string) (*domain.SurveyPeriod, error)
	Create(ctx context.Context, p domain.SurveyPeriod) (*domain.SurveyPeriod, error)
	Activate(ctx context.Context, id string) (*domain.SurveyPeriod, error)
}
