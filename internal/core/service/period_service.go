package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/ports"
)

// PeriodService manages survey periods and keeps at most one active.
type PeriodService struct {
	repo   ports.PeriodRepository
	logger zerolog.Logger
}

func NewPeriodService(repo ports.PeriodRepository, logger zerolog.Logger) *PeriodService {
	return &PeriodService{repo: repo, logger: logger}
}

func (s *PeriodService) List(ctx context.Context) ([]domain.SurveyPeriod, error) {
	return s.repo.List(ctx)
}

func (s *PeriodService) Get(ctx context.Context, id string) (*domain.SurveyPeriod, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a new, inactive period.
func (s *PeriodService) Create(ctx context.Context, p domain.SurveyPeriod) (*domain.SurveyPeriod, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || (!p.EndsAt.IsZero() && p.EndsAt.Before(p.StartsAt)) {
		return nil, domain.ErrInvalidPeriod
	}
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	p.Active = false
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("period_id", p.ID).Str("name", p.Name).Msg("survey period created")
	return &p, nil
}

// Activate makes period id the only active one.
func (s *PeriodService) Activate(ctx context.Context, id string) (*domain.SurveyPeriod, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Activate(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info().Str("period_id", id).Msg("survey period activated")
	return s.repo.FindByID(ctx, id)
}

// SelectPeriod picks the period the wizard works on: the first flagged
// active, else the first entry.
func SelectPeriod(periods []domain.SurveyPeriod) (domain.SurveyPeriod, error) {
	if len(periods) == 0 {
		return domain.SurveyPeriod{}, domain.ErrNoPeriod
	}
	for _, p := range periods {
		if p.Active {
			return p, nil
		}
	}
	return periods[0], nil
}
