package service

import (
	"context"
	"fmt"

	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/ports"
	"github.com/sgirs-cali/portal/internal/core/wizard"
)

// CatalogService serves the survey catalog from the repository.
type CatalogService struct {
	repo ports.CatalogRepository
}

func NewCatalogService(repo ports.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// QuestionsByNumber returns the active questions of step n with their kind
// resolved from the type catalog.
func (s *CatalogService) QuestionsByNumber(ctx context.Context, n int) ([]domain.Question, error) {
	if n < 1 {
		return nil, domain.ErrQuestionNotFound
	}
	qs, err := s.repo.QuestionsByNumber(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("questions of step %d: %w", n, err)
	}
	types, err := s.repo.QuestionTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("question types: %w", err)
	}

	out := make([]domain.Question, 0, len(qs))
	for _, q := range ResolveKinds(qs, types) {
		if q.Active() {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *CatalogService) StepCount(ctx context.Context) (int, error) {
	return s.repo.StepCount(ctx)
}

func (s *CatalogService) QuestionTypes(ctx context.Context) ([]domain.QuestionType, error) {
	return s.repo.QuestionTypes(ctx)
}

func (s *CatalogService) AnswerOptions(ctx context.Context, questionIDs ...string) ([]domain.AnswerOption, error) {
	return s.repo.AnswerOptions(ctx, questionIDs...)
}

// Step assembles the catalog of step n for validation.
func (s *CatalogService) Step(ctx context.Context, n int) (wizard.Step, error) {
	qs, err := s.QuestionsByNumber(ctx, n)
	if err != nil {
		return wizard.Step{}, err
	}
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	var opts []domain.AnswerOption
	if len(ids) > 0 {
		if opts, err = s.repo.AnswerOptions(ctx, ids...); err != nil {
			return wizard.Step{}, fmt.Errorf("options of step %d: %w", n, err)
		}
	}
	return wizard.NewStep(n, qs, opts), nil
}

// ResolveKinds fills each question's Kind from its TypeID. Questions with an
// unknown type keep an empty kind and are validated leniently.
func ResolveKinds(qs []domain.Question, types []domain.QuestionType) []domain.Question {
	byID := make(map[string]domain.QuestionKind, len(types))
	for _, t := range types {
		byID[t.ID] = t.Kind
	}
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		if k, ok := byID[q.TypeID]; ok {
			q.Kind = k
		}
		out[i] = q
	}
	return out
}
