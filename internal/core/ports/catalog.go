package ports

import (
	"context"

	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/wizard"
)

// CatalogRepository reads the survey catalog.
type CatalogRepository interface {
	// QuestionsByNumber returns every question of step n, active or not.
	QuestionsByNumber(ctx context.Context, n int) ([]domain.Question, error)
	// StepCount returns the highest question number among active questions.
	StepCount(ctx context.Context) (int, error)
	QuestionTypes(ctx context.Context) ([]domain.QuestionType, error)
	// AnswerOptions returns options of the given questions, or all options
	// when no id is given.
	AnswerOptions(ctx context.Context, questionIDs ...string) ([]domain.AnswerOption, error)
}

// CatalogService serves the survey catalog.
type CatalogService interface {
	QuestionsByNumber(ctx context.Context, n int) ([]domain.Question, error)
	StepCount(ctx context.Context) (int, error)
	QuestionTypes(ctx context.Context) ([]domain.QuestionType, error)
	AnswerOptions(ctx context.Context, questionIDs ...string) ([]domain.AnswerOption, error)
	// Step assembles the validated catalog of step n.
	Step(ctx context.Context, n int) (wizard.Step, error)
}
