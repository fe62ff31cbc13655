package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// CatalogRepository reads questions, question types and answer options.
type CatalogRepository struct {
	questions *mongo.Collection
	types     *mongo.Collection
	options   *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		questions: db.Collection(collectionQuestions),
		types:     db.Collection(collectionQuestionTypes),
		options:   db.Collection(collectionOptions),
	}
}

func (r *CatalogRepository) QuestionsByNumber(ctx context.Context, n int) ([]domain.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.questions.Find(ctx, bson.M{"number": n}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	out := []domain.Question{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return out, nil
}

// StepCount is the highest question number among active questions; zero
// for an empty catalog.
func (r *CatalogRepository) StepCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var q domain.Question
	err := r.questions.FindOne(ctx,
		bson.M{"status": bson.M{"$ne": domain.QuestionInactive}},
		options.FindOne().SetSort(bson.D{{Key: "number", Value: -1}}).SetProjection(bson.M{"number": 1}),
	).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("step count: %w", err)
	}
	return q.Number, nil
}

func (r *CatalogRepository) QuestionTypes(ctx context.Context) ([]domain.QuestionType, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.types.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find question types: %w", err)
	}
	out := []domain.QuestionType{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode question types: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) AnswerOptions(ctx context.Context, questionIDs ...string) ([]domain.AnswerOption, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if len(questionIDs) > 0 {
		filter["question_id"] = bson.M{"$in": questionIDs}
	}
	cur, err := r.options.Find(ctx, filter, options.Find().SetSort(bson.D{
		{Key: "question_id", Value: 1},
		{Key: "order", Value: 1},
	}))
	if err != nil {
		return nil, fmt.Errorf("find answer options: %w", err)
	}
	out := []domain.AnswerOption{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode answer options: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	if _, err := r.questions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "number", Value: 1}, {Key: "order", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("question indexes: %w", err)
	}
	_, err := r.options.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "question_id", Value: 1}, {Key: "order", Value: 1}},
	})
	return err
}
