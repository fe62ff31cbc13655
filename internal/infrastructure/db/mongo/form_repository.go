package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// FormRepository stores one form session per (user_id, period_id).
type FormRepository struct {
	col *mongo.Collection
}

func NewFormRepository(db *mongo.Database) *FormRepository {
	return &FormRepository{col: db.Collection(collectionForms)}
}

func (r *FormRepository) Find(ctx context.Context, userID, periodID string) (*domain.FormSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var f domain.FormSession
	err := r.col.FindOne(ctx, bson.M{"user_id": userID, "period_id": periodID}).Decode(&f)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrFormNotFound
		}
		return nil, fmt.Errorf("find form: %w", err)
	}
	return &f, nil
}

func (r *FormRepository) Create(ctx context.Context, f *domain.FormSession) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if f.ID == "" {
		f.ID = primitive.NewObjectID().Hex()
	}
	if f.Answers == nil {
		f.Answers = []domain.Answer{}
	}
	if _, err := r.col.InsertOne(ctx, f); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrFormExists
		}
		return err
	}
	return nil
}

// ReplaceAnswers only touches sessions still in progress.
func (r *FormRepository) ReplaceAnswers(ctx context.Context, userID, periodID string, answers []domain.Answer, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if answers == nil {
		answers = []domain.Answer{}
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID, "period_id": periodID, "completed": false},
		bson.M{"$set": bson.M{"answers": answers, "updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("replace answers: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if _, err := r.Find(ctx, userID, periodID); err != nil {
		return err
	}
	return domain.ErrFormCompleted
}

// Complete upserts the final answers. A session already completed makes the
// upsert collide with the unique (user_id, period_id) index.
func (r *FormRepository) Complete(ctx context.Context, userID, periodID string, answers []domain.Answer, at time.Time) (*domain.FormSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if answers == nil {
		answers = []domain.Answer{}
	}
	update := bson.M{
		"$set": bson.M{
			"answers":      answers,
			"status":       domain.FormCompleted,
			"completed":    true,
			"completed_at": at,
			"updated_at":   at,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID().Hex(),
			"created_at": at,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var f domain.FormSession
	err := r.col.FindOneAndUpdate(ctx, bson.M{"user_id": userID, "period_id": periodID, "completed": false}, update, opts).Decode(&f)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrFormCompleted
		}
		return nil, fmt.Errorf("complete form: %w", err)
	}
	return &f, nil
}

// Summaries counts sessions per period.
func (r *FormRepository) Summaries(ctx context.Context) ([]domain.PeriodSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$period_id"},
			{Key: "total", Value: bson.M{"$sum": 1}},
			{Key: "completed", Value: bson.M{"$sum": bson.M{"$cond": bson.A{"$completed", 1, 0}}}},
			{Key: "in_progress", Value: bson.M{"$sum": bson.M{"$cond": bson.A{"$completed", 0, 1}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate forms: %w", err)
	}
	out := []domain.PeriodSummary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode summaries: %w", err)
	}
	return out, nil
}

// EnsureIndexes enforces one session per citizen and period.
func (r *FormRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "period_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "period_id", Value: 1}, {Key: "completed", Value: 1}}},
	})
	return err
}
