package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sgirs-cali/portal/internal/core/domain"
	"github.com/sgirs-cali/portal/internal/core/ports"
)

var _ ports.FormEventRepository = (*FormEventRepository)(nil)

// FormEventRepository persists the form audit trail in MongoDB.
type FormEventRepository struct {
	col *mongo.Collection
}

// NewFormEventRepository creates a new FormEventRepository.
func NewFormEventRepository(db *mongo.Database) *FormEventRepository {
	return &FormEventRepository{col: db.Collection(collectionFormEvents)}
}

// Insert persists an audit event to the form_events collection.
func (r *FormEventRepository) Insert(ctx context.Context, e *domain.FormEvent) error {
	doc := bson.M{
		"user_id":      e.UserID,
		"period_id":    e.PeriodID,
		"type":         e.Type,
		"answers":      e.Answers,
		"actor_id":     e.ActorID,
		"occurred_at":  e.OccurredAt.UTC(),
		"processed_at": time.Now().UTC(),
	}
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

// List returns the trail of one session, oldest first.
func (r *FormEventRepository) List(ctx context.Context, userID, periodID string) ([]domain.FormEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID, "period_id": periodID},
		options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list form events: %w", err)
	}
	out := []domain.FormEvent{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode form events: %w", err)
	}
	return out, nil
}

func (r *FormEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "period_id", Value: 1}, {Key: "occurred_at", Value: 1}},
	})
	return err
}
