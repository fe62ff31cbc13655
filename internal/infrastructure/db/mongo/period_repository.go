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

type PeriodRepository struct {
	col *mongo.Collection
}

func NewPeriodRepository(db *mongo.Database) *PeriodRepository {
	return &PeriodRepository{col: db.Collection(collectionPeriods)}
}

// List returns every period, most recent first.
func (r *PeriodRepository) List(ctx context.Context) ([]domain.SurveyPeriod, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "starts_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	out := []domain.SurveyPeriod{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode periods: %w", err)
	}
	return out, nil
}

func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*domain.SurveyPeriod, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.SurveyPeriod
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPeriodNotFound
		}
		return nil, fmt.Errorf("find period: %w", err)
	}
	return &p, nil
}

func (r *PeriodRepository) Create(ctx context.Context, p *domain.SurveyPeriod) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, p)
	return err
}

// Activate flags id active, then clears the flag on every other period.
func (r *PeriodRepository) Activate(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"active": true}})
	if err != nil {
		return fmt.Errorf("activate period: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPeriodNotFound
	}
	if _, err := r.col.UpdateMany(ctx, bson.M{"_id": bson.M{"$ne": id}, "active": true}, bson.M{"$set": bson.M{"active": false}}); err != nil {
		return fmt.Errorf("deactivate periods: %w", err)
	}
	return nil
}

func (r *PeriodRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "active", Value: 1}}},
		{Keys: bson.D{{Key: "starts_at", Value: -1}}},
	})
	return err
}
