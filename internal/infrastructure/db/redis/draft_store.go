package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sgirs-cali/portal/internal/core/wizard"
)

const defaultDraftTTL = 7 * 24 * time.Hour

// DraftStore keeps wizard snapshots as JSON, one key per citizen.
// Key format: wizard:draft:<user_id>
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore creates a DraftStore. Every save refreshes the TTL.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	return &DraftStore{client: client, ttl: ttl}
}

func (d *DraftStore) Load(ctx context.Context, userID string) (wizard.Snapshot, bool, error) {
	raw, err := d.client.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return wizard.Snapshot{}, false, nil
	}
	if err != nil {
		return wizard.Snapshot{}, false, fmt.Errorf("draft get: %w", err)
	}
	var snap wizard.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return wizard.Snapshot{}, false, fmt.Errorf("draft decode: %w", err)
	}
	return snap, true, nil
}

func (d *DraftStore) Save(ctx context.Context, userID string, snap wizard.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("draft encode: %w", err)
	}
	return d.client.Set(ctx, draftKey(userID), raw, d.ttl).Err()
}

func draftKey(userID string) string {
	return "wizard:draft:" + userID
}
