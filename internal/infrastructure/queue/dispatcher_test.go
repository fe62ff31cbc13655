package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

type recordingRepo struct {
	mu     sync.Mutex
	err    error
	events []domain.FormEvent
}

func (r *recordingRepo) Insert(_ context.Context, e *domain.FormEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *recordingRepo) List(context.Context, string, string) ([]domain.FormEvent, error) {
	return nil, nil
}

func (r *recordingRepo) snapshot() []domain.FormEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.FormEvent(nil), r.events...)
}

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	types := []string{domain.FormEventCreated, domain.FormEventPatched, domain.FormEventUploaded, domain.FormEventCompleted}
	for _, typ := range types {
		d.Enqueue(domain.FormEvent{UserID: "u-1", PeriodID: "p", Type: typ})
		d.Enqueue(domain.FormEvent{UserID: "u-2", PeriodID: "p", Type: typ})
	}

	require.Eventually(t, func() bool { return len(repo.snapshot()) == 2*len(types) }, 2*time.Second, 10*time.Millisecond)
	cancel()
	d.Wait()

	var got []string
	for _, e := range repo.snapshot() {
		if e.UserID == "u-1" {
			got = append(got, e.Type)
		}
	}
	assert.Equal(t, types, got)
}

func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())

	for i := 0; i < 10; i++ {
		d.Enqueue(domain.FormEvent{UserID: "u-1", Type: domain.FormEventPatched})
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	assert.Len(t, repo.snapshot(), 10)
}

func TestDispatcher_WriteErrorDoesNotStopWorker(t *testing.T) {
	repo := &recordingRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Enqueue(domain.FormEvent{UserID: "u-1", Type: domain.FormEventCreated})
	time.Sleep(50 * time.Millisecond)

	repo.mu.Lock()
	repo.err = nil
	repo.mu.Unlock()
	d.Enqueue(domain.FormEvent{UserID: "u-1", Type: domain.FormEventPatched})

	require.Eventually(t, func() bool { return len(repo.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	d.Wait()
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingRepo{}, zerolog.Nop())
	first := d.shardIndex("u-42")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, d.shardIndex("u-42"))
	}
	assert.Len(t, d.workers, 8)
	assert.Len(t, NewDispatcher(0, &recordingRepo{}, zerolog.Nop()).workers, defaultWorkers)
}
