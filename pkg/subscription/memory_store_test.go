package subscription_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oficaz/billing-engine/pkg/catalog"
	"github.com/oficaz/billing-engine/pkg/subscription"
)

func newSnapshot(t *testing.T) *subscription.Snapshot {
	t.Helper()

	plan, err := catalog.Default().Plan(catalog.PlanBasic)
	require.NoError(t, err)

	sub, err := subscription.New(uuid.New(), plan, 14, time.Now().UTC())
	require.NoError(t, err)
	return &subscription.Snapshot{Subscription: *sub}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create and load", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		snap := newSnapshot(t)
		require.NoError(t, store.Create(ctx, snap))

		loaded, err := store.Load(ctx, snap.Subscription.CompanyID)
		require.NoError(t, err)
		assert.Equal(t, snap.Subscription.CompanyID, loaded.Subscription.CompanyID)
	})

	t.Run("duplicate create", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		snap := newSnapshot(t)
		require.NoError(t, store.Create(ctx, snap))
		assert.ErrorIs(t, store.Create(ctx, snap), subscription.ErrAlreadyExists)
	})

	t.Run("load unknown company", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		_, err := store.Load(ctx, uuid.New())
		assert.ErrorIs(t, err, subscription.ErrNotFound)
	})

	t.Run("failed mutation rolls back", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		snap := newSnapshot(t)
		require.NoError(t, store.Create(ctx, snap))

		boom := errors.New("boom")
		err := store.Mutate(ctx, snap.Subscription.CompanyID, func(ctx context.Context, s *subscription.Snapshot) error {
			s.Subscription.Status = subscription.StatusCancelled
			return boom
		})
		assert.ErrorIs(t, err, boom)

		loaded, err := store.Load(ctx, snap.Subscription.CompanyID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusTrialing, loaded.Subscription.Status)
	})

	t.Run("load returns an independent copy", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		snap := newSnapshot(t)
		require.NoError(t, store.Create(ctx, snap))

		loaded, err := store.Load(ctx, snap.Subscription.CompanyID)
		require.NoError(t, err)
		loaded.Subscription.Status = subscription.StatusBlocked

		again, err := store.Load(ctx, snap.Subscription.CompanyID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusTrialing, again.Subscription.Status)
	})

	t.Run("concurrent mutations serialize", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		snap := newSnapshot(t)
		require.NoError(t, store.Create(ctx, snap))

		const workers = 20
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = store.Mutate(ctx, snap.Subscription.CompanyID, func(ctx context.Context, s *subscription.Snapshot) error {
					s.Subscription.ExtraSeats.Employees++
					return nil
				})
			}()
		}
		wg.Wait()

		loaded, err := store.Load(ctx, snap.Subscription.CompanyID)
		require.NoError(t, err)
		assert.Equal(t, workers, loaded.Subscription.ExtraSeats.Employees)
	})
}
