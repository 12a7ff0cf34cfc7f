package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gate-access-service/internal/domain/access"
)

func TestMemoryStore_AppendAssignsSequentialIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		event := &access.AccessEvent{Plate: "ABC12", Status: access.StatusUnauthorized, Timestamp: time.Now()}
		require.NoError(t, store.Append(ctx, event))
		assert.Equal(t, int64(i), event.ID)
	}
}

func TestMemoryStore_ConcurrentAppendsAreGapFree(t *testing.T) {
	for _, writers := range []int{1, 10, 100} {
		t.Run(fmt.Sprintf("%d writers", writers), func(t *testing.T) {
			store := NewMemoryStore()
			ctx := context.Background()

			ids := make([]int64, writers)
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					event := &access.AccessEvent{Plate: "ABC12", Status: access.StatusUnauthorized, Timestamp: time.Now()}
					assert.NoError(t, store.Append(ctx, event))
					ids[n] = event.ID
				}(i)
			}
			wg.Wait()

			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			for i, id := range ids {
				assert.Equal(t, int64(i+1), id, "ids must be strictly increasing with no gaps")
			}
		})
	}
}

func TestMemoryStore_ListRecentDescending(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		event := &access.AccessEvent{Plate: fmt.Sprintf("PLATE%d", i), Status: access.StatusAuthorized, Timestamp: time.Now()}
		require.NoError(t, store.Append(ctx, event))
	}

	events, err := store.ListRecent(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, int64(5), events[0].ID)
	assert.Equal(t, int64(4), events[1].ID)
	assert.Equal(t, int64(3), events[2].ID)

	page, err := store.ListRecent(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(2), page[0].ID)

	empty, err := store.ListRecent(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_AppendedEventsAreImmutable(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	event := &access.AccessEvent{Plate: "ABC12", Status: access.StatusAuthorized, Timestamp: time.Now()}
	require.NoError(t, store.Append(ctx, event))

	// Mutating the caller's copy must not reach the stored record.
	event.Status = access.StatusUnauthorized

	events, err := store.ListRecent(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, access.StatusAuthorized, events[0].Status)
}

func TestMemoryStore_WhitelistLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	entry := access.WhitelistEntry{Plate: "KA01AB1234", VehicleType: "Car", Owner: "Asha"}
	require.NoError(t, store.UpsertWhitelist(ctx, entry))

	got, err := store.GetWhitelistEntry(ctx, "KA01AB1234")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Asha", got.Owner)

	// Replace on conflict.
	entry.Owner = "Ravi"
	require.NoError(t, store.UpsertWhitelist(ctx, entry))
	got, err = store.GetWhitelistEntry(ctx, "KA01AB1234")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", got.Owner)

	entries, err := store.ListWhitelist(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, store.DeleteWhitelist(ctx, "KA01AB1234"))
	got, err = store.GetWhitelistEntry(ctx, "KA01AB1234")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, store.DeleteWhitelist(ctx, "KA01AB1234"), ErrNotFound)
}
