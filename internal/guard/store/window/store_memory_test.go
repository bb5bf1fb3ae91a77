package window

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "caregate/pkg/domain"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	window := 60 * time.Second

	t.Run("counts denials inside the window", func(t *testing.T) {
		store := NewInMemoryStore()
		for i := 1; i <= 5; i++ {
			count, err := store.RecordDenial(ctx, id.UserID("nurse-1"), base.Add(time.Duration(i)*time.Second), window)
			require.NoError(t, err)
			assert.Equal(t, i, count)
		}
	})

	t.Run("expires denials older than the window", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.RecordDenial(ctx, id.UserID("nurse-1"), base, window)
		require.NoError(t, err)

		// 61 seconds later the first denial has slid out.
		count, err := store.RecordDenial(ctx, id.UserID("nurse-1"), base.Add(61*time.Second), window)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("keeps a denial exactly at the window edge out", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.RecordDenial(ctx, id.UserID("nurse-1"), base, window)
		require.NoError(t, err)

		count, err := store.RecordDenial(ctx, id.UserID("nurse-1"), base.Add(window), window)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "a denial aged exactly window seconds is no longer recent")
	})

	t.Run("tracks users independently", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.RecordDenial(ctx, id.UserID("nurse-1"), base, window)
		require.NoError(t, err)
		_, err = store.RecordDenial(ctx, id.UserID("nurse-1"), base.Add(time.Second), window)
		require.NoError(t, err)

		count, err := store.RecordDenial(ctx, id.UserID("doctor-1"), base.Add(2*time.Second), window)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	const goroutines = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(offset int) {
			defer wg.Done()
			_, err := store.RecordDenial(ctx, id.UserID("nurse-1"), base.Add(time.Duration(offset)*time.Millisecond), time.Minute)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	count, err := store.RecordDenial(ctx, id.UserID("nurse-1"), base.Add(time.Second), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, goroutines+1, count, "concurrent denials must all be counted")
}
