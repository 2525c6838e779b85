package history

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRingTrimsToSize(t *testing.T) {
	store := NewMemory(DefaultSize)
	ctx := context.Background()

	const n = 150
	for i := 0; i < n; i++ {
		require.NoError(t, store.Append(ctx, "ABCD", []byte(fmt.Sprintf(`{"seq":%d}`, i))))
	}

	got, err := store.Recent(ctx, "ABCD", DefaultSize)
	require.NoError(t, err)
	require.Len(t, got, DefaultSize)

	// Newest first: the last append is at the head, the oldest surviving
	// entry is append n-100.
	assert.JSONEq(t, fmt.Sprintf(`{"seq":%d}`, n-1), string(got[0]))
	assert.JSONEq(t, fmt.Sprintf(`{"seq":%d}`, n-DefaultSize), string(got[DefaultSize-1]))
}

func TestMemoryRecentLimit(t *testing.T) {
	store := NewMemory(DefaultSize)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Append(ctx, "ABCD", []byte(fmt.Sprintf(`{"seq":%d}`, i))))
	}

	got, err := store.Recent(ctx, "ABCD", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.JSONEq(t, `{"seq":9}`, string(got[0]))
	assert.JSONEq(t, `{"seq":7}`, string(got[2]))
}

func TestMemoryUnknownSessionIsEmpty(t *testing.T) {
	store := NewMemory(DefaultSize)
	got, err := store.Recent(context.Background(), "NOPE", DefaultSize)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemorySessionsAreIsolated(t *testing.T) {
	store := NewMemory(DefaultSize)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "AAAA", []byte(`{"s":"a"}`)))
	require.NoError(t, store.Append(ctx, "BBBB", []byte(`{"s":"b"}`)))

	got, err := store.Recent(ctx, "AAAA", DefaultSize)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"s":"a"}`, string(got[0]))
}

func TestMemoryConcurrentAppends(t *testing.T) {
	store := NewMemory(DefaultSize)
	ctx := context.Background()

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_ = store.Append(ctx, "ABCD", []byte(fmt.Sprintf(`{"w":%d,"i":%d}`, w, i)))
			}
		}(w)
	}
	wg.Wait()

	got, err := store.Recent(ctx, "ABCD", DefaultSize)
	require.NoError(t, err)
	// 400 appends through a 100-entry ring: exactly the cap survives, no
	// lost updates below it and no duplicates above it.
	assert.Len(t, got, DefaultSize)
}
