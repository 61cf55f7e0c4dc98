package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/station-health/internal/health"
)

var _ health.Store = (*MemoryStore)(nil)

func rec(ts int64) health.Record {
	return health.Record{DateTime: ts, USUnits: health.USUnits, Interval: 1}
}

func TestMemoryStoreKeepsDateTimeOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.AddRecord(ctx, rec(300)))
	require.NoError(t, s.AddRecord(ctx, rec(100)))
	require.NoError(t, s.AddRecord(ctx, rec(200)))

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(300), latest.DateTime)

	got, err := s.Range(ctx, 0, 1000)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(100), got[0].DateTime)
	assert.Equal(t, int64(200), got[1].DateTime)
}

func TestMemoryStoreRejectsDuplicateDateTime(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.AddRecord(ctx, rec(100)))
	assert.Error(t, s.AddRecord(ctx, rec(100)))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreDeleteBeforeBoundary(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	const now = int64(3_000_000)
	const maxAge = int64(2_592_000)
	cutoff := now - maxAge

	for _, ts := range []int64{cutoff - 60, cutoff - 1, cutoff, cutoff + 1, now} {
		require.NoError(t, s.AddRecord(ctx, rec(ts)))
	}

	n, err := s.DeleteBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.Range(ctx, 0, now)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, cutoff, got[0].DateTime)

	n, err = s.DeleteBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStoreMaxHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	for ts := int64(1); ts <= 4; ts++ {
		require.NoError(t, s.AddRecord(ctx, rec(ts)))
	}

	got, err := s.Range(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].DateTime)
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, err := s.Latest(ctx)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.AddRecord(ctx, rec(100)))
	_, err = s.Range(ctx, 200, 300)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStoreColumnsMatchSchema(t *testing.T) {
	cols, err := NewMemoryStore(0).Columns(context.Background())
	require.NoError(t, err)
	assert.NoError(t, health.CheckSchema(cols))
}
