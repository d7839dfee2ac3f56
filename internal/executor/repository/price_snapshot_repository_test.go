package repository

import (
	"context"
	"testing"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestBulkUpsert_InsertsAndOverwrites(t *testing.T) {
	db := testDB(t, &entity.PriceSnapshot{})
	repo := NewPriceSnapshotRepository(db)
	ctx := context.Background()

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	points := []dto.PricePoint{
		{Timestamp: day, Open: floatPtr(100), Close: floatPtr(105)},
		{Timestamp: day.AddDate(0, 0, 1), Open: floatPtr(105), Close: floatPtr(110)},
	}

	written, err := repo.BulkUpsert(ctx, 1, points)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	// A second run with a revised close overwrites in place.
	points[0].Close = floatPtr(107)
	written, err = repo.BulkUpsert(ctx, 1, points)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	snapshots, err := repo.FindByAsset(ctx, 1)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, 107.0, snapshots[0].Close)
	assert.Equal(t, 110.0, snapshots[1].Close)
}

func TestBulkUpsert_DropsPointsWithoutClose(t *testing.T) {
	db := testDB(t, &entity.PriceSnapshot{})
	repo := NewPriceSnapshotRepository(db)
	ctx := context.Background()

	points := []dto.PricePoint{
		{Timestamp: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
	}

	written, err := repo.BulkUpsert(ctx, 1, points)
	require.NoError(t, err)
	assert.Zero(t, written)
}

func TestExistsForAsset(t *testing.T) {
	db := testDB(t, &entity.PriceSnapshot{})
	repo := NewPriceSnapshotRepository(db)
	ctx := context.Background()

	exists, err := repo.ExistsForAsset(ctx, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.BulkUpsert(ctx, 1, []dto.PricePoint{
		{Timestamp: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Close: floatPtr(100)},
	})
	require.NoError(t, err)

	exists, err = repo.ExistsForAsset(ctx, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForAsset(ctx, 2)
	require.NoError(t, err)
	assert.False(t, exists)
}
