package service

import (
	"context"
	"testing"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/internal/executor/repository"
	"github.com/squammynoodles/influenza/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakePriceRepo struct {
	points []dto.PricePoint
	err    error
	calls  int
	days   int
}

func (f *fakePriceRepo) Historical(_ context.Context, _ *entity.Asset, days int) ([]dto.PricePoint, error) {
	f.calls++
	f.days = days
	return f.points, f.err
}

type priceFixture struct {
	svc          PriceFetchService
	db           *gorm.DB
	snapshotRepo repository.PriceSnapshotRepository
	coingecko    *fakePriceRepo
	yahoo        *fakePriceRepo
}

func newPriceFixture(t *testing.T) *priceFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Asset{}, &entity.PriceSnapshot{}))

	log, err := logger.New("error", "console")
	require.NoError(t, err)

	f := &priceFixture{
		db:           db,
		snapshotRepo: repository.NewPriceSnapshotRepository(db),
		coingecko:    &fakePriceRepo{},
		yahoo:        &fakePriceRepo{},
	}
	f.svc = NewPriceFetchService(&config.Config{}, log, nil,
		repository.NewAssetRepository(db), f.snapshotRepo,
		f.coingecko, f.yahoo, &fakeNotifier{})
	return f
}

func (f *priceFixture) createAsset(t *testing.T, asset *entity.Asset) *entity.Asset {
	t.Helper()
	require.NoError(t, f.db.Create(asset).Error)
	return asset
}

func closePtr(v float64) *float64 { return &v }

func TestFetchPrices_IngestsProviderPoints(t *testing.T) {
	f := newPriceFixture(t)
	asset := f.createAsset(t, &entity.Asset{Symbol: "BTC", Name: "Bitcoin", AssetClass: entity.AssetClassCrypto})

	now := time.Now().UTC().Truncate(time.Hour)
	f.coingecko.points = []dto.PricePoint{
		{Timestamp: now.Add(-time.Hour), Close: closePtr(101)},
		{Timestamp: now, Close: closePtr(102)},
	}

	require.NoError(t, f.svc.FetchPrices(context.Background(), asset.ID, 7))

	assert.Equal(t, 1, f.coingecko.calls)
	assert.Equal(t, 7, f.coingecko.days)
	assert.Equal(t, 0, f.yahoo.calls)

	exists, err := f.snapshotRepo.ExistsForAsset(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFetchPrices_UnknownAssetClassIsNoOp(t *testing.T) {
	f := newPriceFixture(t)
	asset := f.createAsset(t, &entity.Asset{Symbol: "VMOT", Name: "Odd Fund", AssetClass: "bond"})

	require.NoError(t, f.svc.FetchPrices(context.Background(), asset.ID, 7))

	assert.Equal(t, 0, f.coingecko.calls)
	assert.Equal(t, 0, f.yahoo.calls)
}

func TestFetchPrices_DeletedAssetIsDiscarded(t *testing.T) {
	f := newPriceFixture(t)

	// A nil error acks the message instead of leaving it for the retry claimer.
	require.NoError(t, f.svc.FetchPrices(context.Background(), 999, 7))

	assert.Equal(t, 0, f.coingecko.calls)
	assert.Equal(t, 0, f.yahoo.calls)
}
