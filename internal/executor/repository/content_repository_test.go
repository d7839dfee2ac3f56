package repository

import (
	"context"
	"testing"

	"github.com/squammynoodles/influenza/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models...))
	return db
}

func TestContentRepository_FindByExternalID(t *testing.T) {
	db := testDB(t, &entity.Content{})
	repo := NewContentRepository(db)
	ctx := context.Background()

	found, err := repo.FindByExternalID(ctx, entity.ContentTypeYoutubeVideo, "vid-1")
	require.NoError(t, err)
	assert.Nil(t, found, "missing rows are (nil, nil), not an error")

	content := &entity.Content{
		InfluencerID:     1,
		ContentType:      entity.ContentTypeYoutubeVideo,
		ExternalID:       "vid-1",
		Title:            "Market Update",
		ExtractionStatus: entity.ExtractionStatusPending,
	}
	require.NoError(t, repo.Create(ctx, content))

	found, err = repo.FindByExternalID(ctx, entity.ContentTypeYoutubeVideo, "vid-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Market Update", found.Title)

	// Same external ID under a different platform type is a different row.
	found, err = repo.FindByExternalID(ctx, entity.ContentTypeTweet, "vid-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestContentRepository_UpdateExtractionStatus(t *testing.T) {
	db := testDB(t, &entity.Content{})
	repo := NewContentRepository(db)
	ctx := context.Background()

	content := &entity.Content{
		InfluencerID:     1,
		ContentType:      entity.ContentTypeTweet,
		ExternalID:       "tw-1",
		ExtractionStatus: entity.ExtractionStatusPending,
	}
	require.NoError(t, repo.Create(ctx, content))

	require.NoError(t, repo.UpdateExtractionStatus(ctx, content.ID, entity.ExtractionStatusNoContent))

	reloaded, err := repo.FindByID(ctx, content.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExtractionStatusNoContent, reloaded.ExtractionStatus)
}

func TestContentRepository_FindPending(t *testing.T) {
	db := testDB(t, &entity.Content{})
	repo := NewContentRepository(db)
	ctx := context.Background()

	pending := &entity.Content{InfluencerID: 1, ContentType: entity.ContentTypeTweet, ExternalID: "tw-1", ExtractionStatus: entity.ExtractionStatusPending}
	done := &entity.Content{InfluencerID: 1, ContentType: entity.ContentTypeTweet, ExternalID: "tw-2", ExtractionStatus: entity.ExtractionStatusCompleted}
	require.NoError(t, repo.Create(ctx, pending))
	require.NoError(t, repo.Create(ctx, done))

	contents, err := repo.FindPending(ctx)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "tw-1", contents[0].ExternalID)
}
