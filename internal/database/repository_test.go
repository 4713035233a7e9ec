package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/kanjibot/pkg/models"
)

func TestItemRepositoryUpsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(openTestDB(t))

	items := []models.Item{
		{ID: "kanji:二", Kind: models.KindKanji, Character: "二", Meaning: "two", Deck: "N5", Position: 2},
		{ID: "kanji:一", Kind: models.KindKanji, Character: "一", Meaning: "one", Deck: "N5", Position: 1},
		{ID: "vocab:学校", Kind: models.KindVocab, Character: "学校", Meaning: "school", Reading: "がっこう", Deck: "N5 vocab", Position: 1},
	}
	for i := range items {
		created, err := repo.Upsert(ctx, &items[i])
		require.NoError(t, err)
		assert.True(t, created)
	}

	updated := items[0]
	updated.Meaning = "two; second"
	created, err := repo.Upsert(ctx, &updated)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.GetByID(ctx, "kanji:二")
	require.NoError(t, err)
	assert.Equal(t, updated, *got)

	_, err = repo.GetByID(ctx, "kanji:九")
	assert.ErrorIs(t, err, ErrNotFound)

	n5, err := repo.List(ctx, "N5")
	require.NoError(t, err)
	require.Len(t, n5, 2)
	assert.Equal(t, "kanji:一", n5[0].ID)
	assert.Equal(t, "kanji:二", n5[1].ID)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	decks, err := repo.Decks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []DeckSummary{{Name: "N5", Items: 2}, {Name: "N5 vocab", Items: 1}}, decks)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	u, err := repo.Ensure(ctx, models.User{ID: 100, Username: "taro", FirstName: "Taro"})
	require.NoError(t, err)
	assert.True(t, u.NotificationEnabled)
	assert.Equal(t, 9, u.NotificationHour)
	assert.Equal(t, 20, u.ReviewsPerSession)

	require.NoError(t, repo.UpdateNotification(ctx, 100, true, 7))
	require.NoError(t, repo.UpdateReviewsPerSession(ctx, 100, 5))

	// Second contact refreshes the profile but keeps the settings
	u, err = repo.Ensure(ctx, models.User{ID: 100, Username: "taro_jp", FirstName: "Taro"})
	require.NoError(t, err)
	assert.Equal(t, "taro_jp", u.Username)
	assert.Equal(t, 7, u.NotificationHour)
	assert.Equal(t, 5, u.ReviewsPerSession)

	_, err = repo.Ensure(ctx, models.User{ID: 200, Username: "hanako"})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateNotification(ctx, 200, false, 7))

	users, err := repo.GetUsersForNotification(ctx, 7)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(100), users[0].ID)

	assert.ErrorIs(t, repo.UpdateNotification(ctx, 300, true, 1), ErrNotFound)
	_, err = repo.GetByID(ctx, 300)
	assert.ErrorIs(t, err, ErrNotFound)
}
