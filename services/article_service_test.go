package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
	"storefront/services/servicetest"
)

func TestArticleLifecycle(t *testing.T) {
	store := &servicetest.Articles{}
	svc := NewArticleService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.ArticleInput{Title: ptr("No author")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	published := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a, err := svc.Create(ctx, models.ArticleInput{
		Title:      ptr("Hello"),
		Content:    ptr("Body"),
		AuthorID:   ptr(1),
		CategoryID: ptr(2),
		TagIDs:     ptr([]int{3, 4}),
		PubDate:    &published,
	})
	require.NoError(t, err)
	assert.Len(t, a.Tags, 2)

	a, err = svc.Update(ctx, a.ID, models.ArticleInput{Title: ptr("Hello again")})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", a.Title)
	assert.Len(t, a.Tags, 2, "nil tag list keeps tags")

	latest, err := svc.LatestPublished(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, latest, 1)

	require.NoError(t, svc.Delete(ctx, a.ID))
	_, err = svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
