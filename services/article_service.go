package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"storefront/models"
)

type ArticleService struct {
	articles ArticleStore
}

func NewArticleService(articles ArticleStore) *ArticleService {
	return &ArticleService{articles: articles}
}

func (s *ArticleService) List(ctx context.Context, page, limit int) ([]models.Article, models.PaginationMeta, error) {
	page, limit = normalizePage(page, limit)
	articles, total, err := s.articles.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, models.PaginationMeta{}, err
	}
	return articles, models.NewPaginationMeta(page, limit, total), nil
}

func (s *ArticleService) Get(ctx context.Context, id int) (*models.Article, error) {
	return s.articles.GetByID(ctx, id)
}

func (s *ArticleService) LatestPublished(ctx context.Context, n int) ([]models.Article, error) {
	return s.articles.LatestPublished(ctx, n)
}

func applyArticleInput(a *models.Article, in models.ArticleInput) {
	if in.Title != nil {
		a.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	if in.AuthorID != nil {
		a.Author = models.Author{ID: *in.AuthorID}
	}
	if in.CategoryID != nil {
		a.Category = models.Category{ID: *in.CategoryID}
	}
	if in.PubDate != nil {
		a.PubDate = in.PubDate
	}
}

func validateArticle(a *models.Article) error {
	switch {
	case a.Title == "":
		return invalidf("title is required")
	case utf8.RuneCountInString(a.Title) > 200:
		return invalidf("title must be at most 200 characters")
	case a.Author.ID == 0:
		return invalidf("author_id is required")
	case a.Category.ID == 0:
		return invalidf("category_id is required")
	}
	return nil
}

func (s *ArticleService) Create(ctx context.Context, in models.ArticleInput) (*models.Article, error) {
	a := &models.Article{}
	applyArticleInput(a, in)
	if err := validateArticle(a); err != nil {
		return nil, err
	}
	var tagIDs []int
	if in.TagIDs != nil {
		tagIDs = *in.TagIDs
	}
	if err := s.articles.Create(ctx, a, tagIDs); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	return s.articles.GetByID(ctx, a.ID)
}

// Update applies the non-nil fields of in; a nil tag list keeps the tags.
func (s *ArticleService) Update(ctx context.Context, id int, in models.ArticleInput) (*models.Article, error) {
	a, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyArticleInput(a, in)
	if err := validateArticle(a); err != nil {
		return nil, err
	}
	var tagIDs []int
	if in.TagIDs != nil {
		tagIDs = *in.TagIDs
		if tagIDs == nil {
			tagIDs = []int{}
		}
	}
	if err := s.articles.Update(ctx, a, tagIDs); err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	return s.articles.GetByID(ctx, id)
}

func (s *ArticleService) Delete(ctx context.Context, id int) error {
	return s.articles.Delete(ctx, id)
}
