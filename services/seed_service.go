package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"storefront/models"
)

type SeedUserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	BindGroup(ctx context.Context, userID int, g *models.Group) error
	GrantPermission(ctx context.Context, userID int, codename string) error
}

type SeedArticleStore interface {
	FindByTitle(ctx context.Context, title string) (*models.Article, error)
	AuthorByName(ctx context.Context, name string) (*models.Author, error)
	CategoryByName(ctx context.Context, name string) (*models.Category, error)
	Tags(ctx context.Context) ([]models.Tag, error)
	Create(ctx context.Context, a *models.Article, tagIDs []int) error
	Update(ctx context.Context, a *models.Article, tagIDs []int) error
}

// SeedService backs the maintenance commands in cmd/manage.
type SeedService struct {
	products ProductStore
	orders   OrderStore
	users    SeedUserStore
	articles SeedArticleStore
}

func NewSeedService(products ProductStore, orders OrderStore, users SeedUserStore, articles SeedArticleStore) *SeedService {
	return &SeedService{products: products, orders: orders, users: users, articles: articles}
}

type OrderSeed struct {
	Username        string
	DeliveryAddress string
	Promocode       string
}

type ArticleSeed struct {
	Title    string
	Content  string
	Author   string
	Category string
}

type ProductName struct {
	PK   int    `json:"pk"`
	Name string `json:"name"`
}

func missing(what, name string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s %q: %w", what, name, err)
	}
	return err
}

// SeedOrder finds the order of seed.Username with the same address and
// promocode, creating it when absent, and links every product to it. The
// bool reports whether the order was created.
func (s *SeedService) SeedOrder(ctx context.Context, seed OrderSeed) (*models.Order, bool, error) {
	user, err := s.users.FindByUsername(ctx, seed.Username)
	if err != nil {
		return nil, false, missing("user", seed.Username, err)
	}
	products, _, err := s.products.List(ctx, models.ProductFilter{IncludeArchived: true})
	if err != nil {
		return nil, false, fmt.Errorf("list products: %w", err)
	}
	ids := make([]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	existing, _, err := s.orders.List(ctx, models.OrderFilter{
		UserID:          &user.ID,
		DeliveryAddress: &seed.DeliveryAddress,
		Promocode:       &seed.Promocode,
		Limit:           1,
	})
	if err != nil {
		return nil, false, fmt.Errorf("find order: %w", err)
	}

	created := len(existing) == 0
	var o models.Order
	if created {
		o = models.Order{DeliveryAddress: seed.DeliveryAddress, Promocode: seed.Promocode, UserID: user.ID}
		err = s.orders.Create(ctx, &o, ids)
	} else {
		o = existing[0]
		err = s.orders.Update(ctx, &o, ids)
	}
	if err != nil {
		return nil, false, fmt.Errorf("save order: %w", err)
	}
	out, err := s.orders.GetByID(ctx, o.ID)
	return out, created, err
}

// SeedArticle finds the article titled seed.Title, creating it when absent,
// and tags it with every tag.
func (s *SeedService) SeedArticle(ctx context.Context, seed ArticleSeed) (*models.Article, bool, error) {
	author, err := s.articles.AuthorByName(ctx, seed.Author)
	if err != nil {
		return nil, false, missing("author", seed.Author, err)
	}
	category, err := s.articles.CategoryByName(ctx, seed.Category)
	if err != nil {
		return nil, false, missing("category", seed.Category, err)
	}
	tags, err := s.articles.Tags(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("list tags: %w", err)
	}
	tagIDs := make([]int, len(tags))
	for i, t := range tags {
		tagIDs[i] = t.ID
	}

	a, err := s.articles.FindByTitle(ctx, seed.Title)
	switch {
	case errors.Is(err, ErrNotFound):
		a = &models.Article{Title: seed.Title, Content: seed.Content, Author: *author, Category: *category}
		if err := s.articles.Create(ctx, a, tagIDs); err != nil {
			return nil, false, fmt.Errorf("create article: %w", err)
		}
		a.Tags = tags
		return a, true, nil
	case err != nil:
		return nil, false, err
	}
	if err := s.articles.Update(ctx, a, tagIDs); err != nil {
		return nil, false, fmt.Errorf("update article: %w", err)
	}
	a.Tags = tags
	return a, false, nil
}

// BindUser puts the user into group (created with groupPerms if missing)
// and grants the direct permission perm when it is not empty.
func (s *SeedService) BindUser(ctx context.Context, username, group string, groupPerms []string, perm string) (*models.Group, error) {
	for _, code := range append(slices.Clone(groupPerms), perm) {
		if code != "" && !slices.Contains(models.KnownPermissions, code) {
			return nil, invalidf("unknown permission %q", code)
		}
	}
	if group == "" {
		return nil, invalidf("group name is required")
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, missing("user", username, err)
	}

	g := &models.Group{Name: group, Permissions: groupPerms}
	if err := s.users.BindGroup(ctx, user.ID, g); err != nil {
		return nil, fmt.Errorf("bind group: %w", err)
	}
	if perm != "" {
		if err := s.users.GrantPermission(ctx, user.ID, perm); err != nil {
			return nil, fmt.Errorf("grant %s: %w", perm, err)
		}
	}
	return g, nil
}

// ProductNames lists pk and name of every product, archived included.
func (s *SeedService) ProductNames(ctx context.Context) ([]ProductName, error) {
	products, _, err := s.products.List(ctx, models.ProductFilter{IncludeArchived: true, Ordering: []string{"pk"}})
	if err != nil {
		return nil, err
	}
	out := make([]ProductName, len(products))
	for i, p := range products {
		out[i] = ProductName{PK: p.ID, Name: p.Name}
	}
	return out, nil
}
