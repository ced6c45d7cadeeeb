package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
	"storefront/services/servicetest"
)

type seedFixture struct {
	svc      *SeedService
	products *servicetest.Products
	orders   *servicetest.Orders
	users    *servicetest.Users
	articles *servicetest.Articles
}

func newSeedFixture() seedFixture {
	products := &servicetest.Products{Rows: []models.Product{
		{ID: 1, Name: "Desk", Price: mustDecimal("100")},
		{ID: 2, Name: "Lamp", Price: mustDecimal("10"), Archived: true},
	}}
	orders := servicetest.NewOrders(products)
	users := servicetest.NewUsers(superuser, visitor)
	articles := &servicetest.Articles{
		Authors:    []models.Author{{ID: 1, Name: "igor"}},
		Categories: []models.Category{{ID: 1, Name: "notes"}},
		TagRows:    []models.Tag{{ID: 1, Name: "go"}, {ID: 2, Name: "web"}},
	}
	return seedFixture{
		svc:      NewSeedService(products, orders, users, articles),
		products: products,
		orders:   orders,
		users:    users,
		articles: articles,
	}
}

func TestSeedOrderIsIdempotent(t *testing.T) {
	f := newSeedFixture()
	ctx := context.Background()
	seed := OrderSeed{Username: "admin", DeliveryAddress: "ul Ivankovo, d 10", Promocode: "promo1"}

	o, created, err := f.svc.SeedOrder(ctx, seed)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, superuser.ID, o.UserID)
	assert.Len(t, o.Products, 2, "archived products are linked too")

	f.products.Rows = append(f.products.Rows, models.Product{ID: 3, Name: "Chair", Price: mustDecimal("5")})
	again, created, err := f.svc.SeedOrder(ctx, seed)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, o.ID, again.ID)
	assert.Len(t, again.Products, 3)
	assert.Len(t, f.orders.Rows, 1)

	_, _, err = f.svc.SeedOrder(ctx, OrderSeed{Username: "nobody"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `user "nobody"`)
}

func TestSeedArticleTagsEverything(t *testing.T) {
	f := newSeedFixture()
	ctx := context.Background()
	seed := ArticleSeed{Title: "my info job", Content: "body", Author: "igor", Category: "notes"}

	a, created, err := f.svc.SeedArticle(ctx, seed)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []int{1, 2}, a.TagIDs())
	assert.Equal(t, "igor", a.Author.Name)

	_, created, err = f.svc.SeedArticle(ctx, seed)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, f.articles.Rows, 1)

	_, _, err = f.svc.SeedArticle(ctx, ArticleSeed{Title: "x", Author: "igor", Category: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBindUserCreatesGroupAndGrants(t *testing.T) {
	f := newSeedFixture()
	ctx := context.Background()

	g, err := f.svc.BindUser(ctx, "visitor", "profile_manager", []string{models.PermViewProfile}, models.PermViewOrder)
	require.NoError(t, err)
	assert.Equal(t, []int{g.ID}, f.users.Memberships[visitor.ID])
	require.Len(t, f.users.Groups, 1)
	assert.Equal(t, []string{models.PermViewProfile}, f.users.Groups[0].Permissions)

	u, err := f.users.FindByID(ctx, visitor.ID)
	require.NoError(t, err)
	assert.Contains(t, u.Permissions, models.PermViewOrder)

	again, err := f.svc.BindUser(ctx, "visitor", "profile_manager", nil, "")
	require.NoError(t, err)
	assert.Equal(t, g.ID, again.ID)
	assert.Len(t, f.users.Groups, 1)

	_, err = f.svc.BindUser(ctx, "visitor", "profile_manager", []string{"delete_everything"}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProductNamesIncludesArchived(t *testing.T) {
	f := newSeedFixture()
	names, err := f.svc.ProductNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ProductName{{PK: 1, Name: "Desk"}, {PK: 2, Name: "Lamp"}}, names)
}
