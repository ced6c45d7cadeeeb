package services

import (
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
	"storefront/services/servicetest"
)

func newProductFixture() (*ProductService, *servicetest.Products, *servicetest.Storage) {
	store := &servicetest.Products{Rows: []models.Product{
		{ID: 1, Name: "Desk", Price: mustDecimal("100"), CreatedBy: editor.ID},
		{ID: 2, Name: "Lamp", Price: mustDecimal("10"), CreatedBy: creator.ID},
		{ID: 3, Name: "Old chair", Price: mustDecimal("5"), CreatedBy: editor.ID, Archived: true},
	}}
	storage := &servicetest.Storage{}
	return NewProductService(store, newTestMemoryCache(), storage, 5*time.Minute), store, storage
}

func TestListActiveHidesArchivedAndCaches(t *testing.T) {
	svc, store, _ := newProductFixture()
	ctx := context.Background()

	products, meta, err := svc.ListActive(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 2, meta.TotalItems)
	assert.Equal(t, 1, store.ListCalls)

	products, _, err = svc.ListActive(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 1, store.ListCalls, "second page read comes from cache")

	_, err = svc.Create(ctx, editor, models.ProductInput{Name: ptr("Shelf"), Price: ptr(mustDecimal("20"))}, nil, nil)
	require.NoError(t, err)

	products, _, err = svc.ListActive(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, 2, store.ListCalls, "mutation invalidates cached pages")
}

func TestCreateProductRequiresPermission(t *testing.T) {
	svc, _, _ := newProductFixture()
	_, err := svc.Create(context.Background(), visitor, models.ProductInput{Name: ptr("Shelf")}, nil, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateProductStoresFiles(t *testing.T) {
	svc, store, storage := newProductFixture()

	p, err := svc.Create(context.Background(), creator,
		models.ProductInput{Name: ptr("Shelf"), Price: ptr(mustDecimal("20"))},
		file("front.png"), []*multipart.FileHeader{file("a.png"), file("b.png")})
	require.NoError(t, err)

	assert.Equal(t, creator.ID, p.CreatedBy)
	assert.Equal(t, "/uploads/products/product_4/preview/front.png", p.Preview)
	assert.Len(t, p.Images, 2)
	assert.Len(t, storage.Saved, 3)
	assert.Len(t, store.Images, 2)
}

func TestCreateProductRollsBackWhenStorageFails(t *testing.T) {
	svc, store, storage := newProductFixture()
	ctx := context.Background()
	storage.FailOn = "*"

	_, _, err := svc.ListActive(ctx, 1, 10)
	require.NoError(t, err)

	_, err = svc.Create(ctx, creator,
		models.ProductInput{Name: ptr("Shelf"), Price: ptr(mustDecimal("20"))}, file("front.png"), nil)
	require.ErrorIs(t, err, ErrStorage)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, servicetest.ErrSave)

	assert.Len(t, store.Rows, 3, "failed create leaves no product row")
	_, _, err = svc.ListActive(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, store.ListCalls, "cached pages are dropped after the rollback")
}

func TestCreateProductRemovesSavedFilesWhenLaterUploadFails(t *testing.T) {
	svc, store, storage := newProductFixture()
	storage.FailOn = "b.png"

	_, err := svc.Create(context.Background(), creator,
		models.ProductInput{Name: ptr("Shelf"), Price: ptr(mustDecimal("20"))},
		file("front.png"), []*multipart.FileHeader{file("a.png"), file("b.png")})
	require.ErrorIs(t, err, ErrStorage)

	assert.Len(t, store.Rows, 3)
	assert.Empty(t, store.Images)
	assert.ElementsMatch(t, storage.Saved, storage.Deleted)
	assert.Len(t, storage.Deleted, 2)
}

func TestUpdateProductKeepsRowWhenStorageFails(t *testing.T) {
	svc, store, storage := newProductFixture()
	storage.FailOn = "*"

	_, err := svc.Update(context.Background(), editor, 1,
		models.ProductInput{Name: ptr("Standing desk")}, file("new.png"), nil)
	require.ErrorIs(t, err, ErrStorage)

	assert.Equal(t, "Desk", store.Rows[0].Name)
	assert.Empty(t, store.Rows[0].Preview)
}

func TestCreateProductValidates(t *testing.T) {
	svc, _, _ := newProductFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, editor, models.ProductInput{}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, editor, models.ProductInput{Name: ptr("X"), Price: ptr(mustDecimal("-1"))}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, editor, models.ProductInput{Name: ptr("X"), Discount: ptr(-5)}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateProductPermissions(t *testing.T) {
	svc, _, _ := newProductFixture()
	ctx := context.Background()
	in := models.ProductInput{Description: ptr("updated")}

	_, err := svc.Update(ctx, creator, 2, in, nil, nil)
	assert.ErrorIs(t, err, ErrForbidden, "owner without change_product")

	_, err = svc.Update(ctx, editor, 2, in, nil, nil)
	assert.ErrorIs(t, err, ErrForbidden, "change_product on someone else's product")

	p, err := svc.Update(ctx, editor, 1, in, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "updated", p.Description)

	p, err = svc.Update(ctx, superuser, 2, in, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "updated", p.Description)

	_, err = svc.Update(ctx, superuser, 99, in, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProductAppendsImagesAndReplacesPreview(t *testing.T) {
	svc, store, storage := newProductFixture()
	ctx := context.Background()
	store.Images = []models.ProductImage{{ID: 1, ProductID: 1, Image: "/uploads/old.png"}}
	store.Rows[0].Preview = "/uploads/preview-old.png"

	p, err := svc.Update(ctx, editor, 1, models.ProductInput{}, file("new.png"), []*multipart.FileHeader{file("c.png")})
	require.NoError(t, err)

	assert.Len(t, p.Images, 2)
	assert.Equal(t, "/uploads/old.png", p.Images[0].Image)
	assert.Equal(t, "/uploads/products/product_1/preview/new.png", p.Preview)
	assert.Equal(t, []string{"/uploads/preview-old.png"}, storage.Deleted)
}

func TestArchiveIsSoftDelete(t *testing.T) {
	svc, store, _ := newProductFixture()
	ctx := context.Background()

	require.NoError(t, svc.Archive(ctx, editor, 1))

	p, err := svc.Get(ctx, 1)
	require.NoError(t, err, "archived product is still reachable by id")
	assert.True(t, p.Archived)
	assert.Len(t, store.Rows, 3)

	products, _, err := svc.ListActive(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Lamp", products[0].Name)

	assert.ErrorIs(t, svc.Archive(ctx, visitor, 2), ErrForbidden)
}

func TestBulkSetArchived(t *testing.T) {
	svc, store, _ := newProductFixture()
	ctx := context.Background()

	n, err := svc.SetArchived(ctx, []int{1, 3}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.False(t, store.Rows[2].Archived)

	_, err = svc.SetArchived(ctx, nil, true)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearchIncludesArchived(t *testing.T) {
	svc, _, _ := newProductFixture()
	products, total, err := svc.Search(context.Background(), models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Equal(t, 3, total)

	products, _, err = svc.Search(context.Background(), models.ProductFilter{Archived: ptr(true)})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Old chair", products[0].Name)
}
