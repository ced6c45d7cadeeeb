package services

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"storefront/libs"
	"storefront/models"
)

const productListCachePattern = "products_list_*"

var maxProductPrice = decimal.RequireFromString("999999.99")

type ProductService struct {
	products ProductStore
	cache    libs.Cache
	storage  libs.Storage
	cacheTTL time.Duration
}

func NewProductService(products ProductStore, cache libs.Cache, storage libs.Storage, cacheTTL time.Duration) *ProductService {
	return &ProductService{
		products: products,
		cache:    cache,
		storage:  storage,
		cacheTTL: cacheTTL,
	}
}

type productPage struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// ListActive returns one page of non-archived products. Pages are cached
// until the next product mutation.
func (s *ProductService) ListActive(ctx context.Context, page, limit int) ([]models.Product, models.PaginationMeta, error) {
	page, limit = normalizePage(page, limit)
	key := fmt.Sprintf("products_list_p%d_l%d", page, limit)

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("product list cache read failed")
	} else if ok {
		var cached productPage
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached.Products, models.NewPaginationMeta(page, limit, cached.Total), nil
		}
	}

	products, total, err := s.products.List(ctx, models.ProductFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, models.PaginationMeta{}, err
	}

	if data, err := json.Marshal(productPage{Products: products, Total: total}); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("product list cache write failed")
		}
	}
	return products, models.NewPaginationMeta(page, limit, total), nil
}

// Search runs the REST collection query; archived rows are included unless
// the filter asks otherwise.
func (s *ProductService) Search(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	f.IncludeArchived = true
	return s.products.List(ctx, f)
}

func (s *ProductService) Get(ctx context.Context, id int) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) Latest(ctx context.Context, n int) ([]models.Product, error) {
	return s.products.Latest(ctx, n)
}

// CanEdit reports whether user may change p: superusers always, otherwise
// only the creator holding change_product.
func CanEdit(user models.User, p *models.Product) bool {
	if user.IsSuperuser {
		return true
	}
	return p.CreatedBy == user.ID && user.HasPerm(models.PermChangeProduct)
}

func applyProductInput(p *models.Product, in models.ProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Discount != nil {
		p.Discount = *in.Discount
	}
	if in.Archived != nil {
		p.Archived = *in.Archived
	}
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return invalidf("name is required")
	case utf8.RuneCountInString(p.Name) > 100:
		return invalidf("name must be at most 100 characters")
	case p.Price.IsNegative():
		return invalidf("price must not be negative")
	case p.Price.GreaterThan(maxProductPrice):
		return invalidf("price must be at most %s", maxProductPrice)
	case p.Discount < 0 || p.Discount > 32767:
		return invalidf("discount must be between 0 and 32767")
	}
	return nil
}

// Create inserts the product and then uploads its files. When an upload or
// image row fails the product is deleted again, so a retry cannot leave
// duplicates behind.
func (s *ProductService) Create(ctx context.Context, user models.User, in models.ProductInput, preview *multipart.FileHeader, images []*multipart.FileHeader) (*models.Product, error) {
	if !user.HasPerm(models.PermAddProduct) {
		return nil, ErrForbidden
	}
	p := &models.Product{CreatedBy: user.ID, Price: decimal.Zero}
	applyProductInput(p, in)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	previewURL, imageURLs, err := s.uploadFiles(ctx, p.ID, preview, images)
	if err != nil {
		s.discard(ctx, p.ID)
		return nil, err
	}
	if previewURL != "" {
		p.Preview = previewURL
		if err := s.products.Update(ctx, p); err != nil {
			s.removeFiles(ctx, append(imageURLs, previewURL)...)
			s.discard(ctx, p.ID)
			return nil, fmt.Errorf("save preview: %w", err)
		}
	}
	if err := s.addImages(ctx, p, imageURLs); err != nil {
		s.removeFiles(ctx, previewURL)
		for _, img := range p.Images {
			s.removeFiles(ctx, img.Image)
		}
		s.discard(ctx, p.ID)
		return nil, err
	}
	s.invalidate(ctx)
	return p, nil
}

// Update applies the non-nil fields of in. Files are uploaded before the row
// is written; uploaded images are appended to the existing ones and a new
// preview replaces the old file.
func (s *ProductService) Update(ctx context.Context, user models.User, id int, in models.ProductInput, preview *multipart.FileHeader, images []*multipart.FileHeader) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanEdit(user, p) {
		return nil, ErrForbidden
	}
	applyProductInput(p, in)
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	previewURL, imageURLs, err := s.uploadFiles(ctx, p.ID, preview, images)
	if err != nil {
		return nil, err
	}
	oldPreview := p.Preview
	if previewURL != "" {
		p.Preview = previewURL
	}
	if err := s.products.Update(ctx, p); err != nil {
		s.removeFiles(ctx, append(imageURLs, previewURL)...)
		return nil, fmt.Errorf("update product: %w", err)
	}
	defer s.invalidate(ctx)

	if err := s.addImages(ctx, p, imageURLs); err != nil {
		return nil, err
	}
	if previewURL != "" && oldPreview != "" {
		s.removeFiles(ctx, oldPreview)
	}
	return p, nil
}

// uploadFiles saves the preview and images of product id. On failure the
// files saved so far are removed and nothing is returned.
func (s *ProductService) uploadFiles(ctx context.Context, id int, preview *multipart.FileHeader, images []*multipart.FileHeader) (string, []string, error) {
	var previewURL string
	if preview != nil {
		url, err := s.storage.Save(ctx, preview, fmt.Sprintf("products/product_%d/preview", id))
		if err != nil {
			return "", nil, storageErr("preview", err)
		}
		previewURL = url
	}

	imageURLs := make([]string, 0, len(images))
	for _, fh := range images {
		url, err := s.storage.Save(ctx, fh, fmt.Sprintf("products/product_%d/images", id))
		if err != nil {
			s.removeFiles(ctx, append(imageURLs, previewURL)...)
			return "", nil, storageErr("image "+fh.Filename, err)
		}
		imageURLs = append(imageURLs, url)
	}
	return previewURL, imageURLs, nil
}

// addImages records urls as images of p. Files without a row are removed
// when a row fails.
func (s *ProductService) addImages(ctx context.Context, p *models.Product, urls []string) error {
	for i, url := range urls {
		img := models.ProductImage{ProductID: p.ID, Image: url}
		if err := s.products.AddImage(ctx, &img); err != nil {
			s.removeFiles(ctx, urls[i:]...)
			return fmt.Errorf("save image: %w", err)
		}
		p.Images = append(p.Images, img)
	}
	return nil
}

func (s *ProductService) removeFiles(ctx context.Context, refs ...string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := s.storage.Delete(ctx, ref); err != nil {
			log.Warn().Err(err).Str("file", ref).Msg("failed to remove product file")
		}
	}
}

// discard drops a product whose files could not be stored.
func (s *ProductService) discard(ctx context.Context, id int) {
	if err := s.products.Delete(ctx, id); err != nil {
		log.Error().Err(err).Int("product_id", id).Msg("failed to remove incomplete product")
	}
	s.invalidate(ctx)
}

// Archive soft-deletes a product.
func (s *ProductService) Archive(ctx context.Context, user models.User, id int) error {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanEdit(user, p) {
		return ErrForbidden
	}
	if _, err := s.products.SetArchived(ctx, []int{id}, true); err != nil {
		return fmt.Errorf("archive product: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// SetArchived is the staff bulk action behind mark archived/unarchived.
func (s *ProductService) SetArchived(ctx context.Context, ids []int, archived bool) (int64, error) {
	if len(ids) == 0 {
		return 0, invalidf("no products selected")
	}
	n, err := s.products.SetArchived(ctx, ids, archived)
	if err != nil {
		return 0, fmt.Errorf("set archived: %w", err)
	}
	s.invalidate(ctx)
	return n, nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, productListCachePattern); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate product list cache")
	}
}
