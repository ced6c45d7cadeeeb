package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"storefront/models"
)

const productColumns = `id, name, description, price, discount, created_at, created_by, archived, preview`

var productOrdering = map[string]string{
	"pk":          "id",
	"id":          "id",
	"name":        "name",
	"description": "description",
	"price":       "price",
}

type ProductRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Discount, &p.CreatedAt, &p.CreatedBy, &p.Archived, &p.Preview)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]models.Product, error) {
	defer rows.Close()
	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func productWhere(f models.ProductFilter) *whereBuilder {
	w := &whereBuilder{}
	if !f.IncludeArchived {
		w.add("archived = false")
	}
	if f.Search != "" {
		pattern := containsPattern(f.Search)
		w.add("(name ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}
	if f.Name != nil {
		w.add("name = ?", *f.Name)
	}
	if f.Description != nil {
		w.add("description = ?", *f.Description)
	}
	if f.Price != nil {
		w.add("price = ?", *f.Price)
	}
	if f.Discount != nil {
		w.add("discount = ?", *f.Discount)
	}
	if f.Archived != nil {
		w.add("archived = ?", *f.Archived)
	}
	return w
}

// List returns one page of products matching f plus the total match count.
func (r *ProductRepository) List(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	w := productWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM products"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := "SELECT " + productColumns + " FROM products" + w.sql() +
		orderBy(f.Ordering, productOrdering, "name ASC, price ASC")
	query += paginate(f.Limit, f.Offset, w)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}

	rows, err := r.db.Query(ctx,
		"SELECT id, product_id, image, description FROM product_images WHERE product_id = $1 ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("load product images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var img models.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.Image, &img.Description); err != nil {
			return nil, err
		}
		p.Images = append(p.Images, img)
	}
	return &p, rows.Err()
}

func insertProduct(ctx context.Context, db DBTX, p *models.Product) error {
	return db.QueryRow(ctx, `
		INSERT INTO products (name, description, price, discount, created_by, archived, preview)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		p.Name, p.Description, p.Price, p.Discount, p.CreatedBy, p.Archived, p.Preview,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return insertProduct(ctx, r.db, p)
}

// BulkCreate inserts all products in one transaction; any failure leaves the
// table untouched.
func (r *ProductRepository) BulkCreate(ctx context.Context, products []models.Product) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		for i := range products {
			if err := insertProduct(ctx, tx, &products[i]); err != nil {
				return fmt.Errorf("insert product row %d: %w", i+1, translateWriteErr(err))
			}
		}
		return nil
	})
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products SET name = $1, description = $2, price = $3, discount = $4, archived = $5, preview = $6
		WHERE id = $7`,
		p.Name, p.Description, p.Price, p.Discount, p.Archived, p.Preview, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetArchived flips the soft-delete flag; rows are never removed.
func (r *ProductRepository) SetArchived(ctx context.Context, ids []int, archived bool) (int64, error) {
	tag, err := r.db.Exec(ctx, "UPDATE products SET archived = $1 WHERE id = ANY($2)", archived, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes the row and its images. Products referenced by orders are
// protected.
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return translateDeleteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) AddImage(ctx context.Context, img *models.ProductImage) error {
	return r.db.QueryRow(ctx,
		"INSERT INTO product_images (product_id, image, description) VALUES ($1, $2, $3) RETURNING id",
		img.ProductID, img.Image, img.Description,
	).Scan(&img.ID)
}

// Latest returns the n most recently created products, archived included.
func (r *ProductRepository) Latest(ctx context.Context, n int) ([]models.Product, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY created_at DESC LIMIT $1", n)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// CountExisting reports how many of ids exist.
func (r *ProductRepository) CountExisting(ctx context.Context, ids []int) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM products WHERE id = ANY($1)", ids).Scan(&n)
	return n, err
}
