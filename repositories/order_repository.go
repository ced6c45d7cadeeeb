package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"storefront/models"
)

const orderColumns = `id, delivery_address, promocode, created_at, user_id, receipt`

var orderOrdering = map[string]string{
	"pk":               "id",
	"id":               "id",
	"delivery_address": "delivery_address",
	"user_id":          "user_id",
	"created_at":       "created_at",
}

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.DeliveryAddress, &o.Promocode, &o.CreatedAt, &o.UserID, &o.Receipt)
	return o, err
}

func orderWhere(f models.OrderFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.UserID != nil {
		w.add("user_id = ?", *f.UserID)
	}
	if f.Search != "" {
		pattern := containsPattern(f.Search)
		w.add("(delivery_address ILIKE ? OR CAST(user_id AS TEXT) LIKE ?)", pattern, pattern)
	}
	if f.DeliveryAddress != nil {
		w.add("delivery_address = ?", *f.DeliveryAddress)
	}
	if f.Promocode != nil {
		w.add("promocode = ?", *f.Promocode)
	}
	return w
}

func (r *OrderRepository) List(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	w := orderWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := "SELECT " + orderColumns + " FROM orders" + w.sql() + orderBy(f.Ordering, orderOrdering, "id ASC")
	query += paginate(f.Limit, f.Offset, w)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	if err := r.attachProducts(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) attachProducts(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int, len(orders))
	index := make(map[int]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.db.Query(ctx, `
		SELECT op.order_id, p.id, p.name, p.description, p.price, p.discount, p.created_at, p.created_by, p.archived, p.preview
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = ANY($1)
		ORDER BY p.name, p.price`, ids)
	if err != nil {
		return fmt.Errorf("load order products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int
		var p models.Product
		if err := rows.Scan(&orderID, &p.ID, &p.Name, &p.Description, &p.Price, &p.Discount, &p.CreatedAt, &p.CreatedBy, &p.Archived, &p.Preview); err != nil {
			return err
		}
		i := index[orderID]
		orders[i].Products = append(orders[i].Products, p)
	}
	return rows.Err()
}

func (r *OrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}
	orders := []models.Order{o}
	if err := r.attachProducts(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func setOrderProducts(ctx context.Context, tx pgx.Tx, orderID int, productIDs []int) error {
	if _, err := tx.Exec(ctx, "DELETE FROM order_products WHERE order_id = $1", orderID); err != nil {
		return err
	}
	for _, pid := range productIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO order_products (order_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			orderID, pid); err != nil {
			return fmt.Errorf("link product %d: %w", pid, err)
		}
	}
	return nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *models.Order, productIDs []int) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO orders (delivery_address, promocode, user_id, receipt)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		o.DeliveryAddress, o.Promocode, o.UserID, o.Receipt,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return err
	}
	return setOrderProducts(ctx, tx, o.ID, productIDs)
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order, productIDs []int) error {
	return translateWriteErr(inTx(ctx, r.db, func(tx pgx.Tx) error {
		return insertOrder(ctx, tx, o, productIDs)
	}))
}

// BulkCreate stores every order with its product links in one transaction.
func (r *OrderRepository) BulkCreate(ctx context.Context, orders []models.Order, productIDs [][]int) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		for i := range orders {
			if err := insertOrder(ctx, tx, &orders[i], productIDs[i]); err != nil {
				return fmt.Errorf("insert order row %d: %w", i+1, translateWriteErr(err))
			}
		}
		return nil
	})
}

// Update rewrites the order row; productIDs nil keeps the current links.
func (r *OrderRepository) Update(ctx context.Context, o *models.Order, productIDs []int) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders SET delivery_address = $1, promocode = $2, user_id = $3, receipt = $4
			WHERE id = $5`,
			o.DeliveryAddress, o.Promocode, o.UserID, o.Receipt, o.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if productIDs == nil {
			return nil
		}
		return setOrderProducts(ctx, tx, o.ID, productIDs)
	})
}

// Delete removes the order row; product links cascade.
func (r *OrderRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return translateDeleteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
