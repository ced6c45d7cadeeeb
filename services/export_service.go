package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"storefront/libs"
	"storefront/models"
)

type ExportService struct {
	products ProductStore
	orders   OrderStore
	users    UserStore
	cache    libs.Cache
	ttl      time.Duration
}

func NewExportService(products ProductStore, orders OrderStore, users UserStore, cache libs.Cache, ttl time.Duration) *ExportService {
	return &ExportService{
		products: products,
		orders:   orders,
		users:    users,
		cache:    cache,
		ttl:      ttl,
	}
}

// ProductsExport lists every product, archived included, ordered by pk.
func (s *ExportService) ProductsExport(ctx context.Context) (*models.ProductsExport, error) {
	products, _, err := s.products.List(ctx, models.ProductFilter{
		IncludeArchived: true,
		Ordering:        []string{"pk"},
	})
	if err != nil {
		return nil, err
	}
	out := &models.ProductsExport{Products: make([]models.ProductExportItem, 0, len(products))}
	for _, p := range products {
		out.Products = append(out.Products, models.ProductExportItem{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Archived: p.Archived,
		})
	}
	return out, nil
}

func (s *ExportService) OrdersExport(ctx context.Context) (*models.OrdersExport, error) {
	orders, _, err := s.orders.List(ctx, models.OrderFilter{Ordering: []string{"pk"}})
	if err != nil {
		return nil, err
	}
	out := &models.OrdersExport{Orders: make([]models.OrderExportItem, 0, len(orders))}
	for _, o := range orders {
		names := make([]string, 0, len(o.Products))
		for _, p := range o.Products {
			names = append(names, p.Name)
		}
		out.Orders = append(out.Orders, models.OrderExportItem{
			ID:              o.ID,
			DeliveryAddress: o.DeliveryAddress,
			Promocode:       o.Promocode,
			UserID:          o.UserID,
			Products:        names,
		})
	}
	return out, nil
}

func userOrderExportKey(owner models.User) string {
	return "user_order-data-export-" + owner.String()
}

// UserOrdersExport returns the JSON payload {"<username>": [...]} for one
// user. Payloads are served from cache for the configured TTL and are not
// refreshed when orders change.
func (s *ExportService) UserOrdersExport(ctx context.Context, userID int) ([]byte, error) {
	owner, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := userOrderExportKey(*owner)

	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("export cache read failed")
	} else if ok {
		return data, nil
	}

	orders, _, err := s.orders.List(ctx, models.OrderFilter{UserID: &userID, Ordering: []string{"pk"}})
	if err != nil {
		return nil, err
	}
	items := make([]models.UserOrderExportItem, 0, len(orders))
	for _, o := range orders {
		items = append(items, models.UserOrderExportItem{
			ID:              o.ID,
			DeliveryAddress: o.DeliveryAddress,
			Promocode:       o.Promocode,
		})
	}
	data, err = json.Marshal(map[string][]models.UserOrderExportItem{owner.String(): items})
	if err != nil {
		return nil, fmt.Errorf("encode user export: %w", err)
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("export cache write failed")
	}
	return data, nil
}
