package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"storefront/libs"
	"storefront/models"
)

type OrderNotifier interface {
	SendOrderConfirmation(to string, order models.Order) error
}

type OrderService struct {
	orders   OrderStore
	products ProductStore
	users    UserStore
	storage  libs.Storage
	notifier OrderNotifier
}

// NewOrderService wires the order use cases; notifier may be nil when mail
// is not configured.
func NewOrderService(orders OrderStore, products ProductStore, users UserStore, storage libs.Storage, notifier OrderNotifier) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		users:    users,
		storage:  storage,
		notifier: notifier,
	}
}

func (s *OrderService) List(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	return s.orders.List(ctx, f)
}

// ListForUser returns the owner and all of their orders.
func (s *OrderService) ListForUser(ctx context.Context, userID int) (*models.User, []models.Order, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	orders, _, err := s.orders.List(ctx, models.OrderFilter{UserID: &userID})
	if err != nil {
		return nil, nil, err
	}
	return user, orders, nil
}

func (s *OrderService) Get(ctx context.Context, id int) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func applyOrderInput(o *models.Order, in models.OrderInput) {
	if in.DeliveryAddress != nil {
		o.DeliveryAddress = strings.TrimSpace(*in.DeliveryAddress)
	}
	if in.Promocode != nil {
		o.Promocode = strings.TrimSpace(*in.Promocode)
	}
	if in.UserID != nil {
		o.UserID = *in.UserID
	}
}

func (s *OrderService) validate(ctx context.Context, o *models.Order, productIDs []int) (*models.User, error) {
	if utf8.RuneCountInString(o.Promocode) > 20 {
		return nil, invalidf("promocode must be at most 20 characters")
	}
	owner, err := s.users.FindByID(ctx, o.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, invalidf("user %d does not exist", o.UserID)
	}
	if err != nil {
		return nil, err
	}
	if len(productIDs) > 0 {
		unique := slices.Compact(slices.Sorted(slices.Values(productIDs)))
		n, err := s.products.CountExisting(ctx, unique)
		if err != nil {
			return nil, err
		}
		if n != len(unique) {
			return nil, invalidf("unknown product in %v", productIDs)
		}
	}
	return owner, nil
}

func (s *OrderService) saveReceipt(ctx context.Context, o *models.Order, receipt *multipart.FileHeader) error {
	if receipt == nil {
		return nil
	}
	url, err := s.storage.Save(ctx, receipt, "orders/receipts")
	if err != nil {
		return storageErr("receipt", err)
	}
	o.Receipt = url
	return nil
}

// Create stores a new order owned by in.UserID, or by the caller when no user
// is given.
func (s *OrderService) Create(ctx context.Context, caller models.User, in models.OrderInput, receipt *multipart.FileHeader) (*models.Order, error) {
	o := &models.Order{UserID: caller.ID}
	applyOrderInput(o, in)

	var productIDs []int
	if in.ProductIDs != nil {
		productIDs = *in.ProductIDs
	}
	owner, err := s.validate(ctx, o, productIDs)
	if err != nil {
		return nil, err
	}
	if err := s.saveReceipt(ctx, o, receipt); err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, o, productIDs); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created, err := s.orders.GetByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	s.notify(owner, *created)
	return created, nil
}

// Update applies the non-nil fields of in; a nil product list keeps the
// current products.
func (s *OrderService) Update(ctx context.Context, id int, in models.OrderInput, receipt *multipart.FileHeader) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyOrderInput(o, in)

	var productIDs []int
	if in.ProductIDs != nil {
		productIDs = *in.ProductIDs
		if productIDs == nil {
			productIDs = []int{}
		}
	}
	if _, err := s.validate(ctx, o, productIDs); err != nil {
		return nil, err
	}
	old := o.Receipt
	if err := s.saveReceipt(ctx, o, receipt); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o, productIDs); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	if receipt != nil && old != "" {
		if err := s.storage.Delete(ctx, old); err != nil {
			log.Warn().Err(err).Str("file", old).Msg("failed to remove old receipt")
		}
	}
	return s.orders.GetByID(ctx, id)
}

func (s *OrderService) Delete(ctx context.Context, id int) error {
	return s.orders.Delete(ctx, id)
}

func (s *OrderService) notify(owner *models.User, order models.Order) {
	if s.notifier == nil || owner.Email == "" {
		return
	}
	go func() {
		if err := s.notifier.SendOrderConfirmation(owner.Email, order); err != nil {
			log.Error().Err(err).Int("order_id", order.ID).Msg("failed to send order confirmation")
		}
	}()
}
