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

type recordingNotifier struct {
	sent chan string
}

func (n *recordingNotifier) SendOrderConfirmation(to string, order models.Order) error {
	n.sent <- to
	return nil
}

func newOrderFixture(notifier OrderNotifier) (*OrderService, *servicetest.Orders, *servicetest.Storage) {
	products := &servicetest.Products{Rows: []models.Product{
		{ID: 1, Name: "Desk", Price: mustDecimal("100")},
		{ID: 2, Name: "Lamp", Price: mustDecimal("10")},
	}}
	orders := servicetest.NewOrders(products)
	users := servicetest.NewUsers(
		models.User{ID: 1, Username: "alice", Email: "alice@example.com"},
		models.User{ID: 2, Username: "bob"},
	)
	storage := &servicetest.Storage{}
	return NewOrderService(orders, products, users, storage, notifier), orders, storage
}

func TestCreateOrderDefaultsToCaller(t *testing.T) {
	svc, _, _ := newOrderFixture(nil)

	o, err := svc.Create(context.Background(), models.User{ID: 2, Username: "bob"}, models.OrderInput{
		DeliveryAddress: ptr("Main st 1"),
		ProductIDs:      ptr([]int{1, 2}),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, o.UserID)
	assert.Equal(t, []int{1, 2}, o.ProductIDs())
	assert.Equal(t, "Main st 1", o.DeliveryAddress)
}

func TestCreateOrderValidates(t *testing.T) {
	svc, orders, _ := newOrderFixture(nil)
	ctx := context.Background()
	caller := models.User{ID: 1}

	_, err := svc.Create(ctx, caller, models.OrderInput{Promocode: ptr("THIS-CODE-IS-FAR-TOO-LONG")}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, caller, models.OrderInput{UserID: ptr(42)}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, caller, models.OrderInput{ProductIDs: ptr([]int{1, 9})}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, orders.Rows)
}

func TestCreateOrderStoresReceiptAndNotifies(t *testing.T) {
	notifier := &recordingNotifier{sent: make(chan string, 1)}
	svc, _, storage := newOrderFixture(notifier)

	o, err := svc.Create(context.Background(), models.User{ID: 1}, models.OrderInput{}, file("receipt.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/orders/receipts/receipt.pdf", o.Receipt)
	assert.Len(t, storage.Saved, 1)

	select {
	case to := <-notifier.sent:
		assert.Equal(t, "alice@example.com", to)
	case <-time.After(time.Second):
		t.Fatal("confirmation was not sent")
	}
}

func TestUpdateOrder(t *testing.T) {
	svc, _, _ := newOrderFixture(nil)
	ctx := context.Background()

	o, err := svc.Create(ctx, models.User{ID: 1}, models.OrderInput{ProductIDs: ptr([]int{1})}, nil)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, o.ID, models.OrderInput{Promocode: ptr("SALE")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SALE", updated.Promocode)
	assert.Equal(t, []int{1}, updated.ProductIDs(), "nil product list keeps links")

	updated, err = svc.Update(ctx, o.ID, models.OrderInput{ProductIDs: ptr([]int{2})}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, updated.ProductIDs())

	updated, err = svc.Update(ctx, o.ID, models.OrderInput{ProductIDs: ptr([]int{})}, nil)
	require.NoError(t, err)
	assert.Empty(t, updated.Products)

	_, err = svc.Update(ctx, 404, models.OrderInput{}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteOrderIsHardDelete(t *testing.T) {
	svc, orders, _ := newOrderFixture(nil)
	ctx := context.Background()

	o, err := svc.Create(ctx, models.User{ID: 1}, models.OrderInput{}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, o.ID))
	assert.Empty(t, orders.Rows)

	_, err = svc.Get(ctx, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForUser(t *testing.T) {
	svc, _, _ := newOrderFixture(nil)
	ctx := context.Background()

	for _, uid := range []int{1, 2, 1} {
		_, err := svc.Create(ctx, models.User{ID: uid}, models.OrderInput{}, nil)
		require.NoError(t, err)
	}

	owner, orders, err := svc.ListForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner.Username)
	assert.Len(t, orders, 2)

	_, _, err = svc.ListForUser(ctx, 77)
	assert.ErrorIs(t, err, ErrNotFound)
}
