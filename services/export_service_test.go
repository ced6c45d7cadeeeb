package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"storefront/libs"
	"storefront/models"
	"storefront/services/servicetest"
)

type ExportServiceSuite struct {
	suite.Suite
	mr       *miniredis.Miniredis
	svc      *ExportService
	orders   *servicetest.Orders
	products *servicetest.Products
}

func TestExportServiceSuite(t *testing.T) {
	suite.Run(t, new(ExportServiceSuite))
}

func (s *ExportServiceSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { client.Close() })

	s.products = &servicetest.Products{Rows: []models.Product{
		{ID: 1, Name: "Desk", Price: mustDecimal("100")},
		{ID: 2, Name: "Lamp", Price: mustDecimal("10.5"), Archived: true},
	}}
	s.orders = servicetest.NewOrders(s.products)
	users := servicetest.NewUsers(
		models.User{ID: 1, Username: "alice"},
		models.User{ID: 2, Username: "bob"},
	)
	cache := libs.NewRedisCache(client, "storefront")
	s.svc = NewExportService(s.products, s.orders, users, cache, 300*time.Second)
}

func (s *ExportServiceSuite) addOrder(userID int, address string, productIDs ...int) models.Order {
	o := models.Order{DeliveryAddress: address, UserID: userID}
	require.NoError(s.T(), s.orders.Create(context.Background(), &o, productIDs))
	return o
}

func (s *ExportServiceSuite) TestProductsExportIncludesArchived() {
	out, err := s.svc.ProductsExport(context.Background())
	s.Require().NoError(err)

	data, err := json.Marshal(out)
	s.Require().NoError(err)
	s.JSONEq(`{"products":[
		{"pk":1,"name":"Desk","price":"100","archived":false},
		{"pk":2,"name":"Lamp","price":"10.5","archived":true}
	]}`, string(data))
}

func (s *ExportServiceSuite) TestOrdersExportListsProductNames() {
	s.addOrder(1, "Main st 1", 1, 2)
	s.addOrder(2, "Side st 2")

	out, err := s.svc.OrdersExport(context.Background())
	s.Require().NoError(err)
	s.Require().Len(out.Orders, 2)
	s.Equal([]string{"Desk", "Lamp"}, out.Orders[0].Products)
	s.Equal(1, out.Orders[0].UserID)
	s.Empty(out.Orders[1].Products)
}

func (s *ExportServiceSuite) TestUserOrdersExportIsCachedForTTL() {
	ctx := context.Background()
	s.addOrder(1, "Main st 1", 1)

	first, err := s.svc.UserOrdersExport(ctx, 1)
	s.Require().NoError(err)
	s.JSONEq(`{"alice":[{"pk":1,"delivery_address":"Main st 1","promocode":""}]}`, string(first))
	s.True(s.mr.Exists("storefront:user_order-data-export-alice"))

	s.addOrder(1, "Second st 2")
	cached, err := s.svc.UserOrdersExport(ctx, 1)
	s.Require().NoError(err)
	s.Equal(first, cached, "new orders are not visible while the entry lives")

	s.mr.FastForward(301 * time.Second)
	fresh, err := s.svc.UserOrdersExport(ctx, 1)
	s.Require().NoError(err)

	var payload map[string][]models.UserOrderExportItem
	s.Require().NoError(json.Unmarshal(fresh, &payload))
	s.Len(payload["alice"], 2)
}

func (s *ExportServiceSuite) TestUserOrdersExportUnknownUser() {
	_, err := s.svc.UserOrdersExport(context.Background(), 99)
	s.ErrorIs(err, ErrNotFound)
	s.Empty(s.mr.Keys())
}

func TestUserOrdersExportWithMemoryCache(t *testing.T) {
	products := &servicetest.Products{}
	orders := servicetest.NewOrders(products)
	users := servicetest.NewUsers(models.User{ID: 5, Username: "carol"})
	svc := NewExportService(products, orders, users, newTestMemoryCache(), time.Minute)

	data, err := svc.UserOrdersExport(context.Background(), 5)
	require.NoError(t, err)
	assert.JSONEq(t, `{"carol":[]}`, string(data))
}
