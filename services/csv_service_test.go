package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
	"storefront/services/servicetest"
)

func TestParseProductIDList(t *testing.T) {
	cases := []struct {
		in   string
		want []int
	}{
		{"[1,2,3]", []int{1, 2, 3}},
		{"[12]", []int{1, 2}},
		{"[]", []int{}},
		{"7", []int{7}},
	}
	for _, tc := range cases {
		got, err := ParseProductIDList(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseProductIDList("[1, 2]")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseProductIDList("[a]")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseProductsCSV(t *testing.T) {
	data := "name,descriptions,price,discount,archived\n" +
		"Desk,Oak desk,120.50,5,false\n" +
		"Lamp,,9.99,0,true\n"

	products, err := ParseProductsCSV(strings.NewReader(data), 4)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Desk", products[0].Name)
	assert.Equal(t, "Oak desk", products[0].Description)
	assert.Equal(t, "120.5", products[0].Price.String())
	assert.Equal(t, 5, products[0].Discount)
	assert.Equal(t, 4, products[0].CreatedBy)
	assert.True(t, products[1].Archived)
}

func TestParseProductsCSVCreatedByColumn(t *testing.T) {
	data := "name,price,created_by_id\nChair,10,9\n"
	products, err := ParseProductsCSV(strings.NewReader(data), 1)
	require.NoError(t, err)
	assert.Equal(t, 9, products[0].CreatedBy)
}

func TestParseProductsCSVRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown column": "name,colour\nDesk,red\n",
		"bad price":      "name,price\nDesk,cheap\n",
		"bad discount":   "name,discount\nDesk,-\n",
		"missing name":   "name,price\n,10\n",
		"empty file":     "",
	}
	for name, data := range cases {
		_, err := ParseProductsCSV(strings.NewReader(data), 1)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestImportProductsAbortsOnBadRow(t *testing.T) {
	store := &servicetest.Products{}
	svc := NewProductService(store, newTestMemoryCache(), &servicetest.Storage{}, 0)

	data := "name,price\nDesk,10\nLamp,oops\n"
	_, err := svc.ImportProducts(context.Background(), strings.NewReader(data), 1)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, store.Rows)

	products, err := svc.ImportProducts(context.Background(), strings.NewReader("name,price\nDesk,10\nLamp,3\n"), 1)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 1, products[0].ID)
	assert.Equal(t, 2, products[1].ID)
}

func TestImportOrders(t *testing.T) {
	products := &servicetest.Products{}
	orders := servicetest.NewOrders(products)
	svc := NewOrderService(orders, products, servicetest.NewUsers(), &servicetest.Storage{}, nil)

	data := "delivery_address,promocode,user_id,product\n" +
		"Main st 1,SALE,1,\"[1,2]\"\n" +
		"Side st 2,,2,[3]\n"
	created, err := svc.ImportOrders(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, []int{1, 2}, orders.Links[created[0].ID])
	assert.Equal(t, []int{3}, orders.Links[created[1].ID])
	assert.Equal(t, "SALE", created[0].Promocode)
}

func TestImportOrdersAbortsWholeFile(t *testing.T) {
	products := &servicetest.Products{}
	orders := servicetest.NewOrders(products)
	svc := NewOrderService(orders, products, servicetest.NewUsers(), &servicetest.Storage{}, nil)

	_, err := svc.ImportOrders(context.Background(), strings.NewReader(
		"delivery_address,user_id,product\nA,1,[1]\nB,x,[2]\n"))
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, orders.Rows)

	orders.FailBulk = true
	_, err = svc.ImportOrders(context.Background(), strings.NewReader(
		"delivery_address,user_id,product\nA,1,[1]\nB,99,[2]\n"))
	require.ErrorIs(t, err, ErrBadReference)
	assert.Empty(t, orders.Rows)
}

func TestWriteProductsCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteProductsCSV(&buf, []models.Product{
		{Name: "Desk", Description: "Oak, solid", Price: mustDecimal("120.5"), Discount: 5},
		{Name: "Lamp", Price: mustDecimal("3"), Discount: 0},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"name,description,price,discount\n"+
			"Desk,\"Oak, solid\",120.50,5\n"+
			"Lamp,,3.00,0\n",
		buf.String())
}

func TestValidateUpload(t *testing.T) {
	assert.NoError(t, ValidateUpload(&multipart.FileHeader{Filename: "products.csv", Size: 100}, 1<<20))
	assert.ErrorIs(t, ValidateUpload(&multipart.FileHeader{Filename: "products.csv", Size: 1<<20 + 1}, 1<<20), ErrUploadRejected)
	assert.ErrorIs(t, ValidateUpload(&multipart.FileHeader{Filename: "my-virus.csv", Size: 10}, 1<<20), ErrUploadRejected)
}
