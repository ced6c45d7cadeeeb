package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/libs"
	"storefront/services"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", services.ErrNotFound), http.StatusNotFound},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrConflict, http.StatusConflict},
		{services.ErrProtected, http.StatusConflict},
		{fmt.Errorf("row 2: %w", services.ErrBadReference), http.StatusBadRequest},
		{services.ErrUploadRejected, http.StatusBadRequest},
		{libs.ErrFileTooLarge, http.StatusBadRequest},
		{fmt.Errorf("%w: preview: %w", services.ErrStorage, errors.New("timeout")), http.StatusBadGateway},
		{fmt.Errorf("%w: preview: %w", services.ErrStorage, libs.ErrFileTooLarge), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func formContext(t *testing.T, values url.Values) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Request = req
	return c
}

func TestBindOrderInputFromForm(t *testing.T) {
	c := formContext(t, url.Values{
		"delivery_address": {" Main st 1 "},
		"user_id":          {"7"},
		"products":         {"1", "3", ""},
	})

	in, err := bindOrderInput(c)
	require.NoError(t, err)
	require.NotNil(t, in.DeliveryAddress)
	assert.Equal(t, "Main st 1", *in.DeliveryAddress)
	assert.Nil(t, in.Promocode)
	require.NotNil(t, in.UserID)
	assert.Equal(t, 7, *in.UserID)
	require.NotNil(t, in.ProductIDs)
	assert.Equal(t, []int{1, 3}, *in.ProductIDs)

	c = formContext(t, url.Values{"products": {"one"}})
	_, err = bindOrderInput(c)
	assert.Error(t, err)
}

func TestBindProductInputFromForm(t *testing.T) {
	c := formContext(t, url.Values{
		"name":     {"Desk"},
		"price":    {"120.50"},
		"discount": {"5"},
		"archived": {"true"},
	})

	in, err := bindProductInput(c)
	require.NoError(t, err)
	assert.Equal(t, "Desk", *in.Name)
	assert.Equal(t, "120.5", in.Price.String())
	assert.Equal(t, 5, *in.Discount)
	assert.True(t, *in.Archived)
	assert.Nil(t, in.Description)

	c = formContext(t, url.Values{"price": {"cheap"}})
	_, err = bindProductInput(c)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "short", truncate("short", 150))
}
