package services

import (
	"mime/multipart"
	"time"

	"github.com/shopspring/decimal"

	"storefront/libs"
	"storefront/models"
)

func newTestMemoryCache() *libs.MemoryCache {
	return libs.NewMemoryCache(time.Minute)
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func file(name string) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: 10}
}

var (
	superuser = models.User{ID: 1, Username: "admin", IsSuperuser: true, IsStaff: true}
	editor    = models.User{ID: 2, Username: "editor", Permissions: []string{models.PermAddProduct, models.PermChangeProduct}}
	creator   = models.User{ID: 3, Username: "creator", Permissions: []string{models.PermAddProduct}}
	visitor   = models.User{ID: 4, Username: "visitor"}
)
