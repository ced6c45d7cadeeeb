package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"storefront/libs"
	"storefront/middleware"
	"storefront/models"
	"storefront/services"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrProtected):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrBadReference),
		errors.Is(err, services.ErrUploadRejected),
		errors.Is(err, libs.ErrFileTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrStorage):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
		_ = c.Error(err)
	}
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}

func badRequest(c *gin.Context, message string, err error) {
	resp := models.ErrorResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Message: "Invalid ID",
		})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

func currentUser(c *gin.Context) models.User {
	u, _ := middleware.CurrentUser(c)
	return u
}

func isForm(c *gin.Context) bool {
	ct := c.ContentType()
	return strings.HasPrefix(ct, "multipart/") || ct == "application/x-www-form-urlencoded"
}

func formFile(c *gin.Context, key string) *multipart.FileHeader {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	fh, err := c.FormFile(key)
	if err != nil {
		return nil
	}
	return fh
}

func formFiles(c *gin.Context, key string) []*multipart.FileHeader {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	return form.File[key]
}

func optionalString(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok {
		v = strings.TrimSpace(v)
		return &v
	}
	return nil
}

func optionalInt(c *gin.Context, key string) (*int, error) {
	v, ok := c.GetPostForm(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, errors.New(key + " must be an integer")
	}
	return &n, nil
}

// bindProductInput reads product fields from a JSON body or from form values.
func bindProductInput(c *gin.Context) (models.ProductInput, error) {
	var in models.ProductInput
	if !isForm(c) {
		err := c.ShouldBindJSON(&in)
		return in, err
	}

	in.Name = optionalString(c, "name")
	if v, ok := c.GetPostForm("description"); ok {
		in.Description = &v
	}
	if v, ok := c.GetPostForm("price"); ok && v != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return in, errors.New("price must be a decimal number")
		}
		in.Price = &price
	}
	discount, err := optionalInt(c, "discount")
	if err != nil {
		return in, err
	}
	in.Discount = discount
	if v, ok := c.GetPostForm("archived"); ok && v != "" {
		archived, err := strconv.ParseBool(v)
		if err != nil {
			return in, errors.New("archived must be a boolean")
		}
		in.Archived = &archived
	}
	return in, nil
}

// bindOrderInput reads order fields from a JSON body or from form values;
// the form product list is a repeated "products" field.
func bindOrderInput(c *gin.Context) (models.OrderInput, error) {
	var in models.OrderInput
	if !isForm(c) {
		err := c.ShouldBindJSON(&in)
		return in, err
	}

	in.DeliveryAddress = optionalString(c, "delivery_address")
	in.Promocode = optionalString(c, "promocode")
	userID, err := optionalInt(c, "user_id")
	if err != nil {
		return in, err
	}
	in.UserID = userID
	if values, ok := c.GetPostFormArray("products"); ok {
		ids := make([]int, 0, len(values))
		for _, v := range values {
			if v == "" {
				continue
			}
			id, err := strconv.Atoi(v)
			if err != nil {
				return in, errors.New("products must be a list of product ids")
			}
			ids = append(ids, id)
		}
		in.ProductIDs = &ids
	}
	return in, nil
}

func validateImages(c *gin.Context, maxSize int64, files ...*multipart.FileHeader) bool {
	for _, fh := range files {
		if fh == nil {
			continue
		}
		if err := libs.ValidateImage(fh, maxSize); err != nil {
			badRequest(c, "Invalid image "+fh.Filename, err)
			return false
		}
	}
	return true
}
