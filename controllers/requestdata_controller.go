package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/libs"
	"storefront/models"
	"storefront/services"
)

// RequestDataController echoes query, form and file input back to the caller.
type RequestDataController struct {
	storage libs.Storage
	maxSize int64
}

func NewRequestDataController(storage libs.Storage, maxSize int64) *RequestDataController {
	return &RequestDataController{storage: storage, maxSize: maxSize}
}

// @Summary Sum query parameters
// @Tags Request data
// @Produce json
// @Param a query number false "First operand"
// @Param b query number false "Second operand"
// @Success 200 {object} models.Response
// @Router /req/query [get]
func (ctrl *RequestDataController) Query(c *gin.Context) {
	var q struct {
		A float64 `form:"a"`
		B float64 `form:"b"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "a and b must be numbers", err)
		return
	}
	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Query parsed",
		Data:    gin.H{"a": q.A, "b": q.B, "result": q.A + q.B},
	})
}

// @Summary Upload a file
// @Tags Request data
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Any file up to 1 MiB"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /req/upload [post]
func (ctrl *RequestDataController) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "File is required", err)
		return
	}
	if err := services.ValidateUpload(fh, ctrl.maxSize); err != nil {
		badRequest(c, "Invalid upload", err)
		return
	}

	url, err := ctrl.storage.Save(c.Request.Context(), fh, "uploads")
	if err != nil {
		respondError(c, err, "Failed to save file")
		return
	}

	c.JSON(http.StatusCreated, models.Response{
		Success: true,
		Message: "File saved",
		Data:    gin.H{"filename": fh.Filename, "url": url},
	})
}

// @Summary Submit a user bio
// @Tags Request data
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body models.UserBioRequest true "Bio"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /req/bio [post]
func (ctrl *RequestDataController) UserBio(c *gin.Context) {
	var req models.UserBioRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid bio", err)
		return
	}
	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Bio accepted",
		Data:    req,
	})
}
