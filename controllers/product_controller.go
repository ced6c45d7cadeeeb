package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/services"
)

type ProductController struct {
	products      *services.ProductService
	exports       *services.ExportService
	maxUploadSize int64
	maxCSVSize    int64
}

func NewProductController(products *services.ProductService, exports *services.ExportService, maxUploadSize, maxCSVSize int64) *ProductController {
	return &ProductController{
		products:      products,
		exports:       exports,
		maxUploadSize: maxUploadSize,
		maxCSVSize:    maxCSVSize,
	}
}

// @Summary Get all products
// @Description Get paginated list of products that are not archived
// @Tags Shop - Products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} models.PaginationResponse
// @Router /shop/products [get]
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	page, limit := pageParams(c)

	products, meta, err := ctrl.products.ListActive(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, models.PaginationResponse{
		Success: true,
		Message: "Products retrieved",
		Data:    products,
		Meta:    meta,
	})
}

// @Summary Get product by ID
// @Description Get product details with images; archived products stay reachable
// @Tags Shop - Products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /shop/products/{id} [get]
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	product, err := ctrl.products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Product not found")
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Product retrieved", Data: product})
}

// @Summary Create product
// @Description Create a product owned by the caller (permission add_product)
// @Tags Shop - Products
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Product name"
// @Param description formData string false "Product description"
// @Param price formData number false "Price"
// @Param discount formData int false "Discount"
// @Param preview formData file false "Preview image"
// @Param images formData file false "Additional images (repeatable)"
// @Success 201 {object} models.Response
// @Failure 403 {object} models.ErrorResponse
// @Router /shop/products [post]
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	in, err := bindProductInput(c)
	if err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	preview := formFile(c, "preview")
	images := formFiles(c, "images")
	if !validateImages(c, ctrl.maxUploadSize, preview) || !validateImages(c, ctrl.maxUploadSize, images...) {
		return
	}

	product, err := ctrl.products.Create(c.Request.Context(), currentUser(c), in, preview, images)
	if err != nil {
		respondError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Product created successfully", Data: product})
}

// @Summary Update product
// @Description Superusers, or the creator holding change_product, may update. New images are appended.
// @Tags Shop - Products
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Product ID"
// @Param name formData string false "Product name"
// @Param description formData string false "Product description"
// @Param price formData number false "Price"
// @Param discount formData int false "Discount"
// @Param archived formData bool false "Archived"
// @Param preview formData file false "Preview image"
// @Param images formData file false "Additional images (repeatable)"
// @Success 200 {object} models.Response
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /shop/products/{id} [patch]
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	in, err := bindProductInput(c)
	if err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	preview := formFile(c, "preview")
	images := formFiles(c, "images")
	if !validateImages(c, ctrl.maxUploadSize, preview) || !validateImages(c, ctrl.maxUploadSize, images...) {
		return
	}

	product, err := ctrl.products.Update(c.Request.Context(), currentUser(c), id, in, preview, images)
	if err != nil {
		respondError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Product updated successfully", Data: product})
}

// @Summary Archive product
// @Description Soft delete: the product is flagged archived and hidden from the shop list
// @Tags Shop - Products
// @Security BearerAuth
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Response
// @Router /shop/products/{id} [delete]
func (ctrl *ProductController) ArchiveProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := ctrl.products.Archive(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err, "Failed to archive product")
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Product archived successfully"})
}

// @Summary Export products
// @Description All products, archived included, as {"products":[...]}
// @Tags Shop - Products
// @Produce json
// @Success 200 {object} models.ProductsExport
// @Router /shop/products/export [get]
func (ctrl *ProductController) ExportProducts(c *gin.Context) {
	out, err := ctrl.exports.ProductsExport(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to export products")
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Mark products archived
// @Tags Admin - Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.BulkIDsRequest true "Product IDs"
// @Success 200 {object} models.Response
// @Router /admin/products/archive [post]
func (ctrl *ProductController) MarkArchived(c *gin.Context) {
	ctrl.setArchived(c, true)
}

// @Summary Mark products unarchived
// @Tags Admin - Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.BulkIDsRequest true "Product IDs"
// @Success 200 {object} models.Response
// @Router /admin/products/unarchive [post]
func (ctrl *ProductController) MarkUnarchived(c *gin.Context) {
	ctrl.setArchived(c, false)
}

func (ctrl *ProductController) setArchived(c *gin.Context, archived bool) {
	var req models.BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	n, err := ctrl.products.SetArchived(c.Request.Context(), req.IDs, archived)
	if err != nil {
		respondError(c, err, "Failed to update products")
		return
	}

	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Products updated",
		Data:    gin.H{"updated": n, "archived": archived},
	})
}

// @Summary Import products from CSV
// @Description Columns: name, description, price, discount, archived, created_by. Any bad row aborts the import.
// @Tags Admin - Products
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param csv_file formData file true "CSV file"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/products/import [post]
func (ctrl *ProductController) ImportCSV(c *gin.Context) {
	fh, err := c.FormFile("csv_file")
	if err != nil {
		badRequest(c, "csv_file is required", err)
		return
	}
	if err := services.ValidateUpload(fh, ctrl.maxCSVSize); err != nil {
		respondError(c, err, "Invalid upload")
		return
	}

	file, err := fh.Open()
	if err != nil {
		respondError(c, err, "Failed to read upload")
		return
	}
	defer file.Close()

	products, err := ctrl.products.ImportProducts(c.Request.Context(), file, currentUser(c).ID)
	if err != nil {
		respondError(c, err, "Failed to import products")
		return
	}

	c.JSON(http.StatusCreated, models.Response{
		Success: true,
		Message: "Products imported",
		Data:    products,
	})
}
