package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/models"
	"storefront/services"
)

// APIController serves the REST collections under /api.
type APIController struct {
	products   *services.ProductService
	orders     *services.OrderService
	users      *services.UserService
	maxCSVSize int64
}

func NewAPIController(products *services.ProductService, orders *services.OrderService, users *services.UserService, maxCSVSize int64) *APIController {
	return &APIController{
		products:   products,
		orders:     orders,
		users:      users,
		maxCSVSize: maxCSVSize,
	}
}

func queryString(c *gin.Context, key string) *string {
	if v, ok := c.GetQuery(key); ok {
		return &v
	}
	return nil
}

func queryInt(c *gin.Context, key string) (*int, error) {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, errors.New(key + ": enter a whole number")
	}
	return &n, nil
}

func ordering(c *gin.Context) []string {
	raw := c.Query("ordering")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func productFilter(c *gin.Context) (models.ProductFilter, error) {
	f := models.ProductFilter{
		Search:      strings.TrimSpace(c.Query("search")),
		Name:        queryString(c, "name"),
		Description: queryString(c, "description"),
		Ordering:    ordering(c),
	}
	if v, ok := c.GetQuery("price"); ok && v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return f, errors.New("price: enter a number")
		}
		f.Price = &price
	}
	discount, err := queryInt(c, "discount")
	if err != nil {
		return f, err
	}
	f.Discount = discount
	if v, ok := c.GetQuery("archived"); ok && v != "" {
		archived, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("archived: enter true or false")
		}
		f.Archived = &archived
	}
	return f, nil
}

func orderFilter(c *gin.Context) (models.OrderFilter, error) {
	f := models.OrderFilter{
		Search:          strings.TrimSpace(c.Query("search")),
		DeliveryAddress: queryString(c, "delivery_address"),
		Promocode:       queryString(c, "promocode"),
		Ordering:        ordering(c),
	}
	userID, err := queryInt(c, "user_id")
	if err != nil {
		return f, err
	}
	f.UserID = userID
	return f, nil
}

// @Summary List products
// @Description Search over name and description, exact filters and ordering (prefix "-" for descending)
// @Tags API - Products
// @Produce json
// @Param search query string false "Search name/description"
// @Param name query string false "Exact name"
// @Param description query string false "Exact description"
// @Param price query number false "Exact price"
// @Param discount query int false "Exact discount"
// @Param archived query bool false "Archived flag"
// @Param ordering query string false "name, description, price; comma separated"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} models.PaginationResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/products [get]
func (ctrl *APIController) ListProducts(c *gin.Context) {
	f, err := productFilter(c)
	if err != nil {
		badRequest(c, "Invalid filter", err)
		return
	}
	page, limit := pageParams(c)
	f.Limit = limit
	f.Offset = (page - 1) * limit

	products, total, err := ctrl.products.Search(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, models.PaginationResponse{
		Success: true,
		Message: "Products retrieved",
		Data:    products,
		Meta:    models.NewPaginationMeta(page, limit, total),
	})
}

// @Summary Create product
// @Tags API - Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.ProductInput true "Product"
// @Success 201 {object} models.Response
// @Router /api/products [post]
func (ctrl *APIController) CreateProduct(c *gin.Context) {
	in, err := bindProductInput(c)
	if err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	product, err := ctrl.products.Create(c.Request.Context(), currentUser(c), in, nil, nil)
	if err != nil {
		respondError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Product created successfully", Data: product})
}

// @Summary Get product
// @Tags API - Products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Response
// @Router /api/products/{id} [get]
func (ctrl *APIController) GetProduct(c *gin.Context) {
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

// @Summary Update product
// @Tags API - Products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body models.ProductInput true "Fields to change"
// @Success 200 {object} models.Response
// @Router /api/products/{id} [put]
// @Router /api/products/{id} [patch]
func (ctrl *APIController) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	in, err := bindProductInput(c)
	if err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	product, err := ctrl.products.Update(c.Request.Context(), currentUser(c), id, in, nil, nil)
	if err != nil {
		respondError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Product updated successfully", Data: product})
}

// @Summary Delete product
// @Description Soft delete, the row is kept with archived=true
// @Tags API - Products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Router /api/products/{id} [delete]
func (ctrl *APIController) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := ctrl.products.Archive(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err, "Failed to delete product")
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Download products as CSV
// @Description Accepts the same filters as the list endpoint
// @Tags API - Products
// @Produce text/csv
// @Success 200 {file} file
// @Router /api/products/download_csv [get]
func (ctrl *APIController) DownloadProductsCSV(c *gin.Context) {
	f, err := productFilter(c)
	if err != nil {
		badRequest(c, "Invalid filter", err)
		return
	}

	products, _, err := ctrl.products.Search(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "Failed to export products")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="products-export.csv"`)
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)
	if err := services.WriteProductsCSV(c.Writer, products); err != nil {
		_ = c.Error(err)
	}
}

// @Summary Upload products CSV
// @Tags API - Products
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /api/products/upload_csv [post]
func (ctrl *APIController) UploadProductsCSV(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required", err)
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

	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Products imported", Data: products})
}

// @Summary List orders
// @Tags API - Orders
// @Security BearerAuth
// @Produce json
// @Param search query string false "Search delivery address or user id"
// @Param delivery_address query string false "Exact delivery address"
// @Param promocode query string false "Exact promocode"
// @Param user_id query int false "Owner"
// @Param ordering query string false "pk, delivery_address, user_id; comma separated"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} models.PaginationResponse
// @Router /api/orders [get]
func (ctrl *APIController) ListOrders(c *gin.Context) {
	f, err := orderFilter(c)
	if err != nil {
		badRequest(c, "Invalid filter", err)
		return
	}
	page, limit := pageParams(c)
	f.Limit = limit
	f.Offset = (page - 1) * limit

	orders, total, err := ctrl.orders.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, models.PaginationResponse{
		Success: true,
		Message: "Orders retrieved",
		Data:    orders,
		Meta:    models.NewPaginationMeta(page, limit, total),
	})
}

// @Summary Create order
// @Tags API - Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.OrderInput true "Order"
// @Success 201 {object} models.Response
// @Router /api/orders [post]
func (ctrl *APIController) CreateOrder(c *gin.Context) {
	in, err := bindOrderInput(c)
	if err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	order, err := ctrl.orders.Create(c.Request.Context(), currentUser(c), in, formFile(c, "receipt"))
	if err != nil {
		respondError(c, err, "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Order created successfully", Data: order})
}

// @Summary Get order
// @Tags API - Orders
// @Security BearerAuth
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response
// @Router /api/orders/{id} [get]
func (ctrl *APIController) GetOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	order, err := ctrl.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Order not found")
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Order retrieved", Data: order})
}

// @Summary Update order
// @Tags API - Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body models.OrderInput true "Fields to change"
// @Success 200 {object} models.Response
// @Router /api/orders/{id} [put]
// @Router /api/orders/{id} [patch]
func (ctrl *APIController) UpdateOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	in, err := bindOrderInput(c)
	if err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	order, err := ctrl.orders.Update(c.Request.Context(), id, in, formFile(c, "receipt"))
	if err != nil {
		respondError(c, err, "Failed to update order")
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Order updated successfully", Data: order})
}

// @Summary Delete order
// @Tags API - Orders
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 204
// @Router /api/orders/{id} [delete]
func (ctrl *APIController) DeleteOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := ctrl.orders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete order")
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary List groups
// @Tags API - Groups
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Response
// @Router /api/groups [get]
func (ctrl *APIController) ListGroups(c *gin.Context) {
	groups, err := ctrl.users.ListGroups(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve groups")
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Groups retrieved", Data: groups})
}

// @Summary Create group
// @Tags API - Groups
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.GroupRequest true "Group"
// @Success 201 {object} models.Response
// @Failure 409 {object} models.ErrorResponse
// @Router /api/groups [post]
func (ctrl *APIController) CreateGroup(c *gin.Context) {
	var req models.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	group, err := ctrl.users.CreateGroup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to create group")
		return
	}

	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Group created successfully", Data: group})
}
