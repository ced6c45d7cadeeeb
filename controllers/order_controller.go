package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/services"
)

type OrderController struct {
	orders     *services.OrderService
	exports    *services.ExportService
	maxCSVSize int64
}

func NewOrderController(orders *services.OrderService, exports *services.ExportService, maxCSVSize int64) *OrderController {
	return &OrderController{
		orders:     orders,
		exports:    exports,
		maxCSVSize: maxCSVSize,
	}
}

// @Summary Get all orders
// @Tags Shop - Orders
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} models.PaginationResponse
// @Router /shop/orders [get]
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	page, limit := pageParams(c)

	orders, total, err := ctrl.orders.List(c.Request.Context(), models.OrderFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
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

// @Summary Get order by ID
// @Description Requires permission view_order
// @Tags Shop - Orders
// @Security BearerAuth
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /shop/orders/{id} [get]
func (ctrl *OrderController) GetOrder(c *gin.Context) {
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

// @Summary Create order
// @Description user_id defaults to the caller; products is a repeated form field or a JSON array
// @Tags Shop - Orders
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param delivery_address formData string false "Delivery address"
// @Param promocode formData string false "Promocode (max 20)"
// @Param user_id formData int false "Owner"
// @Param products formData []int false "Product IDs"
// @Param receipt formData file false "Receipt"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /shop/orders [post]
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
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

// @Summary Update order
// @Tags Shop - Orders
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Order ID"
// @Param delivery_address formData string false "Delivery address"
// @Param promocode formData string false "Promocode (max 20)"
// @Param user_id formData int false "Owner"
// @Param products formData []int false "Product IDs"
// @Param receipt formData file false "Receipt"
// @Success 200 {object} models.Response
// @Router /shop/orders/{id} [patch]
func (ctrl *OrderController) UpdateOrder(c *gin.Context) {
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
// @Tags Shop - Orders
// @Security BearerAuth
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response
// @Router /shop/orders/{id} [delete]
func (ctrl *OrderController) DeleteOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := ctrl.orders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete order")
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Order deleted successfully"})
}

// @Summary Export orders
// @Description Staff only. products holds product names.
// @Tags Shop - Orders
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.OrdersExport
// @Router /shop/orders/export [get]
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	out, err := ctrl.exports.OrdersExport(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to export orders")
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Get orders of a user
// @Tags Shop - Orders
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /shop/users/{id}/orders [get]
func (ctrl *OrderController) UserOrders(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	owner, orders, err := ctrl.orders.ListForUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}

	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Orders retrieved",
		Data:    gin.H{"owner": owner, "orders": orders},
	})
}

// @Summary Export orders of a user
// @Description {"<username>":[{pk,delivery_address,promocode}]}, cached for EXPORT_CACHE_TTL
// @Tags Shop - Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string][]models.UserOrderExportItem
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /shop/users/{id}/orders/export [get]
func (ctrl *OrderController) UserOrdersExport(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	data, err := ctrl.exports.UserOrdersExport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

// @Summary Import orders from CSV
// @Description Columns: delivery_address, promocode, user_id, product ("[1,2]"). The whole file is one transaction.
// @Tags Admin - Orders
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param csv_file formData file true "CSV file"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/orders/import [post]
func (ctrl *OrderController) ImportCSV(c *gin.Context) {
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

	orders, err := ctrl.orders.ImportOrders(c.Request.Context(), file)
	if err != nil {
		respondError(c, err, "Failed to import orders")
		return
	}

	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Orders imported", Data: orders})
}
