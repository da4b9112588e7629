package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"tussles/internal/apperror"
	"tussles/internal/lifecycle"
	"tussles/internal/middleware"
	"tussles/internal/model"
	"tussles/internal/service"
	"tussles/internal/storage"
	"tussles/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// maxOrderRequestBytes caps a create request: one image plus form fields.
const maxOrderRequestBytes = storage.MaxImageSize + 1<<20

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RegisterRoutes expects router to be behind Authenticate.
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.GET("", h.ListOrders)
		orders.POST("", h.CreateOrder)
		orders.GET("/completed", middleware.RequireRole(model.RoleOwner), h.CompletedOrders)
		orders.GET("/dashboard/stats", middleware.RequireRole(model.RoleOwner), h.DashboardStats)
		orders.POST("/:id/approve", middleware.RequireRole(model.RoleOwner), h.ApproveOrder)
	}
}

// ListOrders returns the orders visible to the caller
// @Summary      List orders
// @Description  Owners see every order. Employees see open orders and orders completed in the last 24 hours.
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "awaiting_approval or completed"
// @Success      200     {object}  response.Response{data=[]model.Order}
// @Failure      401     {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), middleware.CurrentUser(c), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(orders))
}

// CreateOrder handles multipart order creation with an optional image
// @Summary      Create an order
// @Description  Validates the form and image, uploads the image and stores the order awaiting approval
// @Tags         orders
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        company_id      formData  string  true   "Company ID"
// @Param        quantity        formData  int     true   "Quantity"
// @Param        price_per_unit  formData  string  true   "Price per unit"
// @Param        due_date        formData  string  false  "Due date (YYYY-MM-DD)"
// @Param        notes           formData  string  false  "Notes"
// @Param        material_cost   formData  string  false  "Material cost"
// @Param        labor_cost      formData  string  false  "Labor cost"
// @Param        image           formData  file    false  "Order image (jpeg, png, gif, webp; max 5MB)"
// @Success      201             {object}  response.Response{data=model.Order}
// @Failure      400             {object}  response.Response
// @Failure      404             {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxOrderRequestBytes)

	var form lifecycle.OrderForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		if tooLarge(err) {
			respondError(c, storage.ImageTooLarge())
			return
		}
		respondError(c, bindError(err))
		return
	}

	image, err := imageFromRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), middleware.CurrentUser(c), form, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.SuccessMessage("Order created", order))
}

// ApproveOrder marks an awaiting order completed
// @Summary      Approve an order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/approve [post]
func (h *OrderHandler) ApproveOrder(c *gin.Context) {
	order, err := h.orderService.ApproveOrder(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessMessage("Order approved", order))
}

// CompletedOrders lists the most recently approved orders
// @Summary      Completed orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Order}
// @Failure      403  {object}  response.Response
// @Router       /api/orders/completed [get]
func (h *OrderHandler) CompletedOrders(c *gin.Context) {
	orders, err := h.orderService.CompletedOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(orders))
}

// DashboardStats returns revenue and pending approval counts
// @Summary      Dashboard stats
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.DashboardStats}
// @Failure      403  {object}  response.Response
// @Router       /api/orders/dashboard/stats [get]
func (h *OrderHandler) DashboardStats(c *gin.Context) {
	stats, err := h.orderService.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(stats))
}

// imageFromRequest returns the uploaded image, accepting the legacy field
// name too. A request without an image yields nil.
func imageFromRequest(c *gin.Context) (*multipart.FileHeader, error) {
	for _, field := range []string{storage.ImageField, storage.LegacyImageField} {
		fh, err := c.FormFile(field)
		if err == nil {
			return fh, nil
		}
		if tooLarge(err) {
			return nil, storage.ImageTooLarge()
		}
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			return nil, apperror.FieldError(storage.ImageField, "Could not read uploaded image")
		}
	}
	return nil, nil
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
