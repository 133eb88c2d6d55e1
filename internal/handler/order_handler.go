package handler

import (
	"net/http"
	"strconv"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	checkout *usecase.CheckoutUsecase
	payments *usecase.PaymentUsecase
	queries  *usecase.OrderQueryUsecase
}

func NewOrderHandler(checkout *usecase.CheckoutUsecase, payments *usecase.PaymentUsecase, queries *usecase.OrderQueryUsecase) *OrderHandler {
	return &OrderHandler{checkout: checkout, payments: payments, queries: queries}
}

type cartItemRequest struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gte=1,max=10000"`
	Title     string `json:"title" validate:"max=200"`
}

type OrderCreateRequest struct {
	CartItems       []cartItemRequest `json:"cartItems" validate:"required,min=1,max=50,dive"`
	ShippingAddress string            `json:"shippingAddress" validate:"notblank,max=500"`
}

// 署名の検証はusecase側。ここは形だけ
type PaymentVerifyRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId" validate:"notblank"`
	GatewayPaymentID string `json:"gatewayPaymentId" validate:"notblank"`
	GatewaySignature string `json:"gatewaySignature" validate:"notblank"`
	DBOrderID        int64  `json:"dbOrderId" validate:"required,gt=0"`
}

// verify はゲートウェイ完了後にブラウザから呼ばれるので認証なし（署名で守る）
func (h *OrderHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, verifyLimit echo.MiddlewareFunc) {
	e.POST("/orders/verify", h.verify, verifyLimit)

	g := e.Group("/orders")
	g.Use(auth)
	g.POST("", h.create)
	g.GET("/list", h.list)
	g.GET("/:id", h.detail)
}

func (h *OrderHandler) create(c echo.Context) error {
	var req OrderCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	lines := make([]usecase.CartLine, 0, len(req.CartItems))
	for _, it := range req.CartItems {
		lines = append(lines, usecase.CartLine{ProductID: it.ProductID, Quantity: it.Quantity, Title: it.Title})
	}

	out, err := h.checkout.PlaceOrder(c.Request().Context(), middleware.IdentityFrom(c), usecase.PlaceOrderInput{
		CartItems:       lines,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) verify(c echo.Context) error {
	var req PaymentVerifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.payments.Verify(c.Request().Context(), usecase.VerifyPaymentInput{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.GatewaySignature,
		OrderID:          req.DBOrderID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	out, err := h.queries.List(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	out, err := h.queries.Get(c.Request().Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
