package handler

import (
	"net/http"
	"strconv"
	"strings"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API + 出品者向けAPI
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

type ProductCreateRequest struct {
	Title       string   `json:"title" validate:"notblank,max=100"`
	Description string   `json:"description" validate:"notblank,max=1000"`
	Price       int64    `json:"price" validate:"gte=0"`
	Category    string   `json:"category" validate:"required"`
	Images      []string `json:"images" validate:"required,min=1,max=10,dive,notblank"`
	Breed       string   `json:"breed" validate:"max=100"`
	Weight      string   `json:"weight" validate:"max=50"`
	Age         string   `json:"age" validate:"max=50"`
	Stock       *int64   `json:"stock" validate:"omitempty,gte=0"`
}

type StockUpdateRequest struct {
	Stock  *int64 `json:"stock" validate:"required,gte=0"`
	Reason string `json:"reason" validate:"max=200"`
}

// 公開ルートと、seller/admin限定のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, sellerOnly echo.MiddlewareFunc) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)

	g := e.Group("/products")
	g.Use(auth, sellerOnly)
	g.POST("", h.create)
	g.PUT("/:id/stock", h.updateStock)
}

func (h *ProductHandler) list(c echo.Context) error {
	in := usecase.ListProductsInput{Category: strings.TrimSpace(c.QueryParam("category"))}

	if v := c.QueryParam("sellerId"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid sellerId")
		}
		in.SellerID = &x
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) create(c echo.Context) error {
	var req ProductCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.CreateProduct(c.Request().Context(), middleware.IdentityFrom(c), usecase.CreateProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Images:      req.Images,
		Breed:       req.Breed,
		Weight:      req.Weight,
		Age:         req.Age,
		Stock:       req.Stock,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// 在庫の上書き（棚卸し）
func (h *ProductHandler) updateStock(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	var req StockUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.UpdateStock(c.Request().Context(), middleware.IdentityFrom(c), id, *req.Stock, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
