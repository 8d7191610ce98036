package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"cartservice/internal/middleware"
	"cartservice/internal/usecase"
	"cartservice/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService は /carts が呼ぶusecase
type CartService interface {
	ListCarts(ctx context.Context) ([]usecase.CartView, error)
	CreateCart(ctx context.Context, userID int64) (usecase.CartView, error)
	FetchCart(ctx context.Context, cartID int64) (usecase.CartView, error)
	EmptyCart(ctx context.Context, cartID int64) error
	AddProduct(ctx context.Context, in usecase.AddProductInput) (usecase.CartLineView, error)
	UpdateLineQuantity(ctx context.Context, lineID int64, qty int) (usecase.CartLineView, error)
	RemoveLine(ctx context.Context, lineID int64) (usecase.CartLineView, error)
	IdentifyAbandonedCarts(ctx context.Context, threshold time.Time) ([]usecase.CartView, error)
}

// /cartsのHTTP
type CartHandler struct {
	uc        CartService
	jwtSecret string // 空なら認証なし
	log       *zap.Logger
}

// DI
func NewCartHandler(uc CartService, jwtSecret string, log *zap.Logger) *CartHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartHandler{uc: uc, jwtSecret: jwtSecret, log: log}
}

type AddProductRequest struct {
	CartID             int64            `json:"cartId"`
	ProductID          int64            `json:"productId"`
	ProductName        string           `json:"productName"`
	ProductDescription string           `json:"productDescription"`
	Quantity           *int             `json:"quantity"`
	Price              *decimal.Decimal `json:"price"`
}

type UpdateQuantityRequest struct {
	ID       int64 `json:"id"`
	Quantity *int  `json:"quantity"`
}

// /carts 以下を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/carts")

	// 一覧系は管理者だけ
	admin := []echo.MiddlewareFunc{}
	if h.jwtSecret != "" {
		g.Use(middleware.AuthJWT(h.jwtSecret))
		admin = append(admin, middleware.AdminRoleGuard())
	}

	g.GET("", h.list, admin...)
	g.GET("/abandoned", h.abandoned, admin...)

	g.POST("/products", h.addProduct)
	g.PATCH("/products", h.updateQuantity)
	g.DELETE("/products/:id", h.removeLine)

	g.POST("/:id", h.create)
	g.GET("/:id", h.fetch)
	g.DELETE("/:id", h.empty)
}

func (h *CartHandler) list(c echo.Context) error {
	out, err := h.uc.ListCarts(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) create(c echo.Context) error {
	// POST /carts/:id の :id はユーザーID
	userID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid input"})
	}

	cart, err := h.uc.CreateCart(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}

	c.Response().Header().Set(echo.HeaderLocation, "/carts/"+strconv.FormatInt(cart.ID, 10))
	return c.JSON(http.StatusCreated, true)
}

func (h *CartHandler) fetch(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid input"})
	}

	out, err := h.uc.FetchCart(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) empty(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid input"})
	}

	if err := h.uc.EmptyCart(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *CartHandler) addProduct(c echo.Context) error {
	var req AddProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := validator.ValidateAddProduct(validator.AddProductRequest{
		CartID:             req.CartID,
		ProductID:          req.ProductID,
		ProductName:        req.ProductName,
		ProductDescription: req.ProductDescription,
		Quantity:           req.Quantity,
		Price:              req.Price,
	}); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AddProduct(c.Request().Context(), usecase.AddProductInput{
		CartID:             req.CartID,
		ProductID:          req.ProductID,
		ProductName:        req.ProductName,
		ProductDescription: req.ProductDescription,
		Quantity:           *req.Quantity,
		Price:              *req.Price,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CartHandler) updateQuantity(c echo.Context) error {
	var req UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := validator.ValidateUpdateQuantity(validator.UpdateQuantityRequest{
		ID:       req.ID,
		Quantity: req.Quantity,
	}); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateLineQuantity(c.Request().Context(), req.ID, *req.Quantity)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) removeLine(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid input"})
	}

	out, err := h.uc.RemoveLine(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// before=YYYY-MM-DD は必須
func (h *CartHandler) abandoned(c echo.Context) error {
	raw := c.QueryParam("before")
	if raw == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "before is required"})
	}
	before, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before"})
	}

	out, err := h.uc.IdentifyAbandonedCarts(c.Request().Context(), before)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 5xxだけログに残す
func (h *CartHandler) fail(c echo.Context, err error) error {
	he := toHTTPError(err)
	if he.Status >= http.StatusInternalServerError {
		h.log.Error("cart request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.JSON(he.Status, ErrorResponse{Error: he.Message})
}

func parseID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
