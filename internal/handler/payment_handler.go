package handler

import (
	"io"
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/payments")

	//webhookはゲートウェイからの呼び出しなので認証を掛けない
	g.POST("/webhook", h.webhook)

	auth := g.Group("")
	auth.Use(middleware.AuthJWT(cfg))
	auth.POST("/create-intent", h.createIntent)
	auth.POST("/confirm", h.confirm)
}

type CreateIntentRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	OrderID  int64   `json:"order_id"`
}

func (h *PaymentHandler) createIntent(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CreateIntentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateIntent(c.Request().Context(), userID, usecase.CreateIntentInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		OrderID:  req.OrderID,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

type ConfirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
	PaymentMethodID string `json:"payment_method_id"`
	OrderID         int64  `json:"order_id"`
}

func (h *PaymentHandler) confirm(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Confirm(c.Request().Context(), userID, usecase.ConfirmInput{
		PaymentIntentID: req.PaymentIntentID,
		PaymentMethodID: req.PaymentMethodID,
		OrderID:         req.OrderID,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

type webhookResponse struct {
	Received bool `json:"received"`
}

// 生ボディと署名ヘッダをそのまま渡す。
// 2xx以外を返すとゲートウェイが再配送してくる
func (h *PaymentHandler) webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	signature := c.Request().Header.Get("Signature")

	if err := h.uc.HandleWebhook(c.Request().Context(), body, signature); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, webhookResponse{Received: true})
}
