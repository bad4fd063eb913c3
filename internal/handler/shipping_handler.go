package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/infra/carrier"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ShippingHandler struct {
	uc *usecase.ShippingUsecase
}

func NewShippingHandler(uc *usecase.ShippingUsecase) *ShippingHandler {
	return &ShippingHandler{uc: uc}
}

func (h *ShippingHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/shipping")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/calculate", h.calculate)
	g.GET("/track/:trackingNumber", h.track)

	//出荷作成は管理者のみ
	admin := g.Group("")
	admin.Use(middleware.AdminRoleGuard())
	admin.POST("/create-shipment", h.createShipment)
}

type CalculateRequest struct {
	DestinationCountry string                   `json:"destination_country"`
	Currency           string                   `json:"currency"`
	Items              []usecase.QuoteItemInput `json:"items"`
}

func (h *ShippingHandler) calculate(c echo.Context) error {
	var req CalculateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Quote(c.Request().Context(), usecase.QuoteInput{
		DestinationCountry: req.DestinationCountry,
		Currency:           req.Currency,
		Items:              req.Items,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

type CreateShipmentRequest struct {
	OrderID   int64           `json:"order_id"`
	Recipient carrier.Address `json:"recipient"`
}

func (h *ShippingHandler) createShipment(c echo.Context) error {
	var req CreateShipmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateShipment(c.Request().Context(), usecase.CreateShipmentInput{
		OrderID:   req.OrderID,
		Recipient: req.Recipient,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ShippingHandler) track(c echo.Context) error {
	trackingNumber := c.Param("trackingNumber")

	out, err := h.uc.Track(c.Request().Context(), trackingNumber)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
