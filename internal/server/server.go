package server

import (
	"context"
	"time"

	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
)

func New(cfg config.Config, paymentH *handler.PaymentHandler, shippingH *handler.ShippingHandler, orderH *handler.OrderHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	paymentH.RegisterRoutes(e, cfg)
	shippingH.RegisterRoutes(e, cfg)
	orderH.RegisterRoutes(e, cfg)

	return e
}

// ctxが閉じたらgraceful shutdownする
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
