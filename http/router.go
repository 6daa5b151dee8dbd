package http

import (
	"net/http"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/labstack/echo/v4"
)

var ErrServerClosed = http.ErrServerClosed

type RouterDeps struct {
	Checkins  CheckinLister
	Engine    ValidationEngine
	Generator TicketGenerator
	JWTSecret []byte
}

func NewRouter(deps RouterDeps) *echo.Echo {
	server := commonHTTP.NewEcho()

	server.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	h := handler{
		checkins:  deps.Checkins,
		engine:    deps.Engine,
		generator: deps.Generator,
	}

	api := server.Group("", authMiddleware(deps.JWTSecret))
	api.POST("/tickets/generate/:order_id", h.GenerateTickets)
	api.GET("/tickets/:code", h.GetTicketStatus)
	api.POST("/tickets/validate", h.ValidateTicket, requireRole(RoleScanner, RoleAdmin))
	api.GET("/checkins", h.ListCheckins, requireRole(RoleAdmin))

	return server
}
