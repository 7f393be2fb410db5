package http

import "github.com/labstack/echo/v4"

// Handler owns a set of routes. The server calls RegisterRoutes once, after the
// shared middleware chain is installed.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
