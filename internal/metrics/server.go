package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterEndpoint mounts the Prometheus scrape endpoint on e, grounded
// on rest's echo-handler-registration style and mq-hub/app/main.go's
// promhttp.Handler() mux registration.
func RegisterEndpoint(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
