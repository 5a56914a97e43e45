package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mesalibre/mesalibre/internal/metrics"
)

// Metrics counts every handled request by method, registered route and
// status class (2xx, 4xx, ...). The route label uses the Echo route
// pattern, not the raw path, to keep cardinality bounded.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			class := strconv.Itoa(status/100) + "xx"
			metrics.IncHTTP(c.Request().Method, c.Path(), class)
			return err
		}
	}
}
