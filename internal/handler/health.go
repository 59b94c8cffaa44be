package handler // declare the package name; contains HTTP handlers

import (
	"context"  // context carries the request deadline to the database probe
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
	"github.com/rs/zerolog/log"   // log reports failed readiness probes
)

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems to verify that the process is running.  It never
// touches the database.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger is anything that can prove the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ready returns a readiness handler that opens and closes one database
// connection per probe and answers 503 when that fails.
func Ready(p Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := p.Ping(c.Request().Context()); err != nil { // connectivity probe
			log.Warn().Err(err).Msg("readiness probe failed")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "database unavailable"})
		}
		return c.String(http.StatusOK, "ok")
	}
}
