package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/film-store/internal/handler" // import the handlers that implement the film endpoints
)

// RegisterRoutes registers the probe endpoints.  /healthz only proves the
// process is up; /readyz also opens a database connection.
func RegisterRoutes(e *echo.Echo, ready handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(ready))
}

// RegisterFilms registers the film endpoints under /v1/films.  The given
// middleware (cache, rate limit) applies to this group only so the probes
// are never throttled or served stale.
func RegisterFilms(e *echo.Echo, h *handler.FilmHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1/films", mw...)
	g.GET("", h.ListFilms)
	g.POST("", h.CreateFilm)
	g.GET("/:id", h.GetFilm)
	g.PUT("/:id", h.UpdateFilm)
	g.DELETE("/:id", h.DeleteFilm)
}
