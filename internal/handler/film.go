package handler // handler package contains the film API handlers

import (
	"context"  // context is passed through to the repository
	"errors"   // errors matches repository sentinel errors
	"net/http" // http provides status code constants
	"strconv"  // strconv parses film ids from the URL
	"time"     // time stamps published events

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers
	"github.com/rs/zerolog/log"   // log records unexpected repository errors

	"github.com/iliyamo/film-store/internal/model"      // model defines the Film record
	"github.com/iliyamo/film-store/internal/queue"      // queue defines film change events
	"github.com/iliyamo/film-store/internal/repository" // repository holds the sentinel errors
)

// FilmRepository is the persistence the film handlers need.
type FilmRepository interface {
	Create(ctx context.Context, f *model.Film) error
	List(ctx context.Context) ([]*model.Film, error)
	GetByID(ctx context.Context, id int64) (*model.Film, error)
	Update(ctx context.Context, f *model.Film) error
	Delete(ctx context.Context, id int64) error
}

// EventPublisher receives change events after a committed write.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.FilmEvent) error
}

// FilmHandler exposes the film table over JSON.
type FilmHandler struct {
	Repo   FilmRepository // Repo provides film persistence
	Events EventPublisher // Events is optional; nil disables publishing
}

// NewFilmHandler constructs a FilmHandler and panics if repo is nil
func NewFilmHandler(repo FilmRepository) *FilmHandler {
	if repo == nil {
		panic("nil repository passed to NewFilmHandler")
	}
	return &FilmHandler{Repo: repo}
}

// filmBody is the accepted request payload.  Values are stored verbatim;
// the database enforces the column types.
type filmBody struct {
	Title       string `json:"ad"`
	DurationMin int    `json:"sure_dk"`
	Genre       string `json:"tur"`
	AgeRating   string `json:"yas_siniri"`
}

func (b filmBody) film(id int64) *model.Film {
	return &model.Film{ID: id, Title: b.Title, DurationMin: b.DurationMin, Genre: b.Genre, AgeRating: b.AgeRating}
}

// ListFilms handles GET /v1/films
func (h *FilmHandler) ListFilms(c echo.Context) error {
	films, err := h.Repo.List(c.Request().Context())
	if err != nil {
		return repoError(c, err)
	}
	if films == nil {
		films = []*model.Film{} // encode an empty table as [] rather than null
	}
	return c.JSON(http.StatusOK, map[string]any{"count": len(films), "items": films})
}

// GetFilm handles GET /v1/films/:id
func (h *FilmHandler) GetFilm(c echo.Context) error {
	id, err := filmID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	f, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return repoError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// CreateFilm handles POST /v1/films and returns the stored film with its new id
func (h *FilmHandler) CreateFilm(c echo.Context) error {
	var body filmBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	f := body.film(0)
	if err := h.Repo.Create(c.Request().Context(), f); err != nil {
		return repoError(c, err)
	}
	h.publish(c, queue.FilmCreated, *f)
	return c.JSON(http.StatusCreated, f)
}

// UpdateFilm handles PUT /v1/films/:id; all four fields are replaced
func (h *FilmHandler) UpdateFilm(c echo.Context) error {
	id, err := filmID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body filmBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	f := body.film(id)
	if err := h.Repo.Update(c.Request().Context(), f); err != nil {
		return repoError(c, err)
	}
	h.publish(c, queue.FilmUpdated, *f)
	return c.JSON(http.StatusOK, f)
}

// DeleteFilm handles DELETE /v1/films/:id
func (h *FilmHandler) DeleteFilm(c echo.Context) error {
	id, err := filmID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		return repoError(c, err)
	}
	h.publish(c, queue.FilmDeleted, model.Film{ID: id})
	return c.NoContent(http.StatusNoContent)
}

// publish hands the event to Events; failures are logged and never change
// the response.
func (h *FilmHandler) publish(c echo.Context, typ string, f model.Film) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Publish(c.Request().Context(), queue.NewFilmEvent(typ, f, time.Now())); err != nil {
		log.Warn().Err(err).Str("type", typ).Int64("film_id", f.ID).Msg("publishing film event")
	}
}

func filmID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// repoError maps repository errors onto HTTP responses.
func repoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrFilmNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "film not found"})
	case errors.Is(err, repository.ErrUnavailable):
		log.Error().Err(err).Msg("database unavailable")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "database unavailable"})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("film query failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
}
