// Package service exposes the film operations as console-facing calls: each
// one runs a single statement through the repository and reports what
// happened as a human-readable notice.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/film-store/internal/model"
	"github.com/iliyamo/film-store/internal/queue"
	"github.com/iliyamo/film-store/internal/repository"
)

// Outcome is what an operation did.  The notice text is the primary output;
// Outcome exists so callers like the CLI can pick an exit status.
type Outcome int

const (
	Succeeded Outcome = iota
	NoMatch           // update/delete/get matched no row; not an error
	Failed            // connection or execution failure; nothing changed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case NoMatch:
		return "no match"
	default:
		return "failed"
	}
}

// FilmStore is the persistence the service needs.  *repository.FilmRepo
// implements it.
type FilmStore interface {
	Create(ctx context.Context, f *model.Film) error
	List(ctx context.Context) ([]*model.Film, error)
	GetByID(ctx context.Context, id int64) (*model.Film, error)
	Update(ctx context.Context, f *model.Film) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// EventPublisher receives change events after a committed write.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.FilmEvent) error
}

// FilmService reports the result of every film operation to its writer.
type FilmService struct {
	store  FilmStore
	out    io.Writer
	events EventPublisher
	now    func() time.Time
}

// NewFilmService builds a service writing notices to out.  events may be nil.
func NewFilmService(store FilmStore, out io.Writer, events EventPublisher) *FilmService {
	return &FilmService{store: store, out: out, events: events, now: time.Now}
}

// CreateFilm inserts a new film.  The database assigns film_id.
func (s *FilmService) CreateFilm(ctx context.Context, title string, durationMin int, genre, ageRating string) Outcome {
	f := &model.Film{Title: title, DurationMin: durationMin, Genre: genre, AgeRating: ageRating}
	if err := s.store.Create(ctx, f); err != nil {
		s.printf("Could not add film: %v\n", err)
		return Failed
	}
	s.printf("Film added (film_id=%d).\n", f.ID)
	s.publish(ctx, queue.FilmCreated, *f)
	return Succeeded
}

// ListFilms prints every film, one per line, or a single notice when the
// table is empty.
func (s *FilmService) ListFilms(ctx context.Context) Outcome {
	films, err := s.store.List(ctx)
	if err != nil {
		s.printf("Could not list films: %v\n", err)
		return Failed
	}
	if len(films) == 0 {
		s.printf("No films found.\n")
		return Succeeded
	}
	for _, f := range films {
		s.printf("%s\n", f)
	}
	return Succeeded
}

// GetFilm prints the film with filmID.
func (s *FilmService) GetFilm(ctx context.Context, filmID int64) Outcome {
	f, err := s.store.GetByID(ctx, filmID)
	switch {
	case errors.Is(err, repository.ErrFilmNotFound):
		s.printf("No film with film_id=%d.\n", filmID)
		return NoMatch
	case err != nil:
		s.printf("Could not get film: %v\n", err)
		return Failed
	}
	s.printf("%s\n", f)
	return Succeeded
}

// UpdateFilm replaces all four fields of the film with filmID.  A missing
// film is reported as NoMatch, not as a failure.
func (s *FilmService) UpdateFilm(ctx context.Context, filmID int64, title string, durationMin int, genre, ageRating string) Outcome {
	f := &model.Film{ID: filmID, Title: title, DurationMin: durationMin, Genre: genre, AgeRating: ageRating}
	err := s.store.Update(ctx, f)
	switch {
	case errors.Is(err, repository.ErrFilmNotFound):
		s.printf("No film to update (film_id=%d).\n", filmID)
		return NoMatch
	case err != nil:
		s.printf("Could not update film: %v\n", err)
		return Failed
	}
	s.printf("Film updated.\n")
	s.publish(ctx, queue.FilmUpdated, *f)
	return Succeeded
}

// DeleteFilm removes the film with filmID.  Deleting twice is safe: the
// second call reports NoMatch.
func (s *FilmService) DeleteFilm(ctx context.Context, filmID int64) Outcome {
	err := s.store.Delete(ctx, filmID)
	switch {
	case errors.Is(err, repository.ErrFilmNotFound):
		s.printf("No film to delete (film_id=%d).\n", filmID)
		return NoMatch
	case err != nil:
		s.printf("Could not delete film: %v\n", err)
		return Failed
	}
	s.printf("Film deleted.\n")
	s.publish(ctx, queue.FilmDeleted, model.Film{ID: filmID})
	return Succeeded
}

// CheckConnectivity opens and closes one connection.
func (s *FilmService) CheckConnectivity(ctx context.Context) Outcome {
	if err := s.store.Ping(ctx); err != nil {
		s.printf("Connection failed: %v\n", err)
		return Failed
	}
	s.printf("Connection successful.\n")
	return Succeeded
}

func (s *FilmService) publish(ctx context.Context, typ string, f model.Film) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, queue.NewFilmEvent(typ, f, s.now())); err != nil {
		log.Warn().Err(err).Str("type", typ).Int64("film_id", f.ID).Msg("publishing film event")
	}
}

func (s *FilmService) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(s.out, format, args...); err != nil {
		log.Debug().Err(err).Msg("writing notice")
	}
}
