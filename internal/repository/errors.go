// Package repository holds the data access logic for the film table.  These
// sentinel values let the service, the HTTP handlers and the CLI tell the
// outcomes of a statement apart without parsing driver messages.
package repository

import (
	"errors"

	"github.com/iliyamo/film-store/internal/database"
)

// ErrFilmNotFound is returned when no row matches the given film_id.  For
// updates and deletes it means zero rows were affected and nothing was
// committed.  Handlers translate it into an HTTP 404 response.
var ErrFilmNotFound = errors.New("film not found")

// ErrUnavailable is returned (wrapped) when no connection could be opened.
// Handlers translate it into an HTTP 503 response.
var ErrUnavailable = database.ErrUnavailable
