// Package queue defines the film change events exchanged over RabbitMQ and
// the publisher and consumer that move them.
package queue

import (
	"time"

	"github.com/iliyamo/film-store/internal/model"
)

// Event types carried in FilmEvent.Type.
const (
	FilmCreated = "film.created"
	FilmUpdated = "film.updated"
	FilmDeleted = "film.deleted"
)

// FilmEvent is published after a write to the film table was committed.  It
// carries the full row so consumers need not query the database.  For
// deletions only FilmID is set.
type FilmEvent struct {
	Type        string `json:"type"`
	FilmID      int64  `json:"film_id"`
	Title       string `json:"ad,omitempty"`
	DurationMin int    `json:"sure_dk,omitempty"`
	Genre       string `json:"tur,omitempty"`
	AgeRating   string `json:"yas_siniri,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

// NewFilmEvent builds an event of type typ for f stamped with now (UTC, RFC 3339).
func NewFilmEvent(typ string, f model.Film, now time.Time) FilmEvent {
	return FilmEvent{
		Type:        typ,
		FilmID:      f.ID,
		Title:       f.Title,
		DurationMin: f.DurationMin,
		Genre:       f.Genre,
		AgeRating:   f.AgeRating,
		OccurredAt:  now.UTC().Format(time.RFC3339),
	}
}
