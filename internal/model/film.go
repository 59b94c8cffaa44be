package model

import "fmt"

// Film is one row of the `film` table.  ID is assigned by the database on
// insert and never set by this application; every other field is stored
// exactly as the caller supplied it.
type Film struct {
	ID          int64  `json:"film_id"`    // film.film_id
	Title       string `json:"ad"`         // film.ad
	DurationMin int    `json:"sure_dk"`    // film.sure_dk, minutes
	Genre       string `json:"tur"`        // film.tur
	AgeRating   string `json:"yas_siniri"` // film.yas_siniri
}

// String renders the film as a single human-readable line.
func (f Film) String() string {
	return fmt.Sprintf("film_id=%d ad=%q sure_dk=%d tur=%q yas_siniri=%q",
		f.ID, f.Title, f.DurationMin, f.Genre, f.AgeRating)
}
