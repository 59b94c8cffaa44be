package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/film-store/internal/config"
	"github.com/iliyamo/film-store/internal/database"
	"github.com/iliyamo/film-store/internal/model"
)

// FilmRepo runs the film statements.  It keeps no connection between calls:
// every method dials its own connection through database.WithConn and
// releases it before returning.
type FilmRepo struct {
	dial database.Dialer // dial opens one connection per call
	cfg  config.DBConfig // cfg is handed to dial unchanged
}

// NewFilmRepo constructs a FilmRepo.  Passing a nil dialer selects
// database.Dial.
func NewFilmRepo(dial database.Dialer, cfg config.DBConfig) *FilmRepo {
	if dial == nil {
		dial = database.Dial
	}
	return &FilmRepo{dial: dial, cfg: cfg}
}

// Create inserts f inside a transaction.  On success f.ID is set to the
// film_id generated by the database.  On failure the transaction is rolled
// back and f is left untouched.
func (r *FilmRepo) Create(ctx context.Context, f *model.Film) error {
	const q = `INSERT INTO film (ad, sure_dk, tur, yas_siniri)
	           VALUES ($1, $2, $3, $4)
	           RETURNING film_id`
	return database.WithConn(ctx, r.dial, r.cfg, func(conn database.Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("create film: %w", err)
		}
		var id int64
		if err := tx.QueryRow(ctx, q, f.Title, f.DurationMin, f.Genre, f.AgeRating).Scan(&id); err != nil {
			rollback(ctx, tx)
			return fmt.Errorf("create film: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("create film: %w", err)
		}
		f.ID = id
		return nil
	})
}

// List returns every film in the order the database produces them.  No
// ordering is requested, so the order may differ between calls.
func (r *FilmRepo) List(ctx context.Context) ([]*model.Film, error) {
	const q = `SELECT film_id, ad, sure_dk, tur, yas_siniri FROM film`
	var out []*model.Film
	err := database.WithConn(ctx, r.dial, r.cfg, func(conn database.Conn) error {
		rows, err := conn.Query(ctx, q)
		if err != nil {
			return fmt.Errorf("list films: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			f := new(model.Film)
			if err := rows.Scan(&f.ID, &f.Title, &f.DurationMin, &f.Genre, &f.AgeRating); err != nil {
				return fmt.Errorf("list films: %w", err)
			}
			out = append(out, f)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("list films: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a single film.  It returns ErrFilmNotFound if no row
// has that id.
func (r *FilmRepo) GetByID(ctx context.Context, id int64) (*model.Film, error) {
	const q = `SELECT film_id, ad, sure_dk, tur, yas_siniri FROM film WHERE film_id = $1`
	var f model.Film
	err := database.WithConn(ctx, r.dial, r.cfg, func(conn database.Conn) error {
		err := conn.QueryRow(ctx, q, id).Scan(&f.ID, &f.Title, &f.DurationMin, &f.Genre, &f.AgeRating)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrFilmNotFound
		}
		if err != nil {
			return fmt.Errorf("get film: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Update replaces all four non-key fields of the film with f.ID.  It returns
// ErrFilmNotFound when no row was affected; in that case nothing is committed.
func (r *FilmRepo) Update(ctx context.Context, f *model.Film) error {
	const q = `UPDATE film
	           SET ad = $1,
	               sure_dk = $2,
	               tur = $3,
	               yas_siniri = $4
	           WHERE film_id = $5`
	return r.execOne(ctx, "update film", q, f.Title, f.DurationMin, f.Genre, f.AgeRating, f.ID)
}

// Delete removes the film with id.  It returns ErrFilmNotFound when no row
// was affected; in that case nothing is committed.
func (r *FilmRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM film WHERE film_id = $1`
	return r.execOne(ctx, "delete film", q, id)
}

// Ping opens a connection and closes it again.
func (r *FilmRepo) Ping(ctx context.Context) error {
	return database.WithConn(ctx, r.dial, r.cfg, func(database.Conn) error { return nil })
}

// execOne runs a single write statement in its own transaction.  The
// transaction is committed only when at least one row was affected; a failed
// statement and a statement that matched nothing are both rolled back.
func (r *FilmRepo) execOne(ctx context.Context, op, q string, args ...any) error {
	return database.WithConn(ctx, r.dial, r.cfg, func(conn database.Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		tag, err := tx.Exec(ctx, q, args...)
		if err != nil {
			rollback(ctx, tx)
			return fmt.Errorf("%s: %w", op, err)
		}
		if tag.RowsAffected() == 0 {
			rollback(ctx, tx)
			return ErrFilmNotFound
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.Warn().Err(err).Msg("rollback failed")
	}
}
