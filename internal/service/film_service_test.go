package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/film-store/internal/config"
	"github.com/iliyamo/film-store/internal/database"
	"github.com/iliyamo/film-store/internal/model"
	"github.com/iliyamo/film-store/internal/queue"
	"github.com/iliyamo/film-store/internal/repository"
)

// memStore keeps films in memory and mimics the repository's error contract.
type memStore struct {
	films   map[int64]model.Film
	order   []int64
	nextID  int64
	failAll error
}

func newMemStore() *memStore { return &memStore{films: map[int64]model.Film{}, nextID: 1} }

func (m *memStore) Create(_ context.Context, f *model.Film) error {
	if m.failAll != nil {
		return m.failAll
	}
	f.ID = m.nextID
	m.nextID++
	m.films[f.ID] = *f
	m.order = append(m.order, f.ID)
	return nil
}

func (m *memStore) List(context.Context) ([]*model.Film, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []*model.Film
	for _, id := range m.order {
		if f, ok := m.films[id]; ok {
			out = append(out, &f)
		}
	}
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*model.Film, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	f, ok := m.films[id]
	if !ok {
		return nil, repository.ErrFilmNotFound
	}
	return &f, nil
}

func (m *memStore) Update(_ context.Context, f *model.Film) error {
	if m.failAll != nil {
		return m.failAll
	}
	if _, ok := m.films[f.ID]; !ok {
		return repository.ErrFilmNotFound
	}
	m.films[f.ID] = *f
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if m.failAll != nil {
		return m.failAll
	}
	if _, ok := m.films[id]; !ok {
		return repository.ErrFilmNotFound
	}
	delete(m.films, id)
	return nil
}

func (m *memStore) Ping(context.Context) error { return m.failAll }

type recordingPublisher struct {
	events []queue.FilmEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.FilmEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func newTestService(store FilmStore, pub EventPublisher) (*FilmService, *bytes.Buffer) {
	var out bytes.Buffer
	svc := NewFilmService(store, &out, pub)
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }
	return svc, &out
}

func TestFilmService_EndToEndScenario(t *testing.T) {
	store := newMemStore()
	store.nextID = 7
	svc, out := newTestService(store, nil)
	ctx := context.Background()

	assert.Equal(t, Succeeded, svc.CreateFilm(ctx, "Inception", 148, "Sci-Fi", "13+"))
	assert.Equal(t, "Film added (film_id=7).\n", out.String())

	out.Reset()
	assert.Equal(t, Succeeded, svc.ListFilms(ctx))
	assert.Equal(t, "film_id=7 ad=\"Inception\" sure_dk=148 tur=\"Sci-Fi\" yas_siniri=\"13+\"\n", out.String())

	out.Reset()
	assert.Equal(t, Succeeded, svc.DeleteFilm(ctx, 7))
	assert.Equal(t, "Film deleted.\n", out.String())

	out.Reset()
	assert.Equal(t, Succeeded, svc.ListFilms(ctx))
	assert.Equal(t, "No films found.\n", out.String())

	out.Reset()
	assert.Equal(t, NoMatch, svc.DeleteFilm(ctx, 7))
	assert.Equal(t, "No film to delete (film_id=7).\n", out.String())
}

func TestFilmService_Update(t *testing.T) {
	t.Run("Should replace every field of an existing film", func(t *testing.T) {
		store := newMemStore()
		svc, out := newTestService(store, nil)
		ctx := context.Background()
		require.Equal(t, Succeeded, svc.CreateFilm(ctx, "Yol", 114, "Dram", "18+"))
		out.Reset()

		assert.Equal(t, Succeeded, svc.UpdateFilm(ctx, 1, "Yol", 124, "Drama", "16+"))
		assert.Equal(t, "Film updated.\n", out.String())

		out.Reset()
		assert.Equal(t, Succeeded, svc.GetFilm(ctx, 1))
		assert.Equal(t, "film_id=1 ad=\"Yol\" sure_dk=124 tur=\"Drama\" yas_siniri=\"16+\"\n", out.String())
	})

	t.Run("Should report a missing film as no match and leave the table alone", func(t *testing.T) {
		store := newMemStore()
		svc, out := newTestService(store, nil)
		ctx := context.Background()
		require.Equal(t, Succeeded, svc.CreateFilm(ctx, "Yol", 114, "Dram", "18+"))
		out.Reset()

		assert.Equal(t, NoMatch, svc.UpdateFilm(ctx, 42, "X", 1, "Y", "Z"))
		assert.Equal(t, "No film to update (film_id=42).\n", out.String())
		assert.Equal(t, model.Film{ID: 1, Title: "Yol", DurationMin: 114, Genre: "Dram", AgeRating: "18+"}, store.films[1])
	})
}

func TestFilmService_GetMissing(t *testing.T) {
	svc, out := newTestService(newMemStore(), nil)
	assert.Equal(t, NoMatch, svc.GetFilm(context.Background(), 3))
	assert.Equal(t, "No film with film_id=3.\n", out.String())
}

func TestFilmService_Failures(t *testing.T) {
	unreachable := fmt.Errorf("%w: dial tcp 10.0.0.1:5432: connect: connection refused", database.ErrUnavailable)
	store := newMemStore()
	store.failAll = unreachable
	svc, out := newTestService(store, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		run    func() Outcome
		notice string
	}{
		{"create", func() Outcome { return svc.CreateFilm(ctx, "A", 1, "B", "C") }, "Could not add film: "},
		{"list", func() Outcome { return svc.ListFilms(ctx) }, "Could not list films: "},
		{"get", func() Outcome { return svc.GetFilm(ctx, 1) }, "Could not get film: "},
		{"update", func() Outcome { return svc.UpdateFilm(ctx, 1, "A", 1, "B", "C") }, "Could not update film: "},
		{"delete", func() Outcome { return svc.DeleteFilm(ctx, 1) }, "Could not delete film: "},
		{"check", func() Outcome { return svc.CheckConnectivity(ctx) }, "Connection failed: "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out.Reset()
			assert.Equal(t, Failed, tc.run())
			assert.Equal(t, tc.notice+unreachable.Error()+"\n", out.String())
		})
	}
}

func TestFilmService_CheckConnectivity(t *testing.T) {
	svc, out := newTestService(newMemStore(), nil)
	assert.Equal(t, Succeeded, svc.CheckConnectivity(context.Background()))
	assert.Equal(t, "Connection successful.\n", out.String())
}

func TestFilmService_Events(t *testing.T) {
	t.Run("Should publish after each committed write only", func(t *testing.T) {
		pub := &recordingPublisher{}
		svc, _ := newTestService(newMemStore(), pub)
		ctx := context.Background()

		svc.CreateFilm(ctx, "Inception", 148, "Sci-Fi", "13+")
		svc.UpdateFilm(ctx, 1, "Inception", 150, "Sci-Fi", "13+")
		svc.UpdateFilm(ctx, 9, "X", 1, "Y", "Z")
		svc.ListFilms(ctx)
		svc.DeleteFilm(ctx, 1)
		svc.DeleteFilm(ctx, 1)

		require.Len(t, pub.events, 3)
		assert.Equal(t, queue.FilmCreated, pub.events[0].Type)
		assert.Equal(t, 148, pub.events[0].DurationMin)
		assert.Equal(t, queue.FilmUpdated, pub.events[1].Type)
		assert.Equal(t, 150, pub.events[1].DurationMin)
		assert.Equal(t, queue.FilmDeleted, pub.events[2].Type)
		assert.Equal(t, int64(1), pub.events[2].FilmID)
		assert.Equal(t, "2026-10-17T09:00:00Z", pub.events[2].OccurredAt)
	})

	t.Run("Should keep the outcome when publishing fails", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("broker down")}
		svc, out := newTestService(newMemStore(), pub)

		assert.Equal(t, Succeeded, svc.CreateFilm(context.Background(), "Inception", 148, "Sci-Fi", "13+"))
		assert.Equal(t, "Film added (film_id=1).\n", out.String())
	})
}

// The service over the real repository keeps the transaction contract: a
// no-match delete rolls back, never commits, and still releases the connection.
func TestFilmService_DeleteOverRepository(t *testing.T) {
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	dial := func(context.Context, config.DBConfig) (database.Conn, error) { return mock, nil }
	svc, out := newTestService(repository.NewFilmRepo(dial, config.DBConfig{}), nil)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM film").WithArgs(int64(4)).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()
	mock.ExpectClose()

	assert.Equal(t, NoMatch, svc.DeleteFilm(context.Background(), 4))
	assert.Equal(t, "No film to delete (film_id=4).\n", out.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "no match", NoMatch.String())
	assert.Equal(t, "failed", Failed.String())
}
