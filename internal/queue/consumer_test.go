package queue

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/film-store/internal/model"
)

func TestNewFilmEvent(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 30, 0, 0, time.FixedZone("TRT", 3*60*60))
	ev := NewFilmEvent(FilmCreated, model.Film{ID: 7, Title: "Inception", DurationMin: 148, Genre: "Sci-Fi", AgeRating: "13+"}, now)

	assert.Equal(t, "2026-10-17T09:30:00Z", ev.OccurredAt)
	assert.Equal(t, int64(7), ev.FilmID)
	assert.Equal(t, FilmCreated, ev.Type)
}

func TestHandleMessage(t *testing.T) {
	t.Run("Should append one line per event", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "nested", "film.log")
		created := FilmEvent{Type: FilmCreated, FilmID: 7, Title: "Inception", DurationMin: 148, Genre: "Sci-Fi", AgeRating: "13+", OccurredAt: "2026-10-17T09:30:00Z"}
		deleted := FilmEvent{Type: FilmDeleted, FilmID: 7, OccurredAt: "2026-10-17T09:31:00Z"}

		for _, ev := range []FilmEvent{created, deleted} {
			body, err := json.Marshal(ev)
			require.NoError(t, err)
			require.NoError(t, handleMessage(body, logPath))
		}

		bs, err := os.ReadFile(logPath)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, `[2026-10-17T09:30:00Z] film.created | film_id=7 | ad="Inception" | sure_dk=148 | tur="Sci-Fi" | yas_siniri="13+"`, lines[0])
		assert.Equal(t, `[2026-10-17T09:31:00Z] film.deleted | film_id=7`, lines[1])
	})

	t.Run("Should reject malformed payloads", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "film.log")
		assert.Error(t, handleMessage([]byte("{not json"), logPath))
		assert.Error(t, handleMessage([]byte(`{"film_id":1}`), logPath))
		_, err := os.Stat(logPath)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Minute))
	assert.True(t, sleep(context.Background(), time.Millisecond))
}
