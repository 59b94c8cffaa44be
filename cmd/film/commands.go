package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/film-store/internal/config"
	"github.com/iliyamo/film-store/internal/database"
	"github.com/iliyamo/film-store/internal/handler"
	"github.com/iliyamo/film-store/internal/middleware"
	"github.com/iliyamo/film-store/internal/queue"
	"github.com/iliyamo/film-store/internal/repository"
	"github.com/iliyamo/film-store/internal/router"
	"github.com/iliyamo/film-store/internal/service"
)

// app bundles what every command needs.  It is built per invocation from
// the environment; nothing here holds a database connection.
type app struct {
	cfg    config.Config
	repo   *repository.FilmRepo
	svc    *service.FilmService
	events service.EventPublisher // nil unless FILM_EVENTS_ENABLED
}

func loadApp(cmd *cobra.Command) (*app, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, repo: repository.NewFilmRepo(database.Dial, cfg.DB)}
	if cfg.Events.Enabled {
		a.events = queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue)
	}
	a.svc = service.NewFilmService(a.repo, cmd.OutOrStdout(), a.events)
	log.Debug().Str("host", cfg.DB.Host).Int("port", cfg.DB.Port).Str("database", cfg.DB.Name).Msg("configuration loaded")
	return a, nil
}

func outcomeErr(o service.Outcome) error {
	if o == service.Failed {
		return errFailed
	}
	return nil
}

// runDemo is the default sequence: check, list, delete --demo-id, list.
// Every step runs even if an earlier one failed.
func runDemo(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	outcomes := []service.Outcome{
		a.svc.CheckConnectivity(ctx),
		a.svc.ListFilms(ctx),
		a.svc.DeleteFilm(ctx, demoID),
		a.svc.ListFilms(ctx),
	}
	for _, o := range outcomes {
		if o == service.Failed {
			return errFailed
		}
	}
	return nil
}

// simple wraps a command body that only needs the service.
func simple(fn func(ctx context.Context, svc *service.FilmService, args []string) (service.Outcome, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		o, err := fn(cmd.Context(), a.svc, args)
		if err != nil {
			return err
		}
		return outcomeErr(o)
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Open and close one database connection",
		Args:  cobra.NoArgs,
		RunE: simple(func(ctx context.Context, svc *service.FilmService, _ []string) (service.Outcome, error) {
			return svc.CheckConnectivity(ctx), nil
		}),
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every film",
		Args:  cobra.NoArgs,
		RunE: simple(func(ctx context.Context, svc *service.FilmService, _ []string) (service.Outcome, error) {
			return svc.ListFilms(ctx), nil
		}),
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get FILM_ID",
		Short: "Print one film",
		Args:  cobra.ExactArgs(1),
		RunE: simple(func(ctx context.Context, svc *service.FilmService, args []string) (service.Outcome, error) {
			id, err := parseID(args[0])
			if err != nil {
				return service.Failed, err
			}
			return svc.GetFilm(ctx, id), nil
		}),
	}
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add TITLE MINUTES GENRE AGE_RATING",
		Short:   "Insert a film; the database assigns its id",
		Example: `  film add "Inception" 148 "Sci-Fi" "13+"`,
		Args:    cobra.ExactArgs(4),
		RunE: simple(func(ctx context.Context, svc *service.FilmService, args []string) (service.Outcome, error) {
			minutes, err := parseMinutes(args[1])
			if err != nil {
				return service.Failed, err
			}
			return svc.CreateFilm(ctx, args[0], minutes, args[2], args[3]), nil
		}),
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update FILM_ID TITLE MINUTES GENRE AGE_RATING",
		Short: "Replace all fields of a film",
		Args:  cobra.ExactArgs(5),
		RunE: simple(func(ctx context.Context, svc *service.FilmService, args []string) (service.Outcome, error) {
			id, err := parseID(args[0])
			if err != nil {
				return service.Failed, err
			}
			minutes, err := parseMinutes(args[2])
			if err != nil {
				return service.Failed, err
			}
			return svc.UpdateFilm(ctx, id, args[1], minutes, args[3], args[4]), nil
		}),
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete FILM_ID",
		Short: "Delete a film",
		Args:  cobra.ExactArgs(1),
		RunE: simple(func(ctx context.Context, svc *service.FilmService, args []string) (service.Outcome, error) {
			id, err := parseID(args[0])
			if err != nil {
				return service.Failed, err
			}
			return svc.DeleteFilm(ctx, id), nil
		}),
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the film JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e := echo.New()
			e.HideBanner = true
			e.HidePort = true
			e.Use(echomw.Recover())
			e.Use(middleware.RequestLogger())

			rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
			if rdb == nil {
				log.Warn().Msg("redis unreachable; response cache and rate limiting disabled")
			} else {
				defer rdb.Close()
			}

			h := handler.NewFilmHandler(a.repo)
			h.Events = a.events
			router.RegisterRoutes(e, a.repo)
			router.RegisterFilms(e, h,
				middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
				middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
			)

			addr := ":" + a.cfg.Port
			log.Info().Str("addr", addr).Str("env", a.cfg.Env).Msg("listening")

			errc := make(chan error, 1)
			go func() { errc <- e.Start(addr) }()
			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

func newConsumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Append film change events from RabbitMQ to a log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ev := a.cfg.Events
			err = queue.StartFilmConsumer(ctx, ev.URL, ev.Queue, ev.LogPath)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid film_id %q", s)
	}
	return id, nil
}

func parseMinutes(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration in minutes %q", s)
	}
	return n, nil
}
