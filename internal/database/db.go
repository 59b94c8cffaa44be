package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/film-store/internal/config"
)

// ErrUnavailable wraps every failure to establish a connection, so callers
// can tell "could not reach the database" apart from a failed statement.
var ErrUnavailable = errors.New("database unavailable")

// Conn is the part of *pgx.Conn the repositories use.  pgxmock's
// PgxConnIface satisfies it as well.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// Dialer opens one connection for cfg.
type Dialer func(ctx context.Context, cfg config.DBConfig) (Conn, error)

// DSN builds a postgres:// URL from cfg.  Credentials are escaped by net/url.
func DSN(cfg config.DBConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}

// Dial opens a single, unpooled connection to PostgreSQL.
func Dial(ctx context.Context, cfg config.DBConfig) (Conn, error) {
	conn, err := pgx.Connect(ctx, DSN(cfg))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// WithConn acquires a connection with dial, runs fn and closes the
// connection on every exit path.  A dial failure is returned wrapped in
// ErrUnavailable and fn is not called.
func WithConn(ctx context.Context, dial Dialer, cfg config.DBConfig, fn func(Conn) error) error {
	conn, err := dial(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() {
		// the statement outcome matters more than a failed close
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Debug().Err(cerr).Str("host", cfg.Host).Msg("closing database connection")
		}
	}()
	return fn(conn)
}
