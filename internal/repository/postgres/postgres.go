// Package postgres implements the repository interfaces on PostgreSQL
// through a pgx connection pool. It is selected with database.driver=postgres
// and is meant for deployments that outgrow a single SQLite file.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/sakif/whispering-network/internal/apperror"
	"github.com/sakif/whispering-network/internal/metrics"
	"github.com/sakif/whispering-network/internal/repository"
)

const backend = "postgres"

var _ repository.Store = (*Store)(nil)

// Store holds the pool used for every query.
type Store struct {
	logger *slog.Logger
	db     *pgxpool.Pool
}

// Option alters the default pgxpool.Config used by New.
type Option interface {
	apply(*pgxpool.Config)
}

type optionFunc func(c *pgxpool.Config)

func (f optionFunc) apply(c *pgxpool.Config) { f(c) }

// ConnectionTimeout sets the timeout for establishing a connection.
func ConnectionTimeout(d time.Duration) Option {
	return optionFunc(func(c *pgxpool.Config) {
		c.ConnConfig.ConnectTimeout = d
	})
}

// MaxConns caps the pool size.
func MaxConns(n int32) Option {
	return optionFunc(func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	})
}

// ParseConfig parses dsn into a pool config with opts applied.
func ParseConfig(dsn string, opts ...Option) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing dsn: %w", err)
	}
	for _, opt := range opts {
		opt.apply(config)
	}
	return config, nil
}

// New connects to dsn, routes pgx's own logging through logger and applies
// the schema.
func New(ctx context.Context, dsn string, logger *slog.Logger, opts ...Option) (*Store, error) {
	config, err := ParseConfig(dsn, opts...)
	if err != nil {
		return nil, err
	}
	config.ConnConfig.Logger = NewLogger(logger)

	pool, err := pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}

	s := &Store{logger: logger, db: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return conn.Conn().Ping(ctx)
}

var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "create messages table",
		sql: `
			create table if not exists messages (
				id           bigserial primary key,
				content      text not null,
				category     text not null,
				spotify_link text,
				is_public    boolean not null default true,
				recipient    text,
				sender_name  text,
				created_at   timestamptz not null default now()
			);
			create index if not exists idx_messages_created_at on messages(created_at);
			create index if not exists idx_messages_category on messages(category);
			create index if not exists idx_messages_recipient on messages(recipient);
		`,
	},
	{
		name: "create replies table",
		sql: `
			create table if not exists replies (
				id         bigserial primary key,
				message_id bigint not null references messages(id),
				content    text not null,
				nickname   text not null,
				created_at timestamptz not null default now()
			);
			create index if not exists idx_replies_message_id on replies(message_id, created_at);
		`,
	},
	{
		name: "create admins table",
		sql: `
			create table if not exists admins (
				id            bigserial primary key,
				username      text not null unique,
				password_hash text not null,
				nickname      text not null unique,
				role          text not null default 'admin',
				is_active     boolean not null default true,
				created_at    timestamptz not null default now()
			);
		`,
	},
}

func (s *Store) migrate(ctx context.Context) error {
	for _, m := range migrations {
		// No arguments, so pgx uses the simple protocol and the
		// multi-statement body is accepted.
		if _, err := s.db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
		s.logger.Debug("migration applied", "name", m.name)
	}
	return nil
}

func observe(op string, start time.Time, errp *error) {
	metrics.ObserveStoreQuery(backend, op, start, *errp)
}

// classify maps unique and foreign key violations to domain errors.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.ForeignKeyViolation:
		if pgErr.ConstraintName == "replies_message_id_fkey" {
			return apperror.ValidationFailed("messageId", "messageId does not reference an existing message")
		}
	case pgerrcode.UniqueViolation:
		switch pgErr.ConstraintName {
		case "admins_username_key":
			return apperror.Conflict("admin", "username")
		case "admins_nickname_key":
			return apperror.Conflict("admin", "nickname")
		}
	}
	return err
}
