package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"neoslink/internal/app/user"
	"neoslink/internal/pkg/logx"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var registeredUserColumns = []string{"external_id", "discord_id", "discord_username", "avatar_url"}

// PostgresStore keeps the registry in the registered_users table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and applies pending migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logx.Info("Registry migrations applied")
	return nil
}

// Load reads every row. An empty table is an empty mapping, not an error.
func (s *PostgresStore) Load(ctx context.Context) (map[string]user.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT external_id, discord_id, discord_username, avatar_url FROM registered_users`)
	if err != nil {
		return nil, fmt.Errorf("query registered users: %w", err)
	}
	defer rows.Close()

	users := make(map[string]user.User)
	for rows.Next() {
		var (
			externalID string
			u          user.User
			discordID  string
		)
		if err := rows.Scan(&externalID, &discordID, &u.DisplayName, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan registered user: %w", err)
		}
		u.DiscordID = user.Snowflake(discordID)
		users[externalID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registered users: %w", err)
	}

	return users, nil
}

// Save replaces the table contents with users inside one transaction.
func (s *PostgresStore) Save(ctx context.Context, users map[string]user.User) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM registered_users`); err != nil {
		return fmt.Errorf("clear registered users: %w", err)
	}

	rows := make([][]any, 0, len(users))
	for externalID, u := range users {
		rows = append(rows, []any{externalID, string(u.DiscordID), u.DisplayName, u.AvatarURL})
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"registered_users"}, registeredUserColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy registered users: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit registered users: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
