package app

import (
	"context"
	_ "embed"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/project-manager/internal/config"
)

//go:embed schema.sql
var schemaSQL string

var globalPostgresPool *pgxpool.Pool

func MustConnectPostgres() {
	cfg := config.Global().Postgres
	poolCfg, err := pgxpool.ParseConfig(postgresConnURL(cfg))
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to parse postgres config")
		panic(err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	globalPostgresPool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to postgres")
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = globalPostgresPool.Ping(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping postgres")
		panic(err)
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("connected to postgres")
}

// MustMigratePostgres applies the embedded schema. Every statement in it
// is idempotent, so it runs on each start.
func MustMigratePostgres() {
	cfg := config.Global().Postgres
	if !cfg.Migrate {
		globalLogger.Info().Msg("skipping postgres schema migration")
		return
	}

	_, err := globalPostgresPool.Exec(context.Background(), schemaSQL)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to apply postgres schema")
		panic(err)
	}
	globalLogger.Info().Msg("applied postgres schema")
}

// postgresConnURL escapes credentials, so passwords may contain any of
// the URL delimiters.
func postgresConnURL(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

func DisconnectPostgres() {
	globalPostgresPool.Close()
	globalLogger.Info().Msg("disconnected from postgres")
}
