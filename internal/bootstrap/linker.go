// Package bootstrap wires a Linker from the environment. The server, the
// worker and linkctl all start through here.
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/OFFIS-RIT/kiwi-linker/internal/storage"
	"github.com/OFFIS-RIT/kiwi-linker/internal/util"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/index"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/index/dir"
	pgindex "github.com/OFFIS-RIT/kiwi-linker/pkg/index/pgx"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/linker"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoIndexSource is returned when neither a database nor an index
// directory is configured.
var ErrNoIndexSource = errors.New("neither DATABASE_URL nor INDEX_DIR is set")

// Config is the environment needed to build a linker.
type Config struct {
	DatabaseURL         string
	IndexDir            string
	RedirectsPath       string
	DisambiguationsPath string
}

// ConfigFromEnv reads Config from the process environment.
func ConfigFromEnv() Config {
	return Config{
		DatabaseURL:         util.GetEnv("DATABASE_URL"),
		IndexDir:            util.GetEnv("INDEX_DIR"),
		RedirectsPath:       util.GetEnvString("REDIRECTS_PATH", "redirects.nt"),
		DisambiguationsPath: util.GetEnvString("DISAMBIGUATIONS_PATH", "disambiguations.nt"),
	}
}

// OpenIndexes prefers PostgreSQL when DatabaseURL is set and falls back to
// the JSON-lines directory. The returned close func is never nil.
func OpenIndexes(ctx context.Context, cfg Config) (index.Set, func(), error) {
	noop := func() {}

	if cfg.DatabaseURL != "" {
		pool, err := util.RetryWithContext(ctx, 5, 2*time.Second, func(ctx context.Context) (*pgxpool.Pool, error) {
			pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return nil, err
			}
			if err := pool.Ping(ctx); err != nil {
				pool.Close()
				logger.Warn("[Bootstrap] Database not reachable, retrying", "err", err)
				return nil, err
			}
			return pool, nil
		})
		if err != nil {
			return index.Set{}, noop, errors.Join(index.ErrIndexUnavailable, err)
		}
		logger.Info("[Bootstrap] Using PostgreSQL lookup indexes")
		return pgindex.NewLookupDBSet(pool), pool.Close, nil
	}

	if cfg.IndexDir != "" {
		set, err := dir.OpenSet(cfg.IndexDir)
		if err != nil {
			return index.Set{}, noop, err
		}
		logger.Info("[Bootstrap] Using directory lookup indexes", "dir", cfg.IndexDir)
		return set, noop, nil
	}

	return index.Set{}, noop, ErrNoIndexSource
}

// OpenLinker opens the indexes and both relation files.
func OpenLinker(ctx context.Context, cfg Config) (*linker.Linker, func(), error) {
	indexes, closeIndexes, err := OpenIndexes(ctx, cfg)
	if err != nil {
		return nil, closeIndexes, err
	}

	src, err := storage.NewSourceLoader(ctx, cfg.RedirectsPath, cfg.DisambiguationsPath)
	if err != nil {
		return nil, closeIndexes, err
	}

	l, err := linker.Open(ctx, linker.OpenParams{
		Indexes:             indexes,
		Source:              src,
		RedirectsPath:       cfg.RedirectsPath,
		DisambiguationsPath: cfg.DisambiguationsPath,
	})
	if err != nil {
		return nil, closeIndexes, err
	}
	return l, closeIndexes, nil
}
