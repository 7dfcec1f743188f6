package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/lox/fairdeal/cmd/fairdeal/shared"
	"github.com/lox/fairdeal/internal/config"
	"github.com/lox/fairdeal/internal/game"
	"github.com/lox/fairdeal/internal/history"
	"github.com/lox/fairdeal/internal/ranking"
	"github.com/lox/fairdeal/internal/store"
)

// runtime holds what a command needs to play or inspect hands.
type runtime struct {
	cfg    *config.Config
	logger zerolog.Logger
	engine *game.Engine
	sql    *history.SQLSink // nil without a database
	files  *history.FileSink

	closers []func() error
}

func loadConfig(g *Globals) (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", g.Config, err)
	}
	return cfg, nil
}

// openRuntime builds the store, history sinks and engine described by the
// configuration. logOut receives log lines when no log file is configured.
func openRuntime(ctx context.Context, g *Globals, logOut io.Writer) (*runtime, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	logger, logCloser, err := shared.SetupLogger(cfg.Log, g.Debug, logOut)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger}
	rt.closers = append(rt.closers, logCloser.Close)
	if err := rt.open(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) open(ctx context.Context) error {
	cfg := rt.cfg

	var st game.Store
	switch cfg.Store.Backend {
	case "redis":
		rdb, err := store.Dial(ctx, cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, rdb.Close)
		redisStore := store.NewRedis(rdb, cfg.Store.Prefix)
		redisStore.ResolvedTTL = cfg.Store.ResolvedTTLDuration
		st = redisStore
	default:
		st = game.NewMemoryStore()
	}

	var sinks []game.Sink
	if cfg.History.DatabaseDriver != "" {
		db, err := history.OpenSQL(cfg.History.DatabaseDriver, cfg.History.DatabaseDSN)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			rt.closers = append(rt.closers, sqlDB.Close)
		}
		if rt.sql, err = history.NewSQLSink(db); err != nil {
			return err
		}
		sinks = append(sinks, rt.sql)
	}
	if cfg.History.PHHDir != "" {
		files, err := history.NewFileSink(rt.logger, history.FileConfig{
			Dir:           cfg.History.PHHDir,
			FlushHands:    cfg.History.FlushHands,
			FlushInterval: cfg.History.FlushIntervalDuration,
			HouseStack:    cfg.Engine.DefaultStack,
		})
		if err != nil {
			return err
		}
		rt.files = files
		rt.closers = append(rt.closers, files.Close)
		sinks = append(sinks, files)
	}

	ranker, err := ranking.ByName(cfg.Engine.Ranker)
	if err != nil {
		return err
	}
	rt.engine = game.NewEngine(rt.logger, st, history.NewMultiSink(sinks...),
		game.WithRanker(ranker),
		game.WithDefaultStack(cfg.Engine.DefaultStack),
	)
	return nil
}

// requireSQL returns the database sink or an error naming the missing setting.
func (rt *runtime) requireSQL() (*history.SQLSink, error) {
	if rt.sql == nil {
		return nil, errors.New("no history database configured: set history.database_driver and database_dsn")
	}
	return rt.sql, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
