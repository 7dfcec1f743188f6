// Package config loads the fairdeal HCL configuration file.
//
// Every block is optional:
//
//	engine {
//	  default_stack = 1000
//	  ranker        = "hankin"
//	}
//
//	store {
//	  backend      = "redis"
//	  redis_addr   = "localhost:6379"
//	  resolved_ttl = "24h"
//	}
//
//	history {
//	  database_driver = "sqlite"
//	  database_dsn    = "fairdeal.db"
//	  phh_dir         = "hands"
//	}
//
//	reaper {
//	  timeout  = "5m"
//	  interval = "1m"
//	}
//
//	log {
//	  level  = "info"
//	  format = "console"
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"

	"github.com/lox/fairdeal/internal/ranking"
)

// Config is the complete configuration.
type Config struct {
	Engine  *EngineSettings  `hcl:"engine,block"`
	Store   *StoreSettings   `hcl:"store,block"`
	History *HistorySettings `hcl:"history,block"`
	Reaper  *ReaperSettings  `hcl:"reaper,block"`
	Log     *LogSettings     `hcl:"log,block"`
}

// EngineSettings configures hand play.
type EngineSettings struct {
	DefaultStack int64  `hcl:"default_stack,optional"`
	Ranker       string `hcl:"ranker,optional"`
}

// StoreSettings selects where live hand state is kept.
type StoreSettings struct {
	Backend       string `hcl:"backend,optional"`
	RedisAddr     string `hcl:"redis_addr,optional"`
	RedisPassword string `hcl:"redis_password,optional"`
	RedisDB       int    `hcl:"redis_db,optional"`
	Prefix        string `hcl:"prefix,optional"`
	ResolvedTTL   string `hcl:"resolved_ttl,optional"`

	ResolvedTTLDuration time.Duration
}

// HistorySettings configures where resolved hands are recorded. An empty
// driver disables the database and an empty PHHDir disables session files.
type HistorySettings struct {
	DatabaseDriver string `hcl:"database_driver,optional"`
	DatabaseDSN    string `hcl:"database_dsn,optional"`
	PHHDir         string `hcl:"phh_dir,optional"`
	FlushHands     int    `hcl:"flush_hands,optional"`
	FlushInterval  string `hcl:"flush_interval,optional"`

	FlushIntervalDuration time.Duration
}

// ReaperSettings configures abandoned hand cleanup.
type ReaperSettings struct {
	Timeout  string `hcl:"timeout,optional"`
	Interval string `hcl:"interval,optional"`

	TimeoutDuration  time.Duration
	IntervalDuration time.Duration
}

// LogSettings configures logging output.
type LogSettings struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
	File   string `hcl:"file,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	if err := c.finish(); err != nil {
		panic(err)
	}
	return c
}

// Load reads filename. A missing file yields Default.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source. filename is only used in diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var c Config
	if diags := gohcl.DecodeBody(file.Body, nil, &c); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

// finish fills defaults, parses durations and validates.
func (c *Config) finish() error {
	if c.Engine == nil {
		c.Engine = &EngineSettings{}
	}
	if c.Store == nil {
		c.Store = &StoreSettings{}
	}
	if c.History == nil {
		c.History = &HistorySettings{}
	}
	if c.Reaper == nil {
		c.Reaper = &ReaperSettings{}
	}
	if c.Log == nil {
		c.Log = &LogSettings{}
	}

	if c.Engine.DefaultStack == 0 {
		c.Engine.DefaultStack = 1000
	}
	if c.Engine.Ranker == "" {
		c.Engine.Ranker = "hankin"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.Backend == "redis" && c.Store.RedisAddr == "" {
		c.Store.RedisAddr = "localhost:6379"
	}
	if c.History.FlushHands == 0 {
		c.History.FlushHands = 100
	}
	if c.History.FlushInterval == "" {
		c.History.FlushInterval = "10s"
	}
	if c.Reaper.Timeout == "" {
		c.Reaper.Timeout = "5m"
	}
	if c.Reaper.Interval == "" {
		c.Reaper.Interval = "1m"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}

	var err error
	if c.Store.ResolvedTTL != "" {
		if c.Store.ResolvedTTLDuration, err = parseDuration("store.resolved_ttl", c.Store.ResolvedTTL); err != nil {
			return err
		}
	}
	if c.History.FlushIntervalDuration, err = parseDuration("history.flush_interval", c.History.FlushInterval); err != nil {
		return err
	}
	if c.Reaper.TimeoutDuration, err = parseDuration("reaper.timeout", c.Reaper.Timeout); err != nil {
		return err
	}
	if c.Reaper.IntervalDuration, err = parseDuration("reaper.interval", c.Reaper.Interval); err != nil {
		return err
	}
	return c.Validate()
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", name)
	}
	return d, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Engine.DefaultStack <= 0 {
		return fmt.Errorf("engine: default_stack must be positive, got %d", c.Engine.DefaultStack)
	}
	if _, err := ranking.ByName(c.Engine.Ranker); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}

	switch c.History.DatabaseDriver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("history: unsupported database driver %q", c.History.DatabaseDriver)
	}
	if c.History.DatabaseDriver != "" && c.History.DatabaseDSN == "" {
		return fmt.Errorf("history: database_dsn is required for %s", c.History.DatabaseDriver)
	}
	if c.History.FlushHands < 0 {
		return fmt.Errorf("history: flush_hands must not be negative")
	}

	if c.Reaper.TimeoutDuration == 0 || c.Reaper.IntervalDuration == 0 {
		return fmt.Errorf("reaper: timeout and interval must be positive")
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log: unknown format %q", c.Log.Format)
	}
	return nil
}
