package history

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/fairdeal/internal/fileutil"
	"github.com/lox/fairdeal/internal/game"
	"github.com/lox/fairdeal/internal/phh"
)

const (
	defaultFilename      = "session.phhs"
	defaultTable         = "house"
	defaultHouseStack    = 1_000_000
	defaultFlushHands    = 100
	defaultFlushInterval = 10 * time.Second
	defaultDedupeWindow  = 1024
	maxFlushFailures     = 3
)

// ErrDisabled is returned by a FileSink that stopped after repeated flush
// failures.
var ErrDisabled = errors.New("history: file sink disabled")

// FileConfig configures a FileSink.
type FileConfig struct {
	Dir           string
	Filename      string
	Table         string
	HouseStack    int64
	FlushHands    int
	FlushInterval time.Duration
	// DedupeWindow is how many already written hand ids are remembered so a
	// retried Record is not written twice. Buffered hands are always remembered.
	DedupeWindow int
	Clock        quartz.Clock
}

// FileSink buffers resolved hands and appends them to a PHH session file.
// Hands flagged for audit are also written immediately as JSON under
// <dir>/audit/<hand id>.json.
type FileSink struct {
	cfg      FileConfig
	logger   zerolog.Logger
	outPath  string
	auditDir string

	mu                  sync.Mutex
	flushMu             sync.Mutex
	buffer              []*phh.HandHistory
	seen                map[string]struct{}
	written             []string // ids in seen that are already on disk, oldest first
	sectionCounter      int
	consecutiveFailures int
	disabled            bool

	ticker    *quartz.Ticker
	flushReq  chan struct{}
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ game.Sink = (*FileSink)(nil)

// NewFileSink creates the output directory and starts the flush loop.
func NewFileSink(logger zerolog.Logger, cfg FileConfig) (*FileSink, error) {
	if cfg.Dir == "" {
		return nil, errors.New("history: Dir is required")
	}
	if cfg.Filename == "" {
		cfg.Filename = defaultFilename
	}
	if cfg.Table == "" {
		cfg.Table = defaultTable
	}
	if cfg.HouseStack <= 0 {
		cfg.HouseStack = defaultHouseStack
	}
	if cfg.FlushHands <= 0 {
		cfg.FlushHands = defaultFlushHands
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.DedupeWindow <= 0 {
		cfg.DedupeWindow = defaultDedupeWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	outPath := filepath.Join(cfg.Dir, cfg.Filename)
	counter, err := phh.LastSection(outPath)
	if err != nil {
		return nil, fmt.Errorf("history: read sections: %w", err)
	}

	f := &FileSink{
		cfg:            cfg,
		logger:         logger.With().Str("component", "history").Str("path", outPath).Logger(),
		outPath:        outPath,
		auditDir:       filepath.Join(cfg.Dir, "audit"),
		buffer:         make([]*phh.HandHistory, 0, cfg.FlushHands),
		seen:           make(map[string]struct{}),
		sectionCounter: counter,
		ticker:         cfg.Clock.NewTicker(cfg.FlushInterval, "history", "flush"),
		flushReq:       make(chan struct{}, 1),
		stop:           make(chan struct{}),
	}
	f.wg.Add(1)
	go f.run()
	return f, nil
}

// Record implements game.Sink. The hand is buffered; audit files are
// written before Record returns.
func (f *FileSink) Record(_ context.Context, r game.Record) error {
	f.mu.Lock()
	disabled := f.disabled
	_, dup := f.seen[r.HandID]
	f.mu.Unlock()
	if disabled {
		return ErrDisabled
	}
	if dup {
		return nil
	}

	if r.AuditRequired {
		path := filepath.Join(f.auditDir, r.HandID+".json")
		if err := fileutil.WriteJSONAtomic(path, r, 0o644); err != nil {
			return fmt.Errorf("history: write audit record: %w", err)
		}
		f.logger.Warn().Str("hand_id", r.HandID).Str("audit_path", path).Msg("Hand flagged for audit")
	}

	f.mu.Lock()
	f.seen[r.HandID] = struct{}{}
	f.buffer = append(f.buffer, HandHistory(r, f.cfg.Table, f.cfg.HouseStack))
	full := len(f.buffer) >= f.cfg.FlushHands
	f.mu.Unlock()

	if full {
		f.requestFlush()
	}
	return nil
}

// Flush writes buffered hands to the session file.
func (f *FileSink) Flush() error {
	f.flushMu.Lock()
	defer f.flushMu.Unlock()

	f.mu.Lock()
	if f.disabled || len(f.buffer) == 0 {
		f.mu.Unlock()
		return nil
	}
	hands := append([]*phh.HandHistory(nil), f.buffer...)
	lastSection := f.sectionCounter
	f.mu.Unlock()

	file, err := os.OpenFile(f.outPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	// Each hand is flushed on its own so a failure leaves whole sections.
	w := bufio.NewWriter(file)
	written := 0
	for _, hand := range hands {
		if err := phh.WriteSection(w, lastSection+1, hand); err != nil {
			f.finalizeFlush(written, lastSection)
			return err
		}
		if err := w.Flush(); err != nil {
			f.finalizeFlush(written, lastSection)
			return err
		}
		lastSection++
		written++
	}

	f.finalizeFlush(written, lastSection)
	f.logger.Debug().Int("hands", written).Int("last_section", lastSection).Msg("Flushed hand history")
	return nil
}

// Close stops the flush loop and writes any remaining hands.
func (f *FileSink) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.stop)
		f.wg.Wait()
		f.ticker.Stop()
		err = f.Flush()
	})
	return err
}

// Disabled reports whether the sink stopped after repeated failures.
func (f *FileSink) Disabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disabled
}

func (f *FileSink) run() {
	defer f.wg.Done()
	for {
		select {
		case <-f.ticker.C:
			f.flushAndCheck()
		case <-f.flushReq:
			f.flushAndCheck()
		case <-f.stop:
			return
		}
	}
}

func (f *FileSink) requestFlush() {
	select {
	case f.flushReq <- struct{}{}:
	default:
	}
}

func (f *FileSink) flushAndCheck() {
	err := f.Flush()
	if err != nil {
		f.logger.Error().Err(err).Msg("Hand history flush failed")
	}
	if disabled, dropped := f.handleFlushResult(err); disabled {
		f.logger.Error().Int("dropped_hands", dropped).
			Msg("Hand history recording disabled after repeated failures")
	}
}

func (f *FileSink) handleFlushResult(err error) (disabled bool, dropped int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err == nil {
		f.consecutiveFailures = 0
		return false, 0
	}
	f.consecutiveFailures++
	if f.consecutiveFailures < maxFlushFailures || f.disabled {
		return false, 0
	}
	dropped = len(f.buffer)
	f.buffer = nil
	clear(f.seen)
	f.written = nil
	f.disabled = true
	return true, dropped
}

func (f *FileSink) finalizeFlush(written, lastSection int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	written = min(written, len(f.buffer))
	for _, h := range f.buffer[:written] {
		f.written = append(f.written, h.HandID)
	}
	f.buffer = append(f.buffer[:0:0], f.buffer[written:]...)
	f.sectionCounter = lastSection

	if excess := len(f.written) - f.cfg.DedupeWindow; excess > 0 {
		for _, id := range f.written[:excess] {
			delete(f.seen, id)
		}
		f.written = append(f.written[:0:0], f.written[excess:]...)
	}
}
