// Package history persists resolved hands. SQLSink keeps queryable records in
// a relational database; FileSink appends PHH session files for replay tools.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/lox/fairdeal/internal/fairness"
	"github.com/lox/fairdeal/internal/game"
	"github.com/lox/fairdeal/poker"
)

// ErrNotFound is returned when no record exists for a hand.
var ErrNotFound = errors.New("history: hand not found")

// HandRecord is the database row for one resolved hand.
type HandRecord struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	HandID        string `gorm:"size:32;uniqueIndex;not null"`
	Player        string `gorm:"size:128;index;not null"`
	Wager         int64
	StartingStack int64
	Pot           int64
	Payout        int64
	Profit        int64
	PlayerResult  string `gorm:"size:8"`
	HouseResult   string `gorm:"size:8"`
	Reason        string `gorm:"size:16"`
	Actions       string
	Log           datatypes.JSON
	Board         string    `gorm:"size:16"`
	PlayerCards   string    `gorm:"size:8"`
	HouseCards    string    `gorm:"size:8"`
	Commitment    string    `gorm:"size:64;not null"`
	Deck          string    `gorm:"not null"`
	Salt          string    `gorm:"size:64;not null"`
	AuditRequired bool      `gorm:"index"`
	ResolvedAt    time.Time `gorm:"index"`
	CreatedAt     time.Time
}

// Verify recomputes the commitment from the revealed deck and salt.
func (r *HandRecord) Verify() bool {
	return fairness.VerifyCommitment(r.Deck, r.Salt, r.Commitment)
}

// Entries decodes the structured action log.
func (r *HandRecord) Entries() ([]game.ActionEntry, error) {
	if len(r.Log) == 0 {
		return nil, nil
	}
	var entries []game.ActionEntry
	if err := json.Unmarshal(r.Log, &entries); err != nil {
		return nil, fmt.Errorf("decode action log for %s: %w", r.HandID, err)
	}
	return entries, nil
}

func newHandRecord(r game.Record) (*HandRecord, error) {
	log, err := json.Marshal(r.Log)
	if err != nil {
		return nil, fmt.Errorf("encode action log: %w", err)
	}
	return &HandRecord{
		HandID:        r.HandID,
		Player:        r.Player,
		Wager:         r.Wager,
		StartingStack: r.StartingStack,
		Pot:           r.Pot,
		Payout:        r.Payout,
		Profit:        r.Profit,
		PlayerResult:  string(r.PlayerResult),
		HouseResult:   string(r.HouseResult),
		Reason:        string(r.Reason),
		Actions:       r.Actions,
		Log:           datatypes.JSON(log),
		Board:         poker.JoinCards(r.Board),
		PlayerCards:   poker.JoinCards(r.PlayerCards),
		HouseCards:    poker.JoinCards(r.HouseCards),
		Commitment:    r.Commitment,
		Deck:          r.Deck,
		Salt:          r.Salt,
		AuditRequired: r.AuditRequired,
		ResolvedAt:    r.ResolvedAt,
	}, nil
}

// OpenSQL opens a database by driver name ("sqlite" or "postgres").
func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("history: unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return db, nil
}

// SQLSink records hands in a database table and answers history queries.
type SQLSink struct {
	db *gorm.DB
}

var _ game.Sink = (*SQLSink)(nil)

// NewSQLSink migrates the schema and returns a sink writing to db.
func NewSQLSink(db *gorm.DB) (*SQLSink, error) {
	if err := db.AutoMigrate(&HandRecord{}); err != nil {
		return nil, fmt.Errorf("migrate hand records: %w", err)
	}
	return &SQLSink{db: db}, nil
}

// Record implements game.Sink. A hand that is already stored is left as is.
func (s *SQLSink) Record(ctx context.Context, r game.Record) error {
	row, err := newHandRecord(r)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "hand_id"}}, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("insert hand %s: %w", r.HandID, err)
	}
	return nil
}

// Get returns the record for handID.
func (s *SQLSink) Get(ctx context.Context, handID string) (*HandRecord, error) {
	var row HandRecord
	err := s.db.WithContext(ctx).Where("hand_id = ?", handID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, handID)
	}
	if err != nil {
		return nil, fmt.Errorf("get hand %s: %w", handID, err)
	}
	return &row, nil
}

// Query filters List results. Zero values match everything.
type Query struct {
	Player    string
	AuditOnly bool
	Limit     int
}

// List returns matching records, most recently resolved first.
func (s *SQLSink) List(ctx context.Context, q Query) ([]HandRecord, error) {
	tx := s.db.WithContext(ctx).Model(&HandRecord{})
	if q.Player != "" {
		tx = tx.Where("player = ?", q.Player)
	}
	if q.AuditOnly {
		tx = tx.Where("audit_required = ?", true)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []HandRecord
	if err := tx.Order("resolved_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list hands: %w", err)
	}
	return rows, nil
}

// PlayerStats aggregates a player's results.
type PlayerStats struct {
	Hands     int64
	Wins      int64
	Losses    int64
	Draws     int64
	Folds     int64
	NetProfit int64
	Wagered   int64
}

// Stats aggregates every recorded hand for player.
func (s *SQLSink) Stats(ctx context.Context, player string) (PlayerStats, error) {
	var stats PlayerStats
	err := s.db.WithContext(ctx).Model(&HandRecord{}).
		Select(`COUNT(*) AS hands,
			COALESCE(SUM(CASE WHEN player_result = ? THEN 1 ELSE 0 END), 0) AS wins,
			COALESCE(SUM(CASE WHEN player_result = ? THEN 1 ELSE 0 END), 0) AS losses,
			COALESCE(SUM(CASE WHEN player_result = ? THEN 1 ELSE 0 END), 0) AS draws,
			COALESCE(SUM(CASE WHEN player_result = ? THEN 1 ELSE 0 END), 0) AS folds,
			COALESCE(SUM(profit), 0) AS net_profit,
			COALESCE(SUM(wager), 0) AS wagered`,
			string(game.Win), string(game.Loss), string(game.Draw), string(game.Folded)).
		Where("player = ?", player).
		Scan(&stats).Error
	if err != nil {
		return PlayerStats{}, fmt.Errorf("stats for %s: %w", player, err)
	}
	return stats, nil
}
