// Package sqlite persists generated trade signals in a local SQLite
// database via gorm.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tradewind/internal/engine"
	"tradewind/internal/ensemble"
	"tradewind/internal/strategy"
)

// SignalModel is the persisted form of a trade signal. The full analysis
// audit travels as a JSON column so the schema stays stable while the
// analyzer set evolves.
type SignalModel struct {
	ID            string         `gorm:"column:id;primaryKey"`
	Symbol        string         `gorm:"column:symbol;index"`
	Direction     string         `gorm:"column:direction"`
	Strategy      string         `gorm:"column:strategy"`
	Confidence    int            `gorm:"column:confidence"`
	Grade         string         `gorm:"column:grade"`
	Entry         float64        `gorm:"column:entry"`
	StopLoss      float64        `gorm:"column:stop_loss"`
	TakeProfit    float64        `gorm:"column:take_profit"`
	RiskReward    float64        `gorm:"column:risk_reward"`
	PositionSize  float64        `gorm:"column:position_size"`
	Provenance    string         `gorm:"column:provenance"`
	AnalysisJSON  datatypes.JSON `gorm:"column:analysis_json;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at;index"`
}

func (SignalModel) TableName() string { return "signals" }

// Store wraps the gorm handle. A nil Store is a no-op sink so callers can
// run without persistence.
type Store struct {
	db *gorm.DB
}

// Open creates the database file (and parent directory) if needed and
// migrates the schema.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite store: empty path")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&SignalModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP
	// reads while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSignal persists one signal. Saving the same ID twice is an error.
func (s *Store) SaveSignal(ctx context.Context, signal *engine.TradeSignal) error {
	if s == nil || s.db == nil || signal == nil {
		return nil
	}
	analysis, err := json.Marshal(signal.Analysis)
	if err != nil {
		return fmt.Errorf("sqlite store: marshal analysis: %w", err)
	}
	model := SignalModel{
		ID:            signal.ID,
		Symbol:        signal.Symbol,
		Direction:     string(signal.Direction),
		Strategy:      string(signal.Strategy),
		Confidence:    signal.Confidence,
		Grade:         signal.Grade,
		Entry:         signal.Targets.Entry,
		StopLoss:      signal.Targets.StopLoss,
		TakeProfit:    signal.Targets.TakeProfit,
		RiskReward:    signal.Targets.RiskReward,
		PositionSize:  signal.PositionSize,
		Provenance:    string(signal.Analysis.Augment.Provenance),
		AnalysisJSON:  analysis,
		CreatedAtUnix: signal.CreatedAt.Unix(),
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// ListSignals returns the most recent signals, newest first. An empty
// symbol lists across all symbols.
func (s *Store) ListSignals(ctx context.Context, symbol string, limit int) ([]engine.TradeSignal, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	query := s.db.WithContext(ctx).Model(&SignalModel{}).Order("created_at DESC").Limit(limit)
	if symbol = strings.ToUpper(strings.TrimSpace(symbol)); symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}
	var models []SignalModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]engine.TradeSignal, 0, len(models))
	for _, m := range models {
		signal := engine.TradeSignal{
			ID:           m.ID,
			Symbol:       m.Symbol,
			Direction:    ensemble.Direction(m.Direction),
			Strategy:     strategy.Kind(m.Strategy),
			Confidence:   m.Confidence,
			Grade:        m.Grade,
			PositionSize: m.PositionSize,
			CreatedAt:    time.Unix(m.CreatedAtUnix, 0).UTC(),
		}
		signal.Targets.Entry = m.Entry
		signal.Targets.StopLoss = m.StopLoss
		signal.Targets.TakeProfit = m.TakeProfit
		signal.Targets.RiskReward = m.RiskReward
		if len(m.AnalysisJSON) > 0 {
			// Corrupt audit blobs degrade to an empty analysis rather than
			// failing the listing.
			_ = json.Unmarshal(m.AnalysisJSON, &signal.Analysis)
		}
		out = append(out, signal)
	}
	return out, nil
}

// CountSignals reports stored rows for one symbol, or all rows for "".
func (s *Store) CountSignals(ctx context.Context, symbol string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).Model(&SignalModel{})
	if symbol = strings.ToUpper(strings.TrimSpace(symbol)); symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}
	var n int64
	err := query.Count(&n).Error
	return n, err
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
