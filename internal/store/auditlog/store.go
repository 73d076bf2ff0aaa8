// Package auditlog persists a trail of signal runs for later review: which
// direction the ensemble took, how the augmentation layer answered and with
// what provenance. It runs on its own lightweight database/sql connection so
// audit writes never contend with the signal store.
package auditlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tradewind/internal/engine"
)

// Record is one audit entry, written after every engine run.
type Record struct {
	ID           int64   `json:"id"`
	Timestamp    int64   `json:"ts"`
	SignalID     string  `json:"signal_id"`
	Symbol       string  `json:"symbol"`
	Direction    string  `json:"direction"`
	Strategy     string  `json:"strategy"`
	Confidence   int     `json:"confidence"`
	Grade        string  `json:"grade"`
	BullishScore float64 `json:"bullish_score"`
	BearishScore float64 `json:"bearish_score"`

	AugmentDirection  string `json:"augment_direction"`
	AugmentConfidence int    `json:"augment_confidence"`
	AugmentProvenance string `json:"augment_provenance"`

	FactorsJSON string `json:"factors_json,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Store is the SQLite-backed audit log. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("audit log path required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_audit (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			signal_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			direction TEXT NOT NULL,
			strategy TEXT,
			confidence INTEGER,
			grade TEXT,
			bullish_score REAL,
			bearish_score REAL,
			augment_direction TEXT,
			augment_confidence INTEGER,
			augment_provenance TEXT,
			factors_json TEXT,
			note TEXT,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_signal_audit_symbol_ts ON signal_audit(symbol, ts DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_signal_audit_provenance ON signal_audit(augment_provenance, ts DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordSignal derives an audit entry from a finished signal and inserts it.
func (s *Store) RecordSignal(ctx context.Context, sig *engine.TradeSignal) (int64, error) {
	if sig == nil {
		return 0, fmt.Errorf("signal required")
	}
	factors := ""
	if len(sig.Analysis.Decision.Factors) > 0 {
		if b, err := json.Marshal(sig.Analysis.Decision.Factors); err == nil {
			factors = string(b)
		}
	}
	rec := Record{
		Timestamp:         sig.CreatedAt.UnixMilli(),
		SignalID:          sig.ID,
		Symbol:            sig.Symbol,
		Direction:         string(sig.Direction),
		Strategy:          string(sig.Strategy),
		Confidence:        sig.Confidence,
		Grade:             sig.Grade,
		BullishScore:      sig.Analysis.Decision.BullishScore,
		BearishScore:      sig.Analysis.Decision.BearishScore,
		AugmentDirection:  string(sig.Analysis.Augment.Direction),
		AugmentConfidence: sig.Analysis.Augment.Confidence,
		AugmentProvenance: string(sig.Analysis.Augment.Provenance),
		FactorsJSON:       factors,
	}
	return s.Insert(ctx, rec)
}

// Insert writes one audit record and returns its row id.
func (s *Store) Insert(ctx context.Context, rec Record) (int64, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return 0, fmt.Errorf("audit log store not initialised")
	}
	ts := rec.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO signal_audit
			(ts, signal_id, symbol, direction, strategy, confidence, grade,
			 bullish_score, bearish_score, augment_direction, augment_confidence,
			 augment_provenance, factors_json, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts,
		rec.SignalID,
		strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		rec.Direction,
		rec.Strategy,
		rec.Confidence,
		rec.Grade,
		rec.BullishScore,
		rec.BearishScore,
		rec.AugmentDirection,
		rec.AugmentConfidence,
		rec.AugmentProvenance,
		rec.FactorsJSON,
		rec.Note,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// List returns recent audit records, newest first. An empty symbol lists
// across all symbols.
func (s *Store) List(ctx context.Context, symbol string, limit int) ([]Record, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("audit log store not initialised")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT id, ts, signal_id, symbol, direction, strategy, confidence, grade,
		bullish_score, bearish_score, augment_direction, augment_confidence,
		augment_provenance, factors_json, note
		FROM signal_audit`
	args := []any{}
	if symbol = strings.ToUpper(strings.TrimSpace(symbol)); symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY ts DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.SignalID, &rec.Symbol,
			&rec.Direction, &rec.Strategy, &rec.Confidence, &rec.Grade,
			&rec.BullishScore, &rec.BearishScore, &rec.AugmentDirection,
			&rec.AugmentConfidence, &rec.AugmentProvenance, &rec.FactorsJSON, &rec.Note); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountByProvenance reports how often each augmentation provenance occurred,
// a quick health read on provider availability.
func (s *Store) CountByProvenance(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("audit log store not initialised")
	}
	rows, err := db.QueryContext(ctx, `SELECT augment_provenance, COUNT(*)
		FROM signal_audit GROUP BY augment_provenance`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var prov string
		var n int64
		if err := rows.Scan(&prov, &n); err != nil {
			return nil, err
		}
		out[prov] = n
	}
	return out, rows.Err()
}
