package config

import "strings"

// Config is the main configuration carrier for tradewind.
type Config struct {
	App       AppConfig       `toml:"app"`
	Augment   AugmentConfig   `toml:"augment"`
	Risk      RiskConfig      `toml:"risk"`
	Ensemble  EnsembleConfig  `toml:"ensemble"`
	Store     StoreConfig     `toml:"store"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Notify    NotifyConfig    `toml:"notify"`
	Chart     ChartConfig     `toml:"chart"`
	Symbols   SymbolsConfig   `toml:"symbols"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	// TracePath enables the raw augmentation request/response trace file.
	TracePath string `toml:"trace_path"`
}

// AugmentConfig describes the OpenAI-compatible text completion endpoint used
// for the directional augmentation call.
type AugmentConfig struct {
	Enabled        bool              `toml:"enabled"`
	APIURL         string            `toml:"api_url"`
	APIKey         string            `toml:"api_key"`
	Model          string            `toml:"model"`
	TimeoutSeconds int               `toml:"timeout_seconds"`
	MaxRetries     int               `toml:"max_retries"`
	Headers        map[string]string `toml:"headers"`
	CacheTTLSecs   int               `toml:"cache_ttl_seconds"`
}

// RiskConfig is the default account context used when the caller supplies
// none (batch runs, HTTP requests without an explicit account).
type RiskConfig struct {
	AccountBalance float64 `toml:"account_balance"`
	RiskPercentage float64 `toml:"risk_percentage"`
}

// EnsembleConfig bounds the overall confidence of emitted signals.
type EnsembleConfig struct {
	ConfidenceFloor   int `toml:"confidence_floor"`
	ConfidenceCeiling int `toml:"confidence_ceiling"`
}

type StoreConfig struct {
	Path string `toml:"path"`
	// AuditPath holds the separate audit-log database; empty disables it.
	AuditPath string `toml:"audit_path"`
}

type SchedulerConfig struct {
	Enabled         bool     `toml:"enabled"`
	IntervalMinutes int      `toml:"interval_minutes"`
	Symbols         []string `toml:"symbols"`
	TopSignals      int      `toml:"top_signals"`
	RunImmediately  bool     `toml:"run_immediately"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type ChartConfig struct {
	Enabled   bool   `toml:"enabled"`
	OutputDir string `toml:"output_dir"`
}

// SymbolsConfig points at the optional per-symbol characteristics override
// file. The built-in table covers the majors; the file is hot-reloaded.
type SymbolsConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// keySet tracks the field paths explicitly present in the config files, so
// defaults never clobber explicit zero values.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule for a single field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
