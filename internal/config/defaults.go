package config

import "strings"

const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9980"
	defaultAppLogPath  = "/data/logs/tradewind.log"

	defaultAugmentAPIURL  = "https://api.openai.com/v1"
	defaultAugmentModel   = "gpt-4o-mini"
	defaultAugmentTimeout = 30
	defaultAugmentRetries = 3
	defaultAugmentTTL     = 300

	defaultRiskBalance = 10000
	defaultRiskPct     = 2

	defaultConfidenceFloor   = 70
	defaultConfidenceCeiling = 95

	defaultStorePath = "/data/db/signals.db"

	defaultSchedulerInterval = 15
	defaultSchedulerTop      = 3

	defaultChartDir = "/data/charts"
)

var defaultSchedulerSymbols = []string{"BTCUSD", "ETHUSD", "EURUSD", "GBPUSD", "XAUUSD"}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Augment.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Ensemble.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Scheduler.applyDefaults(keys)
	c.Chart.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (a *AugmentConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("augment.enabled", &a.Enabled, true),
		stringFieldDefault("augment.api_url", &a.APIURL, defaultAugmentAPIURL),
		stringFieldDefault("augment.model", &a.Model, defaultAugmentModel),
		fieldDefault{
			key:   "augment.timeout_seconds",
			need:  func() bool { return a.TimeoutSeconds <= 0 },
			apply: func() { a.TimeoutSeconds = defaultAugmentTimeout },
		},
		fieldDefault{
			key:   "augment.max_retries",
			need:  func() bool { return a.MaxRetries <= 0 },
			apply: func() { a.MaxRetries = defaultAugmentRetries },
		},
		fieldDefault{
			key:   "augment.cache_ttl_seconds",
			need:  func() bool { return a.CacheTTLSecs <= 0 },
			apply: func() { a.CacheTTLSecs = defaultAugmentTTL },
		},
	)
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "risk.account_balance",
			need:  func() bool { return r.AccountBalance <= 0 },
			apply: func() { r.AccountBalance = defaultRiskBalance },
		},
		fieldDefault{
			key:   "risk.risk_percentage",
			need:  func() bool { return r.RiskPercentage <= 0 },
			apply: func() { r.RiskPercentage = defaultRiskPct },
		},
	)
}

func (e *EnsembleConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "ensemble.confidence_floor",
			need:  func() bool { return e.ConfidenceFloor <= 0 },
			apply: func() { e.ConfidenceFloor = defaultConfidenceFloor },
		},
		fieldDefault{
			key:   "ensemble.confidence_ceiling",
			need:  func() bool { return e.ConfidenceCeiling <= 0 },
			apply: func() { e.ConfidenceCeiling = defaultConfidenceCeiling },
		},
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

func (s *SchedulerConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "scheduler.interval_minutes",
			need:  func() bool { return s.IntervalMinutes <= 0 },
			apply: func() { s.IntervalMinutes = defaultSchedulerInterval },
		},
		fieldDefault{
			key:   "scheduler.top_signals",
			need:  func() bool { return s.TopSignals <= 0 },
			apply: func() { s.TopSignals = defaultSchedulerTop },
		},
	)
	if len(s.Symbols) == 0 {
		s.Symbols = append([]string(nil), defaultSchedulerSymbols...)
	}
	s.Symbols = normalizeSymbolList(s.Symbols)
}

func (c *ChartConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("chart.output_dir", &c.OutputDir, defaultChartDir),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func normalizeSymbolList(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}
