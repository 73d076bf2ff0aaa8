package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tradewind/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SymbolProfile carries the per-instrument characteristics every analyzer
// depends on. Unknown symbols fall back to the default profile.
type SymbolProfile struct {
	Symbol string `mapstructure:"-"`

	VolatilityMultiplier float64 `mapstructure:"volatility_multiplier"`
	MinMovement          float64 `mapstructure:"min_movement"`
	TickSize             float64 `mapstructure:"tick_size"`

	BaseSpread    float64 `mapstructure:"base_spread"`
	PsychMinor    float64 `mapstructure:"psych_minor"`
	PsychMajor    float64 `mapstructure:"psych_major"`
	StrikeSpacing float64 `mapstructure:"strike_spacing"`

	GammaMultiplier float64 `mapstructure:"gamma_multiplier"`
	GammaFlipRange  float64 `mapstructure:"gamma_flip_range"`

	// VolumeSignificance is the multiple of average volume a bar must carry
	// to count as institutional participation.
	VolumeSignificance float64 `mapstructure:"volume_significance"`

	Drift float64 `mapstructure:"drift"`
}

// PsychSpacing returns the minor/major round-number spacings, deriving them
// from the price for symbols without fixed levels.
func (p SymbolProfile) PsychSpacing(price float64) (minor, major float64) {
	minor, major = p.PsychMinor, p.PsychMajor
	if minor <= 0 {
		minor = price * 0.01
	}
	if major <= 0 {
		major = price * 0.05
	}
	return minor, major
}

// StrikeStep returns the option strike spacing, price-relative when the
// profile carries no fixed spacing.
func (p SymbolProfile) StrikeStep(price float64) float64 {
	if p.StrikeSpacing > 0 {
		return p.StrikeSpacing
	}
	return price * 0.01
}

var defaultSymbolProfile = SymbolProfile{
	Symbol:               "DEFAULT",
	VolatilityMultiplier: 1.0,
	MinMovement:          0.001,
	TickSize:             0.00001,
	BaseSpread:           0.0001,
	GammaMultiplier:      1.0,
	GammaFlipRange:       0.01,
	VolumeSignificance:   1.2,
}

var builtinSymbolProfiles = map[string]SymbolProfile{
	"BTCUSD": {
		VolatilityMultiplier: 1.0, MinMovement: 100, TickSize: 0.01,
		BaseSpread: 0.0001, PsychMinor: 1000, PsychMajor: 5000, StrikeSpacing: 1000,
		GammaMultiplier: 1.5, GammaFlipRange: 0.02, Drift: 0.0002,
		VolumeSignificance: 1.5,
	},
	"ETHUSD": {
		VolatilityMultiplier: 1.0, MinMovement: 5, TickSize: 0.01,
		BaseSpread: 0.0002, PsychMinor: 100, PsychMajor: 500, StrikeSpacing: 100,
		GammaMultiplier: 1.3, GammaFlipRange: 0.025, Drift: 0.0001,
		VolumeSignificance: 1.5,
	},
	"EURUSD": {
		VolatilityMultiplier: 1.0, MinMovement: 0.0010, TickSize: 0.00001,
		BaseSpread: 0.00001, PsychMinor: 0.01, PsychMajor: 0.05, StrikeSpacing: 0.01,
		GammaMultiplier: 0.8, GammaFlipRange: 0.005, Drift: 0,
		VolumeSignificance: 1.2,
	},
	"GBPUSD": {
		VolatilityMultiplier: 1.2, MinMovement: 0.0015, TickSize: 0.00001,
		BaseSpread: 0.00002, PsychMinor: 0.01, PsychMajor: 0.05, StrikeSpacing: 0.01,
		GammaMultiplier: 1.0, GammaFlipRange: 0.008, Drift: -0.0001,
		VolumeSignificance: 1.2,
	},
	"USDJPY": {
		VolatilityMultiplier: 1.0, MinMovement: 0.10, TickSize: 0.001,
		BaseSpread: 0.0001, GammaMultiplier: 1.0, GammaFlipRange: 0.01, Drift: 0,
		VolumeSignificance: 1.2,
	},
	"XAUUSD": {
		VolatilityMultiplier: 1.0, MinMovement: 2.0, TickSize: 0.01,
		BaseSpread: 0.0001, PsychMinor: 10, PsychMajor: 50, StrikeSpacing: 10,
		GammaMultiplier: 1.2, GammaFlipRange: 0.01, Drift: 0.0001,
		VolumeSignificance: 1.3,
	},
	"CRUDE": {
		VolatilityMultiplier: 1.5, MinMovement: 0.50, TickSize: 0.01,
		BaseSpread: 0.0002, PsychMinor: 5, PsychMajor: 10, StrikeSpacing: 1,
		GammaMultiplier: 1.4, GammaFlipRange: 0.015, Drift: 0,
		VolumeSignificance: 1.3,
	},
}

// SymbolCatalog resolves per-symbol profiles, layering file overrides over
// the built-in table. Overrides reload on a watched file change.
type SymbolCatalog struct {
	mu        sync.RWMutex
	overrides map[string]SymbolProfile
	version   int64
	loadedAt  time.Time
}

// NewSymbolCatalog builds a catalog with only the built-in table.
func NewSymbolCatalog() *SymbolCatalog {
	return &SymbolCatalog{}
}

// NewSymbolCatalogFromFile reads the overrides file and starts watching it
// when watch is true.
func NewSymbolCatalogFromFile(path string, watch bool) (*SymbolCatalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("symbol catalog requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read symbol overrides failed: %w", err)
	}
	cat := NewSymbolCatalog()
	if err := cat.reload(v); err != nil {
		return nil, err
	}
	if watch {
		v.OnConfigChange(func(evt fsnotify.Event) {
			if err := cat.reload(v); err != nil {
				logger.Errorf("symbol overrides reload failed (%s): %v", evt.Name, err)
			}
		})
		v.WatchConfig()
	}
	return cat, nil
}

type symbolFileConfig struct {
	Symbols map[string]SymbolProfile `mapstructure:"symbols"`
}

func (c *SymbolCatalog) reload(v *viper.Viper) error {
	var fileCfg symbolFileConfig
	if err := v.Unmarshal(&fileCfg); err != nil {
		return fmt.Errorf("parse symbol overrides failed: %w", err)
	}
	overrides := make(map[string]SymbolProfile, len(fileCfg.Symbols))
	for name, prof := range fileCfg.Symbols {
		sym := strings.ToUpper(strings.TrimSpace(name))
		if sym == "" {
			continue
		}
		prof.Symbol = sym
		overrides[sym] = prof
	}
	c.mu.Lock()
	c.overrides = overrides
	c.version++
	c.loadedAt = time.Now()
	c.mu.Unlock()
	logger.Infof("Symbol catalog reloaded %d overrides from %s", len(overrides), filepath.Base(v.ConfigFileUsed()))
	return nil
}

// Lookup returns the profile for symbol. Override fields left at zero fall
// back to the built-in (or default) values.
func (c *SymbolCatalog) Lookup(symbol string) SymbolProfile {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	base, ok := builtinSymbolProfiles[sym]
	if !ok {
		base = defaultSymbolProfile
	}
	base.Symbol = sym

	c.mu.RLock()
	ov, hasOv := c.overrides[sym]
	c.mu.RUnlock()
	if hasOv {
		base = mergeSymbolProfile(base, ov)
	}
	return base
}

// Version returns the reload counter, for tests and diagnostics.
func (c *SymbolCatalog) Version() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func mergeSymbolProfile(base, ov SymbolProfile) SymbolProfile {
	if ov.VolatilityMultiplier > 0 {
		base.VolatilityMultiplier = ov.VolatilityMultiplier
	}
	if ov.MinMovement > 0 {
		base.MinMovement = ov.MinMovement
	}
	if ov.TickSize > 0 {
		base.TickSize = ov.TickSize
	}
	if ov.BaseSpread > 0 {
		base.BaseSpread = ov.BaseSpread
	}
	if ov.PsychMinor > 0 {
		base.PsychMinor = ov.PsychMinor
	}
	if ov.PsychMajor > 0 {
		base.PsychMajor = ov.PsychMajor
	}
	if ov.StrikeSpacing > 0 {
		base.StrikeSpacing = ov.StrikeSpacing
	}
	if ov.GammaMultiplier > 0 {
		base.GammaMultiplier = ov.GammaMultiplier
	}
	if ov.GammaFlipRange > 0 {
		base.GammaFlipRange = ov.GammaFlipRange
	}
	if ov.VolumeSignificance > 0 {
		base.VolumeSignificance = ov.VolumeSignificance
	}
	if ov.Drift != 0 {
		base.Drift = ov.Drift
	}
	return base
}
