package augment

// Provenance records how a directional assessment was produced.
type Provenance string

const (
	ProvenanceLive              Provenance = "LIVE"
	ProvenanceCached            Provenance = "CACHED"
	ProvenanceFallbackHeuristic Provenance = "FALLBACK_HEURISTIC"
	ProvenanceFallbackBasic     Provenance = "FALLBACK_BASIC"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Result is the directional assessment. Confidence stays in [70,95].
type Result struct {
	Direction  Direction  `json:"direction"`
	Confidence int        `json:"confidence"`
	Provenance Provenance `json:"provenance"`
}

// Summary carries the already-computed analyzer context embedded into the
// prompt and reused by the heuristic fallback.
type Summary struct {
	Symbol string
	Price  float64

	RSI  float64
	MACD float64
	ATR  float64

	Trend               string
	TrendStrength       float64
	Structure           string
	BreakoutProbability float64

	InstitutionalFlow string
	VolumePattern     string
	OrderFlow         string

	VWAPPosition string
	MLConsensus  string
	MLConfidence float64

	// Momentum is the recent fast-timeframe price change ratio.
	Momentum        float64
	VolumeConfirmed bool

	KeyLevels []float64

	// HasAnalyzerContext marks whether the smart-money and price-action
	// categories above were actually populated. Without them the fallback
	// degrades to the basic vote.
	HasAnalyzerContext bool
}
