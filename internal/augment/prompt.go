package augment

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an elite institutional trader with deep expertise in order flow, smart money concepts and multi-timeframe analysis. Given the market summary below, commit to one direction. Respond with exactly three lines:
DIRECTION: LONG or SHORT
CONFIDENCE: integer between 70 and 95
REASONING: one sentence`

// BuildPrompt renders the analyzer context into the user prompt.
func BuildPrompt(s Summary) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "MARKET DATA %s\n", s.Symbol)
	fmt.Fprintf(&b, "Price: %.5f\n", s.Price)
	fmt.Fprintf(&b, "RSI: %.1f  MACD: %.5f  ATR: %.5f\n", s.RSI, s.MACD, s.ATR)
	fmt.Fprintf(&b, "Recent momentum: %.4f%%  Volume confirmed: %v\n", s.Momentum*100, s.VolumeConfirmed)

	b.WriteString("\nPRICE ACTION\n")
	fmt.Fprintf(&b, "Trend: %s (strength %.2f)\n", s.Trend, s.TrendStrength)
	fmt.Fprintf(&b, "Structure: %s\n", s.Structure)
	fmt.Fprintf(&b, "Breakout probability: %.0f%%\n", s.BreakoutProbability)
	if len(s.KeyLevels) > 0 {
		levels := make([]string, 0, len(s.KeyLevels))
		for _, lv := range s.KeyLevels {
			levels = append(levels, fmt.Sprintf("%.5f", lv))
		}
		fmt.Fprintf(&b, "Key levels: %s\n", strings.Join(levels, ", "))
	}

	b.WriteString("\nSMART MONEY\n")
	fmt.Fprintf(&b, "Institutional flow: %s\n", s.InstitutionalFlow)
	fmt.Fprintf(&b, "Volume pattern: %s\n", s.VolumePattern)
	fmt.Fprintf(&b, "Order flow: %s\n", s.OrderFlow)
	fmt.Fprintf(&b, "VWAP position: %s\n", s.VWAPPosition)
	fmt.Fprintf(&b, "Model consensus: %s (%.0f%%)\n", s.MLConsensus, s.MLConfidence*100)

	return systemPrompt, b.String()
}
