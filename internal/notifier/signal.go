package notifier

import (
	"fmt"

	"tradewind/internal/engine"
	"tradewind/internal/ensemble"
)

// FormatSignal renders one trade signal as a structured push message.
func FormatSignal(sig *engine.TradeSignal) StructuredMessage {
	if sig == nil {
		return StructuredMessage{}
	}
	icon := "📈"
	if sig.Direction == ensemble.DirectionShort {
		icon = "📉"
	}

	setup := MessageSection{
		Title: "SETUP",
		Lines: []string{
			fmt.Sprintf("Strategy: %s", sig.Strategy),
			fmt.Sprintf("Confidence: %d%% (%s)", sig.Confidence, sig.Grade),
			fmt.Sprintf("Position size: %.2f lots", sig.PositionSize),
		},
	}
	targets := MessageSection{
		Title: "TARGETS",
		Lines: []string{
			fmt.Sprintf("Entry: %.5f", sig.Targets.Entry),
			fmt.Sprintf("Stop loss: %.5f", sig.Targets.StopLoss),
			fmt.Sprintf("Take profit: %.5f", sig.Targets.TakeProfit),
			fmt.Sprintf("Risk/reward: %.2f", sig.Targets.RiskReward),
		},
	}
	context := MessageSection{
		Title: "CONTEXT",
		Lines: []string{
			fmt.Sprintf("Trend: %s (%.2f)", sig.Analysis.PriceAction.Trend, sig.Analysis.PriceAction.TrendStrength),
			fmt.Sprintf("Institutional flow: %s", sig.Analysis.SmartMoney.InstitutionalFlow),
			fmt.Sprintf("Assessment source: %s", sig.Analysis.Augment.Provenance),
		},
	}

	return StructuredMessage{
		Icon:      icon,
		Title:     fmt.Sprintf("%s %s", sig.Symbol, sig.Direction),
		Sections:  []MessageSection{setup, targets, context},
		Timestamp: sig.CreatedAt,
	}
}

// NotifySignal renders and sends one signal; a nil notifier is a no-op.
func NotifySignal(n TextNotifier, sig *engine.TradeSignal) error {
	if n == nil || sig == nil {
		return nil
	}
	return n.SendText(FormatSignal(sig).RenderMarkdown())
}
