package visual

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"tradewind/internal/engine"
	"tradewind/internal/market"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorBull          = "#34d399"
	colorBear          = "#f87171"
	colorEntry         = "#3b82f6"
	colorStop          = "#fb7185"
	colorTake          = "#fbbf24"

	chartWidthPx  = 1200
	chartHeightPx = 600
)

// SignalChart builds a candlestick chart for the signal's fastest timeframe
// with the entry, stop and take-profit levels overlaid as mark lines.
func SignalChart(sig *engine.TradeSignal, snap *market.Snapshot) (*charts.Kline, error) {
	if sig == nil {
		return nil, fmt.Errorf("visual: signal required")
	}
	if snap == nil || !snap.Usable() {
		return nil, fmt.Errorf("visual: usable snapshot required for %s", sig.Symbol)
	}
	tf := snap.Timeframes()[0]
	frame, ok := snap.Frame(tf)
	if !ok || frame.Empty() {
		return nil, fmt.Errorf("visual: no bars on %s for %s", tf, sig.Symbol)
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("%s %s %s", strings.ToUpper(sig.Symbol), sig.Direction, tf),
			Subtitle:      chartSubtitle(sig),
			Left:          "left",
			Top:           "10",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	)

	xAxis := buildXAxis(frame.Bars)
	kline.SetXAxis(xAxis)
	kline.AddSeries(fmt.Sprintf("Price_%s", tf), buildKlineSeries(frame.Bars),
		charts.WithMarkLineNameYAxisItemOpts(
			opts.MarkLineNameYAxisItem{Name: "Entry", YAxis: sig.Targets.Entry},
			opts.MarkLineNameYAxisItem{Name: "Stop", YAxis: sig.Targets.StopLoss},
			opts.MarkLineNameYAxisItem{Name: "Take", YAxis: sig.Targets.TakeProfit},
		),
		charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
			Symbol: []string{"none", "none"},
			Label:  &opts.Label{Show: opts.Bool(true), Color: colorTextPrimary, Formatter: "{b}: {c}"},
		}),
	)
	return kline, nil
}

// WriteSignalChart renders the signal chart as a standalone HTML document.
func WriteSignalChart(w io.Writer, sig *engine.TradeSignal, snap *market.Snapshot) error {
	kline, err := SignalChart(sig, snap)
	if err != nil {
		return err
	}
	return kline.Render(w)
}

// SaveSignalChart writes the chart HTML under dir and returns the file path.
func SaveSignalChart(dir string, sig *engine.TradeSignal, snap *market.Snapshot) (string, error) {
	kline, err := SignalChart(sig, snap)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("visual: create output dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.html", strings.ToLower(sig.Symbol), sig.CreatedAt.UTC().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("visual: create chart file: %w", err)
	}
	defer f.Close()
	if err := kline.Render(f); err != nil {
		return "", err
	}
	return path, nil
}

func chartSubtitle(sig *engine.TradeSignal) string {
	return fmt.Sprintf("%s | confidence %d (%s) | RR %.2f | %.2f lots",
		sig.Strategy, sig.Confidence, sig.Grade, sig.Targets.RiskReward, sig.PositionSize)
}

func buildXAxis(bars []market.Bar) []string {
	x := make([]string, len(bars))
	for i, b := range bars {
		x[i] = time.UnixMilli(b.OpenTime).UTC().Format("01-02 15:04")
	}
	return x
}

func buildKlineSeries(bars []market.Bar) []opts.KlineData {
	data := make([]opts.KlineData, 0, len(bars))
	for _, b := range bars {
		data = append(data, opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}})
	}
	return data
}
