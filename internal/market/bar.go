package market

// Bar is a single OHLCV bar on one timeframe.
type Bar struct {
	OpenTime int64   `json:"open_time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// BaseIndicators are the provider-supplied indicator readings attached to a
// frame. They are hints only; analyzers recompute what they need from the bars.
type BaseIndicators struct {
	RSI  float64 `json:"rsi"`
	MACD float64 `json:"macd"`
	ATR  float64 `json:"atr"`
}

// Frame is the bar history of one timeframe, oldest first.
type Frame struct {
	Bars []Bar          `json:"bars"`
	Base BaseIndicators `json:"base"`
}

func (f Frame) Empty() bool { return len(f.Bars) == 0 }

// Last returns the most recent bar of the frame.
func (f Frame) Last() (Bar, bool) {
	if len(f.Bars) == 0 {
		return Bar{}, false
	}
	return f.Bars[len(f.Bars)-1], true
}

func (f Frame) Closes() []float64 {
	out := make([]float64, len(f.Bars))
	for i, b := range f.Bars {
		out[i] = b.Close
	}
	return out
}

func (f Frame) Highs() []float64 {
	out := make([]float64, len(f.Bars))
	for i, b := range f.Bars {
		out[i] = b.High
	}
	return out
}

func (f Frame) Lows() []float64 {
	out := make([]float64, len(f.Bars))
	for i, b := range f.Bars {
		out[i] = b.Low
	}
	return out
}

func (f Frame) Volumes() []float64 {
	out := make([]float64, len(f.Bars))
	for i, b := range f.Bars {
		out[i] = b.Volume
	}
	return out
}

// VWAP computes the volume weighted average price over the frame.
// Returns the last close when total volume is zero, 0 on an empty frame.
func (f Frame) VWAP() float64 {
	var pv, vol float64
	for _, b := range f.Bars {
		typical := (b.High + b.Low + b.Close) / 3
		pv += typical * b.Volume
		vol += b.Volume
	}
	if vol == 0 {
		if last, ok := f.Last(); ok {
			return last.Close
		}
		return 0
	}
	return pv / vol
}

// AvgVolume returns the mean bar volume, 0 on an empty frame.
func (f Frame) AvgVolume() float64 {
	if len(f.Bars) == 0 {
		return 0
	}
	var sum float64
	for _, b := range f.Bars {
		sum += b.Volume
	}
	return sum / float64(len(f.Bars))
}
