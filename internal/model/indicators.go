package model

// MASnapshot holds the latest price and the trailing moving averages.
// A nil average means the series was shorter than its window.
type MASnapshot struct {
	CurrentPrice float64  `json:"current_price"`
	MA50         *float64 `json:"ma50"`
	MA100        *float64 `json:"ma100"`
	MA200        *float64 `json:"ma200"`
}

// RSISnapshot holds the latest price and RSI over the configured window.
type RSISnapshot struct {
	CurrentPrice float64 `json:"current_price"`
	RSI          float64 `json:"rsi"`
}

// MomentumSnapshot holds N-day absolute and percentage price change.
type MomentumSnapshot struct {
	CurrentPrice float64 `json:"current_price"`
	Momentum     float64 `json:"momentum"`
	MomentumPct  float64 `json:"momentum_pct"`
}

// Direction is the classifier's next-day call.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// ClassifierResult is the output of one fit/predict cycle.
type ClassifierResult struct {
	Accuracy     *float64  `json:"accuracy"` // nil when the holdout split is empty
	Direction    Direction `json:"direction"`
	CurrentPrice float64   `json:"current_price"`
	TrainSize    int       `json:"train_size"`
	TestSize     int       `json:"test_size"`
}

// Signals bundles the four per-symbol assessments computed from one PriceSeries.
// Any field may be nil when that signal could not be computed.
type Signals struct {
	Symbol     string            `json:"symbol"`
	MA         *MASnapshot       `json:"ma,omitempty"`
	Classifier *ClassifierResult `json:"classifier,omitempty"`
	RSI        *RSISnapshot      `json:"rsi,omitempty"`
	Momentum   *MomentumSnapshot `json:"momentum,omitempty"`
}

// CurrentPrice returns the latest close from whichever snapshot is present.
func (s *Signals) CurrentPrice() (float64, bool) {
	switch {
	case s.MA != nil:
		return s.MA.CurrentPrice, true
	case s.RSI != nil:
		return s.RSI.CurrentPrice, true
	case s.Momentum != nil:
		return s.Momentum.CurrentPrice, true
	case s.Classifier != nil:
		return s.Classifier.CurrentPrice, true
	}
	return 0, false
}

// Float returns a pointer to v, for optional indicator fields.
func Float(v float64) *float64 { return &v }
