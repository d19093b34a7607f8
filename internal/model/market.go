package model

import "time"

// Bar represents a single daily candlestick.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds one fetch of daily bars for a symbol, ascending by time.
// Every signal computed for a request reads from the same series.
type PriceSeries struct {
	Symbol    string
	Bars      []Bar
	Source    string
	FetchedAt time.Time
}
