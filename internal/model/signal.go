package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects which analysis a request runs.
type Mode string

const (
	ModeMovingAverage Mode = "ma"
	ModeClassifier    Mode = "ai"
	ModeRSI           Mode = "rsi"
	ModeMomentum      Mode = "momentum"
	ModeComposite     Mode = "top5"
)

// Modes lists every supported mode in menu order.
var Modes = []Mode{ModeMovingAverage, ModeClassifier, ModeRSI, ModeMomentum, ModeComposite}

// ParseMode accepts the canonical names plus a few long-form aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ma", "moving-average", "moving_average":
		return ModeMovingAverage, nil
	case "ai", "classifier", "ml":
		return ModeClassifier, nil
	case "rsi":
		return ModeRSI, nil
	case "momentum", "mom":
		return ModeMomentum, nil
	case "top5", "composite", "composite-top5", "best":
		return ModeComposite, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Source records what triggered a request.
type Source string

const (
	SourceTelegram Source = "TELEGRAM"
	SourceHTTP     Source = "HTTP"
	SourceCron     Source = "CRON"
	SourceCLI      Source = "CLI"
)

// FactorScore represents a single signal's contribution to the composite score.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// SymbolScore accumulates the composite score for one symbol during one ranking request.
type SymbolScore struct {
	Symbol  string        `json:"symbol"`
	Score   float64       `json:"score"`
	Factors []FactorScore `json:"factors"`
	Signals *Signals      `json:"signals"`
}

// SymbolReport is the result of a single-symbol analysis.
type SymbolReport struct {
	Symbol     string       `json:"symbol"`
	Mode       Mode         `json:"mode"`
	Signals    *Signals     `json:"signals"`
	Score      *SymbolScore `json:"score,omitempty"`
	Commentary string       `json:"commentary,omitempty"`
}

// UniverseReport is the ranked or filtered result of a universe scan.
type UniverseReport struct {
	Mode      Mode           `json:"mode"`
	Entries   []*Signals     `json:"entries,omitempty"`
	Scores    []*SymbolScore `json:"scores,omitempty"`
	Requested int            `json:"requested"`
	Analyzed  int            `json:"analyzed"`
	Skipped   []string       `json:"skipped"`
	Elapsed   time.Duration  `json:"elapsed"`
	Partial   bool           `json:"partial"`
}

// Len returns the number of ranked rows in the report.
func (r *UniverseReport) Len() int {
	if r.Mode == ModeComposite {
		return len(r.Scores)
	}
	return len(r.Entries)
}
