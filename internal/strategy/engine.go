package strategy

import (
	"sort"

	"BistRadar/internal/model"
)

// Policy holds the thresholds and list sizes used for scoring and ranking.
type Policy struct {
	OversoldRSI     float64
	DeepOversoldRSI float64
	MomentumDropPct float64
	TopAccuracy     int
	TopOversold     int
	TopMomentum     int
	TopComposite    int
}

// DefaultPolicy is the stock scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		OversoldRSI:     40,
		DeepOversoldRSI: 30,
		MomentumDropPct: -5,
		TopAccuracy:     10,
		TopOversold:     10,
		TopMomentum:     10,
		TopComposite:    5,
	}
}

// Evaluate computes the composite score for one symbol. Missing signals contribute nothing.
func Evaluate(sig *model.Signals, p Policy) *model.SymbolScore {
	factors := []model.FactorScore{
		scoreMovingAverages(sig.MA),
		scoreClassifier(sig.Classifier),
		scoreRSI(sig.RSI, p),
		scoreMomentum(sig.Momentum, p),
	}
	var total float64
	for _, f := range factors {
		total += f.Weighted
	}
	return &model.SymbolScore{Symbol: sig.Symbol, Score: total, Factors: factors, Signals: sig}
}

// IsWeak reports whether the price is strictly below all three moving averages.
func IsWeak(ma *model.MASnapshot) bool {
	if ma == nil || ma.MA50 == nil || ma.MA100 == nil || ma.MA200 == nil {
		return false
	}
	return ma.CurrentPrice < *ma.MA50 && ma.CurrentPrice < *ma.MA100 && ma.CurrentPrice < *ma.MA200
}

// WeakSymbols keeps entries flagged by IsWeak, in input order.
func WeakSymbols(entries []*model.Signals) []*model.Signals {
	var out []*model.Signals
	for _, e := range entries {
		if IsWeak(e.MA) {
			out = append(out, e)
		}
	}
	return out
}

// TopByAccuracy ranks entries with a holdout accuracy, highest first.
func TopByAccuracy(entries []*model.Signals, k int) []*model.Signals {
	var out []*model.Signals
	for _, e := range entries {
		if e.Classifier != nil && e.Classifier.Accuracy != nil {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Classifier.Accuracy > *out[j].Classifier.Accuracy
	})
	return head(out, k)
}

// Oversold keeps entries with RSI below the threshold, lowest RSI first.
func Oversold(entries []*model.Signals, below float64, k int) []*model.Signals {
	var out []*model.Signals
	for _, e := range entries {
		if e.RSI != nil && e.RSI.RSI < below {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RSI.RSI < out[j].RSI.RSI })
	return head(out, k)
}

// TopMomentum ranks entries by percentage momentum, strongest first.
func TopMomentum(entries []*model.Signals, k int) []*model.Signals {
	var out []*model.Signals
	for _, e := range entries {
		if e.Momentum != nil {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Momentum.MomentumPct > out[j].Momentum.MomentumPct })
	return head(out, k)
}

// TopComposite ranks scores highest first.
func TopComposite(scores []*model.SymbolScore, k int) []*model.SymbolScore {
	out := make([]*model.SymbolScore, len(scores))
	copy(out, scores)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return head(out, k)
}

// Rank applies the mode's filter and ordering to a universe of signals.
func Rank(mode model.Mode, entries []*model.Signals, p Policy) []*model.Signals {
	switch mode {
	case model.ModeMovingAverage:
		return WeakSymbols(entries)
	case model.ModeClassifier:
		return TopByAccuracy(entries, p.TopAccuracy)
	case model.ModeRSI:
		return Oversold(entries, p.OversoldRSI, p.TopOversold)
	case model.ModeMomentum:
		return TopMomentum(entries, p.TopMomentum)
	}
	return nil
}

func head[T any](s []T, k int) []T {
	if k >= 0 && len(s) > k {
		return s[:k]
	}
	return s
}
