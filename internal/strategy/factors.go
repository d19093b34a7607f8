package strategy

import (
	"fmt"

	"BistRadar/internal/model"
)

// Factor names used in composite score breakdowns.
const (
	FactorMovingAverage = "Hareketli Ortalama"
	FactorClassifier    = "Yapay Zeka"
	FactorRSI           = "RSI"
	FactorMomentum      = "Momentum"
)

// scoreMovingAverages gives one point for each of MA50, MA100 and MA200 the price sits below.
// Range: 0..3
func scoreMovingAverages(ma *model.MASnapshot) model.FactorScore {
	if ma == nil {
		return absent(FactorMovingAverage, "MA verisi yok")
	}
	var score float64
	below := 0
	for _, avg := range []*float64{ma.MA50, ma.MA100, ma.MA200} {
		if avg != nil && ma.CurrentPrice < *avg {
			score++
			below++
		}
	}
	return weighted(FactorMovingAverage, score, fmt.Sprintf("%d ortalamanın altında", below))
}

// scoreClassifier gives two points for an Up call plus the holdout accuracy.
// Range: 0..3
func scoreClassifier(c *model.ClassifierResult) model.FactorScore {
	if c == nil {
		return absent(FactorClassifier, "model kurulamadı")
	}
	var score float64
	if c.Direction == model.DirectionUp {
		score += 2
	}
	commentary := DirectionLabel(c.Direction)
	if c.Accuracy != nil {
		score += *c.Accuracy
		commentary += fmt.Sprintf(", doğruluk %.2f", *c.Accuracy)
	}
	return weighted(FactorClassifier, score, commentary)
}

// scoreRSI rewards oversold readings.
// Range: 0..3
func scoreRSI(r *model.RSISnapshot, p Policy) model.FactorScore {
	if r == nil {
		return absent(FactorRSI, "RSI hesaplanamadı")
	}
	var score float64
	if r.RSI < p.OversoldRSI {
		score += 2
	}
	if r.RSI < p.DeepOversoldRSI {
		score++
	}
	return weighted(FactorRSI, score, fmt.Sprintf("RSI=%.0f", r.RSI))
}

// scoreMomentum rewards recent weakness, treating a pullback as an entry opportunity.
// Range: 0..2
func scoreMomentum(m *model.MomentumSnapshot, p Policy) model.FactorScore {
	if m == nil {
		return absent(FactorMomentum, "momentum hesaplanamadı")
	}
	var score float64
	if m.MomentumPct < 0 {
		score++
	}
	if m.MomentumPct < p.MomentumDropPct {
		score++
	}
	return weighted(FactorMomentum, score, fmt.Sprintf("%%%+.2f", m.MomentumPct))
}

func weighted(name string, raw float64, commentary string) model.FactorScore {
	return model.FactorScore{Name: name, RawScore: raw, Weight: 1, Weighted: raw, Commentary: commentary}
}

func absent(name, commentary string) model.FactorScore {
	return model.FactorScore{Name: name, Weight: 1, Commentary: commentary}
}
