package strategy

import "BistRadar/internal/model"

// MAVerdict is the single-symbol moving average call: buyable when below MA50.
func MAVerdict(ma *model.MASnapshot) string {
	if ma == nil || ma.MA50 == nil {
		return "Belirsiz (MA50 için yeterli veri yok)"
	}
	if ma.CurrentPrice < *ma.MA50 {
		return "Alınabilir"
	}
	return "Alınmaz"
}

// RSICommentary describes an RSI reading.
func RSICommentary(rsi float64) string {
	switch {
	case rsi < 30:
		return "Aşırı satım bölgesinde. Alım fırsatı olabilir."
	case rsi > 70:
		return "Aşırı alım bölgesinde. Satış fırsatı olabilir."
	case rsi < 50:
		return "Satış baskısı var."
	default:
		return "Alım baskısı var."
	}
}

// MomentumCommentary describes a percentage momentum reading.
func MomentumCommentary(pct float64) string {
	switch {
	case pct > 5:
		return "Güçlü yükseliş trendi"
	case pct > 0:
		return "Zayıf yükseliş trendi"
	case pct > -5:
		return "Zayıf düşüş trendi"
	default:
		return "Güçlü düşüş trendi"
	}
}

// DirectionLabel renders a classifier call.
func DirectionLabel(d model.Direction) string {
	if d == model.DirectionUp {
		return "Al"
	}
	return "Sat"
}
