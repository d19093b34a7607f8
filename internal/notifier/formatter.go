package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"BistRadar/internal/model"
	"BistRadar/internal/strategy"
)

// MenuItem is one entry of the main menu.
type MenuItem struct {
	Data     string
	Label    string
	Mode     model.Mode
	Universe bool // false: ask the user for a symbol first
}

// Menu is the main menu in display order.
var Menu = []MenuItem{
	{"1", "BIST 100 Hareketli Ortalama Analizi", model.ModeMovingAverage, true},
	{"2", "Hisse Hareketli Ortalama Analizi", model.ModeMovingAverage, false},
	{"3", "BIST 100 Yapay Zeka Analizi", model.ModeClassifier, true},
	{"4", "Hisse Yapay Zeka Analizi", model.ModeClassifier, false},
	{"5", "BIST 100 RSI Analizi", model.ModeRSI, true},
	{"6", "Hisse RSI Analizi", model.ModeRSI, false},
	{"7", "BIST 100 Momentum Analizi", model.ModeMomentum, true},
	{"8", "Hisse Momentum Analizi", model.ModeMomentum, false},
	{"9", "En İyi 5 Hisse Analizi", model.ModeComposite, true},
}

// MenuCallback is the callback data of the "back to menu" button.
const MenuCallback = "menu"

// LookupMenu resolves callback data to a menu item.
func LookupMenu(data string) (MenuItem, bool) {
	for _, item := range Menu {
		if item.Data == data {
			return item, true
		}
	}
	return MenuItem{}, false
}

// MenuKeyboard lays out the main menu one button per row.
func MenuKeyboard() InlineKeyboard {
	kb := make(InlineKeyboard, len(Menu))
	for i, item := range Menu {
		kb[i] = []InlineButton{{Text: item.Label, CallbackData: item.Data}}
	}
	return kb
}

// BackToMenuKeyboard is the single button shown under a symbol report.
func BackToMenuKeyboard() InlineKeyboard {
	return InlineKeyboard{{{Text: "Ana Menüye Dön", CallbackData: MenuCallback}}}
}

// Fixed bot texts.
const (
	NoDataText     = "Geçersiz hisse kodu veya veri bulunamadı."
	BackToMenuText = "Ana menüye dönmek için tıklayın:"
	BusyText       = "⏳ Analiz yapılıyor, lütfen bekleyin..."
	ScanFailedText = "❌ Tarama tamamlanamadı, lütfen daha sonra tekrar deneyin."
)

var symbolPrompts = map[model.Mode]string{
	model.ModeMovingAverage: "hareketli ortalama",
	model.ModeClassifier:    "yapay zeka",
	model.ModeRSI:           "RSI",
	model.ModeMomentum:      "momentum",
	model.ModeComposite:     "bileşik puan",
}

const (
	aiExplanation = "🤖 Yapay Zeka Analiz Yöntemi:\n" +
		"1. Son 1 yıllık veriler kullanılıyor\n" +
		"2. Açılış, Yüksek, Düşük ve Kapanış fiyatları analiz ediliyor\n" +
		"3. RandomForest algoritması ile tahmin yapılıyor\n" +
		"4. Model, bir sonraki günün fiyatının yükseleceğini veya düşeceğini tahmin ediyor\n\n" +
		"📊 Analiz Sonuçları:\n\n"
	rsiExplanation = "📈 RSI (Göreceli Güç Endeksi) Analizi:\n" +
		"RSI, bir hisse senedinin aşırı alım veya aşırı satım bölgesinde olup olmadığını gösterir.\n" +
		"- RSI &lt; 30: Aşırı satım bölgesi (Alım fırsatı)\n" +
		"- RSI &gt; 70: Aşırı alım bölgesi (Satış fırsatı)\n\n" +
		"🎯 En İyi 10 Alım Fırsatı:\n\n"
	momentumExplanation = "📊 Momentum Analizi:\n" +
		"Momentum, bir hisse senedinin fiyat değişim hızını gösterir.\n" +
		"- Pozitif momentum: Yükseliş trendi\n" +
		"- Negatif momentum: Düşüş trendi\n\n" +
		"🎯 En Yüksek Momentuma Sahip 10 Hisse:\n\n"
	maHeader        = "BIST 100 Hareketli Ortalama Analizi - Zayıf Hisseler:\n\n"
	compositeHeader = "🌟 BIST 100'de En İyi 5 Hisse Analizi 🌟\n\n"
)

// Formatter renders reports as Telegram HTML messages.
type Formatter struct {
	Banner string
}

// NewFormatter creates a Formatter that heads menus with banner.
func NewFormatter(banner string) *Formatter {
	return &Formatter{Banner: banner}
}

// Welcome is the /start reply.
func (f *Formatter) Welcome() string {
	return f.Banner + "\n\n" +
		"Merhaba! Ben bir borsa analiz botuyum. Size nasıl yardımcı olabilirim?\n\n" +
		"📊 Hisse analizi için aşağıdaki menüyü kullanabilirsiniz.\n"
}

// MenuPrompt is shown above the menu after every universe reply.
func (f *Formatter) MenuPrompt() string {
	return f.Banner + "\n\nLütfen bir analiz yöntemi seçin:"
}

// SymbolPrompt asks for a symbol to analyze in mode.
func SymbolPrompt(mode model.Mode) string {
	return fmt.Sprintf("Lütfen %s analizi yapmak istediğiniz hisse kodunu gönderin.", symbolPrompts[mode])
}

// FormatSymbolReport renders a single-symbol analysis.
func FormatSymbolReport(r *model.SymbolReport) string {
	var b strings.Builder
	sig := r.Signals
	symbol := html.EscapeString(r.Symbol)

	if r.Mode == model.ModeComposite && r.Score != nil {
		writeCompositeBlock(&b, r.Score)
		b.WriteString("<b>Puan dağılımı:</b>\n")
		for _, fs := range r.Score.Factors {
			b.WriteString(fmt.Sprintf("  %s: %+.2f (%s)\n", html.EscapeString(fs.Name), fs.Weighted, html.EscapeString(fs.Commentary)))
		}
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Hisse: %s\n", symbol))
	if price, ok := sig.CurrentPrice(); ok {
		b.WriteString(fmt.Sprintf("Güncel Fiyat: %.2f\n", price))
	}
	switch r.Mode {
	case model.ModeMovingAverage:
		b.WriteString(fmt.Sprintf("MA50: %s\nMA100: %s\nMA200: %s\n", opt(sig.MA.MA50), opt(sig.MA.MA100), opt(sig.MA.MA200)))
		b.WriteString(fmt.Sprintf("Durum: %s", html.EscapeString(r.Commentary)))
	case model.ModeClassifier:
		b.WriteString(fmt.Sprintf("Doğruluk: %s\n", opt(sig.Classifier.Accuracy)))
		b.WriteString(fmt.Sprintf("Öneri: %s", html.EscapeString(r.Commentary)))
	case model.ModeRSI:
		b.WriteString(fmt.Sprintf("RSI Değeri: %.2f\n", sig.RSI.RSI))
		b.WriteString(fmt.Sprintf("Yorum: %s", html.EscapeString(r.Commentary)))
	case model.ModeMomentum:
		b.WriteString(fmt.Sprintf("Momentum: %%%.2f\n", sig.Momentum.MomentumPct))
		b.WriteString(fmt.Sprintf("Yorum: %s", html.EscapeString(r.Commentary)))
	}
	return b.String()
}

// FormatUniverseReport renders a ranked universe scan.
func FormatUniverseReport(r *model.UniverseReport) string {
	var b strings.Builder
	switch r.Mode {
	case model.ModeMovingAverage:
		b.WriteString(maHeader)
		for _, s := range r.Entries {
			b.WriteString(fmt.Sprintf("%s:\nGüncel Fiyat: %.2f\nMA50: %s\nMA100: %s\nMA200: %s\n\n",
				html.EscapeString(s.Symbol), s.MA.CurrentPrice, opt(s.MA.MA50), opt(s.MA.MA100), opt(s.MA.MA200)))
		}
	case model.ModeClassifier:
		b.WriteString(aiExplanation)
		for _, s := range r.Entries {
			c := s.Classifier
			b.WriteString(fmt.Sprintf("Hisse: %s\nGüncel Fiyat: %.2f\nDoğruluk: %s\nÖneri: %s (%.2f TL'den)\n\n",
				html.EscapeString(s.Symbol), c.CurrentPrice, opt(c.Accuracy), strategy.DirectionLabel(c.Direction), c.CurrentPrice))
		}
	case model.ModeRSI:
		b.WriteString(rsiExplanation)
		for _, s := range r.Entries {
			b.WriteString(fmt.Sprintf("Hisse: %s\nGüncel Fiyat: %.2f\nRSI: %.2f\n\n", html.EscapeString(s.Symbol), s.RSI.CurrentPrice, s.RSI.RSI))
		}
	case model.ModeMomentum:
		b.WriteString(momentumExplanation)
		for _, s := range r.Entries {
			b.WriteString(fmt.Sprintf("Hisse: %s\nGüncel Fiyat: %.2f\nMomentum: %%%.2f\n\n",
				html.EscapeString(s.Symbol), s.Momentum.CurrentPrice, s.Momentum.MomentumPct))
		}
	case model.ModeComposite:
		b.WriteString(compositeHeader)
		for _, sc := range r.Scores {
			writeCompositeBlock(&b, sc)
			b.WriteString("\n")
		}
	}

	if r.Len() == 0 {
		b.WriteString("Kriterlere uyan hisse bulunamadı.\n\n")
	}
	if len(r.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("⚠️ %d hisse için veri alınamadı.\n", len(r.Skipped)))
	}
	if r.Partial {
		b.WriteString("⏱ Tarama süre sınırına ulaştı, sonuçlar kısmidir.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatDailyDigest is the scheduled broadcast: banner, date and the composite ranking.
func (f *Formatter) FormatDailyDigest(r *model.UniverseReport, now time.Time) string {
	return fmt.Sprintf("%s\n\n📅 <b>Günlük Özet</b> | %s\n\n%s", f.Banner, now.Format("02.01.2006"), FormatUniverseReport(r))
}

func writeCompositeBlock(b *strings.Builder, sc *model.SymbolScore) {
	b.WriteString(fmt.Sprintf("🔸 %s (Puan: %.1f)\n", html.EscapeString(sc.Symbol), sc.Score))
	sig := sc.Signals
	if sig == nil {
		return
	}
	if sig.MA != nil {
		b.WriteString(fmt.Sprintf("Fiyat: %.2f TL\n", sig.MA.CurrentPrice))
		b.WriteString(fmt.Sprintf("MA50/100/200: %s/%s/%s\n", opt(sig.MA.MA50), opt(sig.MA.MA100), opt(sig.MA.MA200)))
	}
	if sig.Classifier != nil {
		b.WriteString(fmt.Sprintf("YZ Önerisi: %s (Doğruluk: %s)\n", strategy.DirectionLabel(sig.Classifier.Direction), opt(sig.Classifier.Accuracy)))
	}
	if sig.RSI != nil {
		b.WriteString(fmt.Sprintf("RSI: %.2f\n", sig.RSI.RSI))
	}
	if sig.Momentum != nil {
		b.WriteString(fmt.Sprintf("Momentum: %%%.2f\n", sig.Momentum.MomentumPct))
	}
}

// opt renders an optional value, "-" when absent.
func opt(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
