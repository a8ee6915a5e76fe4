package format

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLang is used when the caller passes an empty or unparseable language.
const DefaultLang = "en"

var (
	printersMu sync.RWMutex
	printers   = map[string]*message.Printer{}
)

// FmtCurrency formats a whole-unit amount with the currency symbol and
// locale-grouped digits.
// Example: FmtCurrency(46000, "NGN", "en") => "₦46,000"
func FmtCurrency(amount int64, currency, lang string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	digits := Grouped(amount, lang)
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	var out string
	switch currency {
	case "NGN", "":
		out = "₦" + digits
	case "USD":
		out = "$" + digits
	default:
		out = currency + " " + digits
	}
	if neg {
		return "-" + out
	}
	return out
}

// Naira is shorthand for FmtCurrency(amount, "NGN", lang).
func Naira(amount int64, lang string) string {
	return FmtCurrency(amount, "NGN", lang)
}

// Grouped renders n with the thousands separator of lang, no decimals.
func Grouped(n int64, lang string) string {
	return printerFor(lang).Sprintf("%d", n)
}

func printerFor(lang string) *message.Printer {
	key := strings.ToLower(strings.TrimSpace(lang))
	if key == "" {
		key = DefaultLang
	}
	printersMu.RLock()
	p, ok := printers[key]
	printersMu.RUnlock()
	if ok {
		return p
	}
	tag, err := language.Parse(key)
	if err != nil {
		tag = language.English
	}
	p = message.NewPrinter(tag)
	printersMu.Lock()
	printers[key] = p
	printersMu.Unlock()
	return p
}
