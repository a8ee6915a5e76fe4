// Package handoff turns a cart into a pre-filled WhatsApp order message.
package handoff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingshipwears/storefront/internal/cart"
	"github.com/kingshipwears/storefront/internal/catalog"
	"github.com/kingshipwears/storefront/internal/format"
)

const (
	// DefaultPhone is the storefront's WhatsApp number in international form.
	DefaultPhone = "2348146240786"

	deepLinkBase  = "https://wa.me/"
	orderGreeting = "Hello 👑, I’d like to order:"
)

// ErrInvalidPhone is returned when the configured number is not plain digits.
var ErrInvalidPhone = errors.New("handoff: phone must be 8-15 digits")

// Handoff is a composed message and the deep link carrying it.
type Handoff struct {
	Message string
	URL     string
	Total   int64
	Items   int
}

// Config selects the destination number and the locale used to group amounts.
type Config struct {
	Phone string
	Lang  string
}

// Service composes order messages for one destination number.
type Service struct {
	phone string
	lang  string
}

// New constructs a Service. An empty phone falls back to DefaultPhone.
func New(cfg Config) (*Service, error) {
	phone := NormalizePhone(cfg.Phone)
	if phone == "" {
		phone = DefaultPhone
	}
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}
	lang := strings.TrimSpace(cfg.Lang)
	if lang == "" {
		lang = format.DefaultLang
	}
	return &Service{phone: phone, lang: lang}, nil
}

// Phone returns the destination number.
func (s *Service) Phone() string { return s.phone }

// Checkout formats the cart as an order message. It reports false for an
// empty cart, in which case no message is composed and nothing should open.
func (s *Service) Checkout(snap cart.Snapshot) (Handoff, bool) {
	if snap.Empty() {
		return Handoff{}, false
	}
	msg, total := OrderMessage(snap, s.lang)
	return Handoff{
		Message: msg,
		URL:     DeepLink(s.phone, msg),
		Total:   total,
		Items:   snap.Count,
	}, true
}

// BuyNow formats a single-product purchase request.
func (s *Service) BuyNow(p catalog.Product) Handoff {
	msg := fmt.Sprintf("Hello 👑, I want to buy the %s for %s", p.Name, format.Naira(p.Price, s.lang))
	return Handoff{
		Message: msg,
		URL:     DeepLink(s.phone, msg),
		Total:   p.Price,
		Items:   1,
	}
}

// OrderMessage renders the itemised order and returns it with the computed total.
func OrderMessage(snap cart.Snapshot, lang string) (string, int64) {
	var (
		total int64
		lines = make([]string, 0, len(snap.Lines))
	)
	for _, l := range snap.Lines {
		sub := l.Subtotal()
		total += sub
		lines = append(lines, fmt.Sprintf("%s (x%d) - %s", l.Product.Name, l.Quantity, format.Naira(sub, lang)))
	}
	var b strings.Builder
	b.WriteString(orderGreeting)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nTOTAL: ")
	b.WriteString(format.Naira(total, lang))
	return b.String(), total
}

// DeepLink builds the wa.me URL for phone with text as the pre-filled message.
func DeepLink(phone, text string) string {
	return deepLinkBase + NormalizePhone(phone) + "?text=" + Encode(text)
}

// NormalizePhone strips the leading plus sign, spaces and dashes people
// tend to paste into configuration.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '+', ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// ValidatePhone checks a normalized number.
func ValidatePhone(phone string) error {
	if len(phone) < 8 || len(phone) > 15 {
		return ErrInvalidPhone
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return ErrInvalidPhone
		}
	}
	return nil
}
