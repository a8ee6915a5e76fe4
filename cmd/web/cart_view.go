package main

import (
	"github.com/kingshipwears/storefront/internal/cart"
	"github.com/kingshipwears/storefront/internal/format"
)

// CartView aggregates all data needed for the cart page and its fragment.
type CartView struct {
	Lang       string
	CSRFToken  string
	Items      []CartItem
	Empty      bool
	Count      int
	Total      int64
	TotalLabel string
}

// CartItem represents a line item in the cart table.
type CartItem struct {
	ProductID      int
	Name           string
	Href           string
	Image          string
	Quantity       int
	UnitPrice      int64
	UnitPriceLabel string
	LineTotal      int64
	LineTotalLabel string
}

// HandoffView is the checkout result fragment. Its notice stays hidden
// unless the browser refuses to open the WhatsApp window.
type HandoffView struct {
	Lang string
	URL  string
}

func buildCartView(snap cart.Snapshot, lang, csrf string) CartView {
	items := make([]CartItem, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, CartItem{
			ProductID:      l.Product.ID,
			Name:           l.Product.Name,
			Href:           productHref(l.Product.ID),
			Image:          l.Product.Cover(),
			Quantity:       l.Quantity,
			UnitPrice:      l.Product.Price,
			UnitPriceLabel: format.Naira(l.Product.Price, lang),
			LineTotal:      l.Subtotal(),
			LineTotalLabel: format.Naira(l.Subtotal(), lang),
		})
	}
	return CartView{
		Lang:       lang,
		CSRFToken:  csrf,
		Items:      items,
		Empty:      snap.Empty(),
		Count:      snap.Count,
		Total:      snap.Total,
		TotalLabel: format.Naira(snap.Total, lang),
	}
}
