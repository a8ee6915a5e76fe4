package main

import (
	"html/template"
	"strconv"

	"github.com/kingshipwears/storefront/internal/catalog"
	"github.com/kingshipwears/storefront/internal/format"
)

// ProductCard is one tile on the catalog page and the body of the detail page.
type ProductCard struct {
	ID          int
	Name        string
	Href        string
	Price       int64
	PriceLabel  string
	Images      []string
	Cover       string
	Description template.HTML
	// Carousel is true when there is more than one image to cycle through.
	Carousel bool
}

// CatalogView is the catalog page payload.
type CatalogView struct {
	Lang      string
	CSRFToken string
	Products  []ProductCard
}

// ProductView is the detail page payload.
type ProductView struct {
	Lang      string
	CSRFToken string
	Product   ProductCard
	// InCart is the quantity already held for this product.
	InCart int
}

func buildProductCard(p catalog.Product, lang string) ProductCard {
	return ProductCard{
		ID:          p.ID,
		Name:        p.Name,
		Href:        productHref(p.ID),
		Price:       p.Price,
		PriceLabel:  format.Naira(p.Price, lang),
		Images:      p.Images,
		Cover:       p.Cover(),
		Description: p.DescriptionHTML,
		Carousel:    len(p.Images) > 1,
	}
}

func buildCatalogView(products []catalog.Product, lang, csrf string) CatalogView {
	cards := make([]ProductCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, buildProductCard(p, lang))
	}
	return CatalogView{Lang: lang, CSRFToken: csrf, Products: cards}
}

func productHref(id int) string {
	return "/products/" + strconv.Itoa(id)
}
