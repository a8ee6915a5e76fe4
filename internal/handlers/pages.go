// Package handlers defines the view models shared by page templates.
package handlers

import (
	"github.com/kingshipwears/storefront/internal/nav"
	"github.com/kingshipwears/storefront/internal/seo"
)

// PageData is the view model for every page using the shared layout.
type PageData struct {
	Title     string
	Lang      string
	SEO       seo.Meta
	Analytics Analytics

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb

	CSRFToken string
	// CartCount feeds the header badge.
	CartCount int
	Splash    Splash

	// Optional per-page view model payloads
	Catalog any
	Product any
	Cart    any
}

// Splash drives the first-visit overlay. RemainingMS is how long the page
// script keeps it up.
type Splash struct {
	Show        bool
	RemainingMS int64
}
