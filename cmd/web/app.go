package main

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kingshipwears/storefront/internal/cart"
	"github.com/kingshipwears/storefront/internal/catalog"
	"github.com/kingshipwears/storefront/internal/config"
	"github.com/kingshipwears/storefront/internal/handlers"
	"github.com/kingshipwears/storefront/internal/handoff"
	"github.com/kingshipwears/storefront/internal/i18n"
	mw "github.com/kingshipwears/storefront/internal/middleware"
	"github.com/kingshipwears/storefront/internal/nav"
	"github.com/kingshipwears/storefront/internal/observability"
	"github.com/kingshipwears/storefront/internal/seo"
	"github.com/kingshipwears/storefront/internal/splash"
)

// app holds the storefront's long-lived dependencies. Handlers are methods
// on it so nothing lives in package state.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	catalog   *catalog.Catalog
	carts     *cart.Registry
	splash    *splash.Tracker
	handoff   *handoff.Service
	bundle    *i18n.Bundle
	sessions  *mw.Sessions
	views     *renderer
	analytics handlers.Analytics
}

// appDeps lists what newApp needs beyond configuration.
type appDeps struct {
	Logger  *zap.Logger
	Catalog *catalog.Catalog
	Bundle  *i18n.Bundle
}

func newApp(cfg config.Config, deps appDeps) (*app, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	views, err := newRenderer(cfg.Paths.TemplatesDir, cfg.DevMode, deps.Bundle)
	if err != nil {
		return nil, err
	}
	svc, err := handoff.New(handoff.Config{Phone: cfg.WhatsApp.Phone})
	if err != nil {
		return nil, err
	}
	tracker := splash.NewTracker(cfg.Splash.Duration)
	carts := cart.NewRegistry(cart.RegistryConfig{
		IdleTTL:       cfg.Cart.IdleTTL,
		SweepInterval: cfg.Cart.SweepInterval,
		Logger:        logger.Named("cart"),
		OnEvict:       tracker.Forget,
	})
	return &app{
		cfg:      cfg,
		logger:   logger,
		catalog:  deps.Catalog,
		carts:    carts,
		splash:   tracker,
		handoff:  svc,
		bundle:   deps.Bundle,
		sessions: mw.NewSessions(mw.SessionOptions{
			SigningKey: cfg.Session.SigningKey,
			Secure:     cfg.Session.Secure,
			Logger:     logger,
		}),
		views:     views,
		analytics: handlers.AnalyticsFromConfig(cfg.Analytics),
	}, nil
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chimw.RealIP)
	r.Use(observability.InjectLogger(a.logger))
	r.Use(observability.Trace)
	r.Use(observability.RequestLogger)
	r.Use(observability.Recovery(a.logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(a.cfg.Server.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	assets := os.DirFS(filepath.Join(a.cfg.Paths.PublicDir, "assets"))
	r.Handle("/assets/*", http.StripPrefix("/assets", mw.AssetsWithCache(assets, a.cfg.DevMode)))

	r.Group(func(r chi.Router) {
		r.Use(mw.HTMX)
		r.Use(a.sessions.Middleware)
		r.Use(mw.Locale(a.bundle))
		r.Use(mw.CSRF(a.sessions.Secure()))
		r.Use(mw.VaryLocale)

		r.Get("/", a.HomeHandler)
		r.Get("/products/{id}", a.ProductHandler)
		r.Post("/products/{id}/buy", a.BuyNowHandler)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", a.CartHandler)
			r.Get("/table", a.CartTableFrag)
			r.Post("/items", a.CartAddHandler)
			r.Post("/items/{id}/increase", a.CartIncreaseHandler)
			r.Post("/items/{id}/decrease", a.CartDecreaseHandler)
			r.Post("/items/{id}/remove", a.CartRemoveHandler)
			r.Post("/clear", a.CartClearHandler)
			r.Post("/checkout", a.CheckoutHandler)
		})
	})
	return r
}

// basePage fills the layout fields every page shares.
func (a *app) basePage(r *http.Request, titleKey, descKey string) handlers.PageData {
	lang := mw.Lang(r)
	brand := a.bundle.T(lang, "brand.name")
	title := a.bundle.T(lang, titleKey)

	vm := handlers.PageData{
		Title:       title,
		Lang:        lang,
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path),
		Breadcrumbs: nav.Breadcrumbs(r.URL.Path, ""),
		Analytics:   a.analytics,
		CSRFToken:   mw.CSRFToken(r),
		CartCount:   a.cartFor(r).Snapshot().Count,
	}
	vm.SEO.Title = title + " | " + brand
	if title == brand {
		vm.SEO.Title = brand
	}
	vm.SEO.Description = a.bundle.T(lang, descKey)
	vm.SEO.Canonical = absoluteURL(r)
	vm.SEO.OG.URL = vm.SEO.Canonical
	vm.SEO.OG.SiteName = brand
	vm.SEO.OG.Title = vm.SEO.Title
	vm.SEO.OG.Description = vm.SEO.Description
	vm.SEO.OG.Type = "website"
	vm.SEO.Twitter.Card = "summary_large_image"
	for _, l := range a.bundle.Supported() {
		vm.SEO.Alternates = append(vm.SEO.Alternates, seo.Alternate{Href: vm.SEO.Canonical + "?hl=" + l, Hreflang: l})
	}
	return vm
}

func (a *app) cartFor(r *http.Request) *cart.Store {
	return a.carts.Store(mw.GetSession(r).ID)
}

// absoluteURL rebuilds the request URL without its query string.
func absoluteURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}

// backTo returns a same-origin path to redirect to after a form post,
// preferring the Referer and falling back to fallback.
func backTo(r *http.Request, fallback string) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || !strings.HasPrefix(u.Path, "/") {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
