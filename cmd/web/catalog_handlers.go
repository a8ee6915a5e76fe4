package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kingshipwears/storefront/internal/catalog"
	mw "github.com/kingshipwears/storefront/internal/middleware"
	"github.com/kingshipwears/storefront/internal/nav"
	"github.com/kingshipwears/storefront/internal/seo"
	"github.com/kingshipwears/storefront/internal/splash"
)

var errBadProductID = errors.New("product id must be a positive integer")

// HomeHandler renders the catalog, with the splash overlay while the
// session's splash sequence is still running.
func (a *app) HomeHandler(w http.ResponseWriter, r *http.Request) {
	vm := a.basePage(r, "home.title", "home.description")
	products := a.catalog.All()
	vm.Catalog = buildCatalogView(products, vm.Lang, vm.CSRFToken)

	seq := a.splash.Sequence(mw.GetSession(r).ID)
	if seq.State() == splash.StateSplash {
		vm.Splash.Show = true
		vm.Splash.RemainingMS = seq.Remaining().Milliseconds()
	}

	base := strings.TrimSuffix(vm.SEO.Canonical, r.URL.Path)
	urls := make([]string, 0, len(products))
	for _, p := range products {
		urls = append(urls, base+productHref(p.ID))
	}
	vm.SEO.JSONLD = []string{
		seo.JSON(seo.Organization(a.bundle.T(vm.Lang, "brand.name"), base+"/", "")),
		seo.JSON(seo.ItemList(urls)),
	}
	if len(products) > 0 {
		vm.SEO.OG.Image = base + products[0].Cover()
	}
	a.views.page(w, r, "home", vm)
}

// ProductHandler renders one product with every image and its description.
func (a *app) ProductHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := a.productFromPath(w, r)
	if !ok {
		return
	}
	vm := a.basePage(r, "product.title", "product.description")
	vm.Title = p.Name
	vm.SEO.Title = p.Name + " | " + a.bundle.T(vm.Lang, "brand.name")
	vm.SEO.OG.Title = vm.SEO.Title
	vm.SEO.OG.Type = "product"
	vm.Breadcrumbs = nav.Breadcrumbs(r.URL.Path, p.Name)

	base := strings.TrimSuffix(vm.SEO.Canonical, r.URL.Path)
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, base+img)
	}
	if len(images) > 0 {
		vm.SEO.OG.Image = images[0]
		vm.SEO.Twitter.Image = images[0]
	}
	vm.SEO.JSONLD = []string{seo.JSON(seo.Product(seo.ProductInput{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		URL:         vm.SEO.Canonical,
		Images:      images,
		Price:       p.Price,
	}))}

	vm.Product = ProductView{
		Lang:      vm.Lang,
		CSRFToken: vm.CSRFToken,
		Product:   buildProductCard(p, vm.Lang),
		InCart:    a.cartFor(r).Snapshot().Quantity(p.ID),
	}
	a.views.page(w, r, "product", vm)
}

// BuyNowHandler hands a single product straight to WhatsApp.
func (a *app) BuyNowHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := a.productFromPath(w, r)
	if !ok {
		return
	}
	a.respondHandoff(w, r, a.handoff.BuyNow(p), "buy_now", zap.Int("product_id", p.ID))
}

// productFromPath resolves {id}, answering 400 or 404 itself when it cannot.
func (a *app) productFromPath(w http.ResponseWriter, r *http.Request) (catalog.Product, bool) {
	id, err := parseProductID(chi.URLParam(r, "id"))
	if err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, err.Error())
		return catalog.Product{}, false
	}
	p, err := a.catalog.Get(id)
	if err != nil {
		if catalog.IsNotFound(err) {
			mw.WriteError(w, r, http.StatusNotFound, "product not found")
			return catalog.Product{}, false
		}
		mw.WriteError(w, r, http.StatusInternalServerError, "catalog unavailable")
		return catalog.Product{}, false
	}
	return p, true
}

func parseProductID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, errBadProductID
	}
	return id, nil
}
