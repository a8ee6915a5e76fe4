package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kingshipwears/storefront/internal/catalog"
	"github.com/kingshipwears/storefront/internal/config"
	"github.com/kingshipwears/storefront/internal/i18n"
	mw "github.com/kingshipwears/storefront/internal/middleware"
	"github.com/kingshipwears/storefront/internal/testutil"
)

// newTestApp builds the full router against the repository templates and
// locales. extra overrides configuration values.
func newTestApp(t *testing.T, extra map[string]string) (*app, *httptest.Server) {
	t.Helper()

	values := map[string]string{
		"KINGSHIP_DEV_MODE":        "true",
		"KINGSHIP_TEMPLATES_DIR":   "../../templates",
		"KINGSHIP_PUBLIC_DIR":      "../../public",
		"KINGSHIP_LOCALES_DIR":     "../../locales",
		"KINGSHIP_SPLASH_DURATION": "1h",
	}
	for k, v := range extra {
		values[k] = v
	}
	cfg, err := config.Load(config.WithoutSystemEnv(), config.WithEnvFile(""), config.WithEnvMap(values))
	require.NoError(t, err)

	products, err := catalog.Default()
	require.NoError(t, err)
	bundle, err := i18n.LoadDir(cfg.Paths.LocalesDir, "en", supportedLocales)
	require.NoError(t, err)

	a, err := newApp(cfg, appDeps{Logger: zaptest.NewLogger(t), Catalog: products, Bundle: bundle})
	require.NoError(t, err)

	srv := httptest.NewServer(a.routes())
	t.Cleanup(func() {
		srv.Close()
		a.splash.StopAll()
	})
	return a, srv
}

// browser is a cookie-carrying client that does not follow redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(req *http.Request) (*http.Response, []byte) {
	b.t.Helper()
	res, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(b.t, err)
	return res, body
}

func (b *browser) get(path string) (*http.Response, []byte) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	req.Header.Set("Accept-Language", "en")
	return b.do(req)
}

func (b *browser) csrf() string {
	b.t.Helper()
	u, err := url.Parse(b.base)
	require.NoError(b.t, err)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == mw.CSRFCookieName {
			return c.Value
		}
	}
	b.t.Fatalf("no %s cookie; load a page first", mw.CSRFCookieName)
	return ""
}

// post submits form values, as htmx when htmx is set.
func (b *browser) post(path string, form url.Values, htmx bool) (*http.Response, []byte) {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if !htmx {
		form.Set(mw.CSRFFormField, b.csrf())
	}
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept-Language", "en")
	if htmx {
		req.Header.Set("HX-Request", "true")
		req.Header.Set(mw.CSRFHeader, b.csrf())
	}
	return b.do(req)
}

func (b *browser) add(id string) {
	b.t.Helper()
	res, _ := b.post("/cart/items", url.Values{"product_id": {id}}, true)
	require.Equal(b.t, http.StatusOK, res.StatusCode)
}

func triggerDetail(t *testing.T, res *http.Response, event string) map[string]any {
	t.Helper()
	raw := res.Header.Get("HX-Trigger")
	require.NotEmpty(t, raw, "expected HX-Trigger header")
	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	detail, ok := payload[event]
	require.True(t, ok, "HX-Trigger %s lacks %s", raw, event)
	return detail
}

func TestHealthzOK(t *testing.T) {
	_, srv := newTestApp(t, nil)
	res, body := newBrowser(t, srv).get("/healthz")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "ok", strings.TrimSpace(string(body)))
}

func TestHomeListsCatalogWithSplash(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)

	res, body := b.get("/")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, res.Header.Values("Vary"), "HX-Request")

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 8, doc.Find(".product-card").Length())
	require.Equal(t, "Kingship Unfazed (Red)", testutil.Text(doc, ".product-card .product-name"))
	require.Equal(t, "₦23,000", testutil.Text(doc, ".product-card .product-price"))
	require.Equal(t, 1, doc.Find("#splash").Length(), "first visit shows the splash")
	require.Equal(t, 2, doc.Find(`script[type="application/ld+json"]`).Length())
	require.Equal(t, "Shop", testutil.Text(doc, "header nav a.active"))
	_, hidden := doc.Find("#cart-count").Attr("hidden")
	require.True(t, hidden, "badge hidden while cart is empty")

	require.Equal(t, "Welcome to KINGSHIP 👑", testutil.Text(doc, ".hero h1"))
	require.Equal(t, "About Us", testutil.Text(doc, ".about h2"))
	require.Contains(t, testutil.Text(doc, ".about p"), "KINGSHIP is more than a brand")

	require.Equal(t, 1, doc.Find("#handoff").Length())
	buy := doc.Find(`.product-card form[action$="/buy"]`)
	require.Equal(t, 8, buy.Length())
	require.Equal(t, "/products/1/buy", buy.First().AttrOr("hx-post", ""))
	require.Equal(t, "#handoff", buy.First().AttrOr("hx-target", ""))
}

func TestHomeBuyNowFillsHandoffTarget(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)
	_, body := b.get("/")
	action := testutil.ParseHTML(t, body).Find(`.product-card form[action$="/buy"]`).Eq(3).AttrOr("action", "")
	require.Equal(t, "/products/4/buy", action)

	res, body := b.post(action, nil, true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	link, _ := triggerDetail(t, res, "handoff:open")["url"].(string)
	require.True(t, strings.HasPrefix(link, "https://wa.me/"), link)

	// the notice stays hidden until the script sees the popup blocked
	frag := testutil.ParseHTML(t, body).Find(".handoff")
	require.Equal(t, 1, frag.Length())
	_, hidden := frag.Attr("hidden")
	require.True(t, hidden)
}

func TestHandoffScriptDetectsBlockedPopup(t *testing.T) {
	_, srv := newTestApp(t, nil)
	res, body := newBrowser(t, srv).get("/assets/js/app.js")
	require.Equal(t, http.StatusOK, res.StatusCode)

	js := string(body)
	require.Contains(t, js, `window.open(url, "_blank")`)
	require.NotRegexp(t, `window\.open\([^)]*noopener`, js, "noopener makes window.open return null")
	require.Contains(t, js, "win.opener = null")
}

func TestSplashGivesWayToCatalog(t *testing.T) {
	a, srv := newTestApp(t, map[string]string{"KINGSHIP_SPLASH_DURATION": "20ms"})
	b := newBrowser(t, srv)

	_, body := b.get("/")
	require.Equal(t, 1, testutil.ParseHTML(t, body).Find("#splash").Length())
	require.Equal(t, 1, a.splash.Len())

	require.Eventually(t, func() bool {
		_, body := b.get("/")
		return testutil.ParseHTML(t, body).Find("#splash").Length() == 0
	}, 2*time.Second, 20*time.Millisecond)

	// a fresh visitor still gets the splash
	_, body = newBrowser(t, srv).get("/")
	require.Equal(t, 1, testutil.ParseHTML(t, body).Find("#splash").Length())
}

func TestProductPage(t *testing.T) {
	_, srv := newTestApp(t, nil)
	res, body := newBrowser(t, srv).get("/products/3")
	require.Equal(t, http.StatusOK, res.StatusCode)

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "Kingship T-Shirt", testutil.Text(doc, ".product-detail h1"))
	require.Equal(t, "₦25,000", testutil.Text(doc, ".product-detail .product-price"))
	require.Equal(t, "Kingship T-Shirt", testutil.Text(doc, ".breadcrumbs [aria-current]"))
	require.Equal(t, 1, doc.Find(`form[action="/products/3/buy"]`).Length())
	require.Equal(t, "product", doc.Find(`meta[property="og:type"]`).AttrOr("content", ""))
}

func TestProductPageErrors(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)

	res, _ := b.get("/products/7")
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = b.get("/products/abc")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestAddToCartReturnsFragmentAndCount(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)
	b.get("/")

	res, body := b.post("/cart/items", url.Values{"product_id": {"1"}}, true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.EqualValues(t, 1, triggerDetail(t, res, cartUpdatedEvent)["count"])

	res, body = b.post("/cart/items", url.Values{"product_id": {"1"}}, true)
	require.EqualValues(t, 2, triggerDetail(t, res, cartUpdatedEvent)["count"])

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, 1, doc.Find("#cart-table tbody tr").Length(), "duplicate add bumps the line")
	require.Equal(t, "2", testutil.Text(doc, `tr[data-product-id="1"] .qty`))
	require.Equal(t, "₦46,000", testutil.Text(doc, "#cart-total"))

	_, body = b.get("/")
	require.Equal(t, "2", testutil.Text(testutil.ParseHTML(t, body), "#cart-count"))
}

func TestAddToCartRejectsUnknownProducts(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)
	b.get("/")

	res, _ := b.post("/cart/items", url.Values{"product_id": {"7"}}, true)
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = b.post("/cart/items", url.Values{"product_id": {"x"}}, true)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Empty(t, res.Header.Get("HX-Trigger"))
}

func TestCartMutations(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)
	b.get("/")
	b.add("1")
	b.add("3")
	b.add("3")

	res, body := b.post("/cart/items/3/decrease", nil, true)
	require.EqualValues(t, 2, triggerDetail(t, res, cartUpdatedEvent)["count"])
	require.Equal(t, "1", testutil.Text(testutil.ParseHTML(t, body), `tr[data-product-id="3"] .qty`))

	res, body = b.post("/cart/items/3/decrease", nil, true)
	require.EqualValues(t, 1, triggerDetail(t, res, cartUpdatedEvent)["count"])
	require.Equal(t, 0, testutil.ParseHTML(t, body).Find(`tr[data-product-id="3"]`).Length(), "decrease at one removes the line")

	res, _ = b.post("/cart/items/1/increase", nil, true)
	require.EqualValues(t, 2, triggerDetail(t, res, cartUpdatedEvent)["count"])

	// ids not in the cart leave it untouched
	res, _ = b.post("/cart/items/9/increase", nil, true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.EqualValues(t, 2, triggerDetail(t, res, cartUpdatedEvent)["count"])

	res, _ = b.post("/cart/items/1/remove", nil, true)
	require.EqualValues(t, 0, triggerDetail(t, res, cartUpdatedEvent)["count"])

	b.add("5")
	res, body = b.post("/cart/clear", nil, true)
	require.EqualValues(t, 0, triggerDetail(t, res, cartUpdatedEvent)["count"])
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "Your cart is empty.", testutil.Text(doc, ".cart-empty p"))
	require.Equal(t, "/", doc.Find(".cart-empty a").AttrOr("href", ""))
}

func TestCartPageEmptyState(t *testing.T) {
	_, srv := newTestApp(t, nil)
	res, body := newBrowser(t, srv).get("/cart")
	require.Equal(t, http.StatusOK, res.StatusCode)

	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "Your cart is empty.", testutil.Text(doc, ".cart-empty p"))
	require.Equal(t, "Go back", testutil.Text(doc, ".cart-empty a"))
	require.Equal(t, 0, doc.Find("#checkout").Length())
	require.Equal(t, "noindex", doc.Find(`meta[name="robots"]`).AttrOr("content", ""))
}

func TestPlainFormPostRedirectsBack(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)
	b.get("/products/4")

	res, _ := b.post("/cart/items", url.Values{"product_id": {"4"}}, false)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, "/cart", res.Header.Get("Location"))

	_, body := b.get("/cart")
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "Born To Rule", testutil.Text(doc, `tr[data-product-id="4"] .cart-product a`))
	require.Equal(t, "₦15,000", testutil.Text(doc, "#cart-total"))
}

func TestCSRFRequired(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)
	b.get("/")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/cart/items", strings.NewReader("product_id=1"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	res, _ := b.do(req)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	_, body := b.get("/cart")
	require.Equal(t, 1, testutil.ParseHTML(t, body).Find(".cart-empty").Length())
}

func TestCheckoutEmptyCartOpensNothing(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)
	b.get("/cart")

	res, body := b.post("/cart/checkout", nil, true)
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Empty(t, res.Header.Get("HX-Trigger"))
	require.Empty(t, body)

	res, _ = b.post("/cart/checkout", nil, false)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, "/cart", res.Header.Get("Location"))
}

func TestCheckoutHandsOffToWhatsApp(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)
	b.get("/cart")
	b.add("1")
	b.add("1")
	b.add("5")

	res, body := b.post("/cart/checkout", nil, true)
	require.Equal(t, http.StatusOK, res.StatusCode)

	link, ok := triggerDetail(t, res, "handoff:open")["url"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(link, "https://wa.me/2348146240786?text="), link)
	require.NotContains(t, link, " ")

	u, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t,
		"Hello 👑, I’d like to order:\n\nKingship Unfazed (Red) (x2) - ₦46,000\nPink Crop Top (x1) - ₦13,000\n\nTOTAL: ₦59,000",
		u.Query().Get("text"))

	// the fallback link carries the same order
	fallback, err := url.Parse(testutil.ParseHTML(t, body).Find(".handoff a").AttrOr("href", ""))
	require.NoError(t, err)
	require.Equal(t, "wa.me", fallback.Host)
	require.Equal(t, u.Query().Get("text"), fallback.Query().Get("text"))

	// the cart survives the handoff
	_, body = b.get("/cart")
	require.Equal(t, 2, testutil.ParseHTML(t, body).Find("#cart-table tbody tr").Length())

	res, _ = b.post("/cart/checkout", nil, false)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Equal(t, link, res.Header.Get("Location"))
}

func TestBuyNowHandsOffSingleProduct(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)
	b.get("/products/2")

	res, body := b.post("/products/2/buy", nil, true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	_, hidden := testutil.ParseHTML(t, body).Find(".handoff").Attr("hidden")
	require.True(t, hidden, "blocked notice ships hidden")
	link, _ := triggerDetail(t, res, "handoff:open")["url"].(string)
	u, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t, "Hello 👑, I want to buy the Kingship Unfazed (Blue) for ₦23,000", u.Query().Get("text"))

	res, _ = b.post("/products/99/buy", nil, true)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestLocaleFromQueryAndCookie(t *testing.T) {
	_, srv := newTestApp(t, nil)
	b := newBrowser(t, srv)

	res, body := b.get("/cart?hl=yo")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "yo", res.Header.Get("Content-Language"))
	doc := testutil.ParseHTML(t, body)
	require.Equal(t, "Àpò Rẹ", testutil.Text(doc, ".cart h1"))
	require.Equal(t, "yo", doc.Find("html").AttrOr("lang", ""))

	// the choice sticks to the session
	res, _ = b.get("/cart")
	require.Equal(t, "yo", res.Header.Get("Content-Language"))

	res, _ = newBrowser(t, srv).get("/cart?hl=fr")
	require.Equal(t, "en", res.Header.Get("Content-Language"), "unsupported hl falls through to Accept-Language")
}
