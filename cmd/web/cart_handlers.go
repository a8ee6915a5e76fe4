package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/kingshipwears/storefront/internal/cart"
	"github.com/kingshipwears/storefront/internal/catalog"
	"github.com/kingshipwears/storefront/internal/handoff"
	mw "github.com/kingshipwears/storefront/internal/middleware"
	"github.com/kingshipwears/storefront/internal/observability"
)

const cartUpdatedEvent = "cart:updated"

// CartHandler renders the cart page.
func (a *app) CartHandler(w http.ResponseWriter, r *http.Request) {
	vm := a.basePage(r, "cart.title", "cart.description")
	vm.SEO.Robots = "noindex"
	vm.Cart = buildCartView(a.cartFor(r).Snapshot(), vm.Lang, vm.CSRFToken)
	a.views.page(w, r, "cart", vm)
}

// CartTableFrag renders the line items table fragment.
func (a *app) CartTableFrag(w http.ResponseWriter, r *http.Request) {
	view := buildCartView(a.cartFor(r).Snapshot(), mw.Lang(r), mw.CSRFToken(r))
	a.views.fragment(w, r, "frag_cart_table", view)
}

// CartAddHandler adds the product named by the product_id form field.
func (a *app) CartAddHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r.PostFormValue("product_id"))
	if err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.catalog.Get(id)
	if err != nil {
		if catalog.IsNotFound(err) {
			mw.WriteError(w, r, http.StatusNotFound, "product not found")
			return
		}
		mw.WriteError(w, r, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	a.mutateCart(w, r, "add", func(s *cart.Store) { s.Add(p) })
}

// CartIncreaseHandler adds one to an existing line.
func (a *app) CartIncreaseHandler(w http.ResponseWriter, r *http.Request) {
	a.mutateLine(w, r, "increase", (*cart.Store).Increase)
}

// CartDecreaseHandler removes one from a line, dropping it at zero.
func (a *app) CartDecreaseHandler(w http.ResponseWriter, r *http.Request) {
	a.mutateLine(w, r, "decrease", (*cart.Store).Decrease)
}

// CartRemoveHandler drops a line regardless of quantity.
func (a *app) CartRemoveHandler(w http.ResponseWriter, r *http.Request) {
	a.mutateLine(w, r, "remove", (*cart.Store).Remove)
}

// CartClearHandler empties the cart.
func (a *app) CartClearHandler(w http.ResponseWriter, r *http.Request) {
	a.mutateCart(w, r, "clear", (*cart.Store).Clear)
}

// CheckoutHandler composes the WhatsApp order. An empty cart opens nothing.
func (a *app) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	snap := a.cartFor(r).Snapshot()
	h, ok := a.handoff.Checkout(snap)
	if !ok {
		if mw.IsHTMX(r.Context()) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	a.respondHandoff(w, r, h, "checkout", zap.Int("lines", len(snap.Lines)))
}

// mutateLine parses {id} and applies op to the session cart. Ids that are
// well formed but not in the cart are a no-op, not an error.
func (a *app) mutateLine(w http.ResponseWriter, r *http.Request, action string, op func(*cart.Store, int)) {
	id, err := parseProductID(chi.URLParam(r, "id"))
	if err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	a.mutateCart(w, r, action, func(s *cart.Store) { op(s, id) })
}

// mutateCart applies fn and answers with the snapshot the store published
// for it: the table fragment plus a badge event for htmx, a redirect
// back otherwise.
func (a *app) mutateCart(w http.ResponseWriter, r *http.Request, action string, fn func(*cart.Store)) {
	store := a.cartFor(r)
	var snap cart.Snapshot
	unsubscribe := store.Subscribe(func(s cart.Snapshot) { snap = s })
	fn(store)
	unsubscribe()

	observability.FromContext(r.Context()).Debug("cart updated",
		zap.String("action", action),
		zap.Int("count", snap.Count),
		zap.Int64("total", snap.Total),
	)

	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, backTo(r, "/cart"), http.StatusSeeOther)
		return
	}
	mw.Trigger(w, cartUpdatedEvent, map[string]any{"count": snap.Count})
	a.views.fragment(w, r, "frag_cart_table", buildCartView(snap, mw.Lang(r), mw.CSRFToken(r)))
}

// respondHandoff opens the deep link: htmx pages get a fragment and an
// event their script turns into window.open, plain forms a redirect. Each
// handoff is logged under a fresh reference id.
func (a *app) respondHandoff(w http.ResponseWriter, r *http.Request, h handoff.Handoff, kind string, fields ...zap.Field) {
	observability.FromContext(r.Context()).Info("whatsapp handoff", append(fields,
		zap.String("handoff_ref", ulid.Make().String()),
		zap.String("kind", kind),
		zap.Int("items", h.Items),
		zap.Int64("total", h.Total),
	)...)
	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, h.URL, http.StatusSeeOther)
		return
	}
	mw.Trigger(w, "handoff:open", map[string]string{"url": h.URL})
	a.views.fragment(w, r, "frag_handoff", HandoffView{Lang: mw.Lang(r), URL: h.URL})
}
