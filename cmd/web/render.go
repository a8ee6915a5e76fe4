package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kingshipwears/storefront/internal/format"
	"github.com/kingshipwears/storefront/internal/i18n"
	"github.com/kingshipwears/storefront/internal/observability"
)

// templateSet holds one clone of the shared layout per page plus the shared
// set used for fragments. Pages each define "content", so they cannot share
// a single tree.
type templateSet struct {
	shared *template.Template
	pages  map[string]*template.Template
}

// renderer parses templates from dir. In dev mode they are reparsed on
// every render so edits show up without a restart.
type renderer struct {
	dir     string
	devMode bool
	bundle  *i18n.Bundle
	cache   *templateSet
}

func newRenderer(dir string, devMode bool, bundle *i18n.Bundle) (*renderer, error) {
	rd := &renderer{dir: dir, devMode: devMode, bundle: bundle}
	set, err := rd.parse()
	if err != nil {
		return nil, err
	}
	rd.cache = set
	return rd, nil
}

func (rd *renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"now": time.Now,
		"t": func(lang, key string) string {
			return rd.bundle.T(lang, key)
		},
		"naira": func(amount int64, lang string) string {
			return format.Naira(amount, lang)
		},
		"jsonld": func(v string) template.JS {
			return template.JS(v)
		},
		"dict": dict,
	}
}

// dict builds a map from alternating key/value arguments so a template can
// pass more than one value to a nested template.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func (rd *renderer) parse() (*templateSet, error) {
	var shared, pages []string
	if err := filepath.WalkDir(rd.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmpl") {
			return nil
		}
		rel, _ := filepath.Rel(rd.dir, path)
		if strings.HasPrefix(filepath.ToSlash(rel), "pages/") {
			pages = append(pages, path)
		} else {
			shared = append(shared, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(shared) == 0 || len(pages) == 0 {
		return nil, fmt.Errorf("no templates found under %s", rd.dir)
	}

	base, err := template.New("_root").Funcs(rd.funcs()).ParseFiles(shared...)
	if err != nil {
		return nil, err
	}
	set := &templateSet{shared: base, pages: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFiles(p); err != nil {
			return nil, err
		}
		set.pages[strings.TrimSuffix(filepath.Base(p), ".tmpl")] = clone
	}
	return set, nil
}

func (rd *renderer) templates() (*templateSet, error) {
	if rd.devMode {
		return rd.parse()
	}
	if rd.cache == nil {
		return nil, fmt.Errorf("templates not initialized")
	}
	return rd.cache, nil
}

// page executes the base layout with the named page's content.
func (rd *renderer) page(w http.ResponseWriter, r *http.Request, name string, data any) {
	set, err := rd.templates()
	if err != nil {
		rd.fail(w, r, "template parse error", err)
		return
	}
	t, ok := set.pages[name]
	if !ok {
		rd.fail(w, r, "unknown page", fmt.Errorf("page %q", name))
		return
	}
	rd.execute(w, r, t, "base", data)
}

// fragment executes a shared template by name, for htmx swaps.
func (rd *renderer) fragment(w http.ResponseWriter, r *http.Request, name string, data any) {
	set, err := rd.templates()
	if err != nil {
		rd.fail(w, r, "template parse error", err)
		return
	}
	rd.execute(w, r, set.shared, name, data)
}

func (rd *renderer) execute(w http.ResponseWriter, r *http.Request, t *template.Template, name string, data any) {
	// buffer so a failing template does not leave a half-written 200
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		rd.fail(w, r, "template exec error", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (rd *renderer) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	observability.FromContext(r.Context()).Error(msg, zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
