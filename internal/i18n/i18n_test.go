package i18n

import (
	"testing"
	"testing/fstest"
)

func TestResolveHonorsQValues(t *testing.T) {
	b, err := LoadDir("../../locales", "en", []string{"en", "yo"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.Resolve("en;q=0.8, yo;q=0.9"); got != "yo" {
		t.Fatalf("expected yo, got %s", got)
	}
	if got := b.Resolve("en-NG,en;q=0.9"); got != "en" {
		t.Fatalf("expected en for regional English, got %s", got)
	}
	if got := b.Resolve("ja"); got != "en" {
		t.Fatalf("expected fallback en, got %s", got)
	}
	if got := b.Resolve(""); got != "en" {
		t.Fatalf("expected fallback for empty header, got %s", got)
	}
}

func TestTFallsBackKeyByKey(t *testing.T) {
	fsys := fstest.MapFS{
		"l/en.json": {Data: []byte(`{"cart.title":"Your Cart","cart.empty":"Your cart is empty."}`)},
		"l/yo.json": {Data: []byte(`{"cart.title":"Àpò Rẹ"}`)},
	}
	b, err := Load(fsys, "l", "en", []string{"yo", "fr"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.T("yo", "cart.title"); got != "Àpò Rẹ" {
		t.Fatalf("unexpected yo title %q", got)
	}
	if got := b.T("yo", "cart.empty"); got != "Your cart is empty." {
		t.Fatalf("expected en fallback, got %q", got)
	}
	if got := b.T("en", "missing.key"); got != "missing.key" {
		t.Fatalf("expected key echo, got %q", got)
	}
	if b.IsSupported("fr") {
		t.Fatalf("fr has no dictionary and should not be supported")
	}
	if s := b.Supported(); len(s) != 2 || s[0] != "en" || s[1] != "yo" {
		t.Fatalf("unexpected supported list %v", s)
	}
}

func TestLoadRequiresFallbackDictionary(t *testing.T) {
	fsys := fstest.MapFS{"l/yo.json": {Data: []byte(`{}`)}}
	if _, err := Load(fsys, "l", "en", []string{"yo"}); err == nil {
		t.Fatal("expected error when fallback dictionary is missing")
	}
}
