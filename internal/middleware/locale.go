package middleware

import "net/http"

// VaryLocale marks dynamic responses as varying by Accept-Language and
// announces the locale Locale resolved for the session. It must run after
// Locale.
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Add("Vary", "Accept-Language")
		h.Set("Content-Language", Lang(r))
		next.ServeHTTP(w, r)
	})
}
