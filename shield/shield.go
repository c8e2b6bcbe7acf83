// Package shield holds the HTTP middleware every autofill surface sits
// behind: security headers, a request body cap and request tracing.
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack() {
//	    r.Use(mw)
//	}
package shield

import "net/http"

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// DefaultBodyLimit bounds fill requests and profile writes. A request with
// six passengers and a payment block is well under 8 KiB.
const DefaultBodyLimit int64 = 256 << 10

// DefaultStack returns HeadToGet, SecurityHeaders, MaxBody and TraceID in
// that order.
func DefaultStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(DefaultBodyLimit),
		TraceID,
	}
}

// HeadToGet serves HEAD requests with the GET handler. net/http drops the
// body written for a HEAD response.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r = r.Clone(r.Context())
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
