package middleware

import (
	"net/http"
	"strings"
)

// OriginList is a CORS origin allow-list. The entry "*" allows any origin.
type OriginList struct {
	origins  map[string]bool
	wildcard bool
}

// NewOriginList creates an allow-list from the given origins.
func NewOriginList(origins []string) OriginList {
	list := OriginList{origins: make(map[string]bool, len(origins))}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			list.wildcard = true
			continue
		}
		if origin != "" {
			list.origins[origin] = true
		}
	}
	return list
}

// Allows reports whether a non-empty origin may receive CORS headers.
func (l OriginList) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	return l.wildcard || l.origins[origin]
}

// CORS returns a middleware that applies the allow-list to every request.
// An allowed origin is echoed in Access-Control-Allow-Origin. Preflight
// requests from an allowed origin, or carrying no origin at all, also get
// the allowed methods and headers. The request always reaches the next
// handler; a disallowed origin just gets no CORS headers.
func CORS(allowedOrigins []string, allowedMethods []string, allowedHeaders []string) Middleware {
	origins := NewOriginList(allowedOrigins)
	methodsStr := strings.Join(allowedMethods, ",")
	headersStr := strings.Join(allowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := origins.Allows(origin)

			w.Header().Add("Vary", "Origin")
			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions && (allowed || origin == "") {
				w.Header().Set("Access-Control-Allow-Methods", methodsStr)
				w.Header().Set("Access-Control-Allow-Headers", headersStr)
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			next.ServeHTTP(w, r)
		})
	}
}
