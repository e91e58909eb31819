package middleware

import (
	"context"
	"net/http"
	"strings"
)

// CountryLookup resolves an ISO country code for an IP address.
type CountryLookup func(ip string) (string, error)

var countryHeaders = []string{"CF-IPCountry", "X-Country-Code", "X-Appengine-Country"}

// Country stores the caller's country in the request context. Edge proxy
// headers win over the lookup; "XX" and "T1" placeholders are ignored.
func Country(lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if country := ResolveCountry(r, lookup); country != "" {
				r = r.WithContext(context.WithValue(r.Context(), countryKey, country))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ResolveCountry returns a best-effort upper-case country code, or "".
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range countryHeaders {
		if val := normalizeCountry(r.Header.Get(key)); val != "" {
			return val
		}
	}
	if lookup == nil {
		return ""
	}
	ip := clientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return normalizeCountry(country)
}

func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryKey).(string); ok {
		return v
	}
	return ""
}

func normalizeCountry(v string) string {
	v = strings.ToUpper(strings.TrimSpace(v))
	if len(v) != 2 || v == "XX" || v == "T1" {
		return ""
	}
	return v
}
