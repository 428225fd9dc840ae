package middleware

import (
	"net/http"
	"strings"
)

// Calculation endpoints take a POST body but never write, so they stay open
// in demo mode.
var demoReadOnlyPosts = []string{
	"/api/finance/",
	"/api/debt/payoff-plan",
	"/api/debt/compare",
	"/api/planning/retirement/projection",
	"/api/planning/retirement/scenarios",
}

// DemoModeMiddleware rejects writes from everyone but super admins. It must
// run after JWTAuthMiddleware so the admin flag is on the context.
func DemoModeMiddleware(isDemo bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isDemo || r.Method == http.MethodGet || IsSuperAdmin(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			if r.Method == http.MethodPost && demoReadOnly(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Demo mode: only GET requests are allowed", http.StatusForbidden)
		})
	}
}

func demoReadOnly(path string) bool {
	for _, p := range demoReadOnlyPosts {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return strings.HasPrefix(path, "/api/planning/goals/") && strings.HasSuffix(path, "/projection")
}
