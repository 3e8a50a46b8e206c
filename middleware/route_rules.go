package middleware

import (
	"sort"
	"strings"
	"sync"

	"identity-service/domain"
)

// RouteRule binds one route to the (module, action) pair a caller must hold.
// Path is the gin route pattern, e.g. "/api/v1/auth/roles/:id".
type RouteRule struct {
	Method   string
	Path     string
	ModuleID string
	Action   domain.Action

	// AllowAnonymous lets requests without a token through this route
	// whatever the service wide missing credential policy says.
	AllowAnonymous bool

	// AuthenticateOnly requires a valid token but no grant.
	AuthenticateOnly bool
}

func (r RouteRule) key() string {
	return routeKey(r.Method, r.Path)
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// RouteRules is the registry the authorizer consults. Routes that are not
// registered are not checked.
type RouteRules struct {
	mu    sync.RWMutex
	rules map[string]RouteRule
}

func NewRouteRules(rules ...RouteRule) *RouteRules {
	r := &RouteRules{rules: make(map[string]RouteRule)}
	r.Register(rules...)
	return r
}

// Register adds rules, replacing any rule already bound to the same route.
func (r *RouteRules) Register(rules ...RouteRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range rules {
		r.rules[rule.key()] = rule
	}
}

func (r *RouteRules) Lookup(method, path string) (RouteRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[routeKey(method, path)]
	return rule, ok
}

// All returns the registered rules ordered by path then method.
func (r *RouteRules) All() []RouteRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RouteRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}
