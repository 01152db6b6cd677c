// Package chrome decides, from the request path alone, which shared page
// chrome the layout renders around page content.
package chrome

import (
	"context"
	"net/http"
	"strings"
)

// Mode is the chrome treatment for a path. Exactly one mode applies per path.
type Mode int

const (
	// Standard renders the shared header and footer.
	Standard Mode = iota
	// Suppressed renders page content without header or footer.
	Suppressed
	// AuthStyled renders the authentication page treatment; header and footer
	// are suppressed as well.
	AuthStyled
)

func (m Mode) String() string {
	switch m {
	case Suppressed:
		return "suppressed"
	case AuthStyled:
		return "auth_styled"
	default:
		return "standard"
	}
}

// ShowHeaderFooter reports whether the shared navigation and footer are rendered.
func (m Mode) ShowHeaderFooter() bool {
	return m == Standard
}

// IsAuthPage reports whether authentication page styling applies.
func (m Mode) IsAuthPage() bool {
	return m == AuthStyled
}

// Rules configures the resolver.
type Rules struct {
	AdminPrefix   string
	AccountPrefix string
	// AuthPaths is a closed list matched by exact equality.
	AuthPaths []string
}

// Resolver classifies raw paths into a Mode.
type Resolver struct {
	adminPrefix   string
	accountPrefix string
	authPaths     map[string]struct{}
}

func NewResolver(rules Rules) *Resolver {
	auth := make(map[string]struct{}, len(rules.AuthPaths))
	for _, p := range rules.AuthPaths {
		auth[p] = struct{}{}
	}

	return &Resolver{
		adminPrefix:   rules.AdminPrefix,
		accountPrefix: rules.AccountPrefix,
		authPaths:     auth,
	}
}

// Resolve classifies rawPath. Rules are evaluated in order and the first
// match wins: admin prefix, account prefix, exact auth path, otherwise Standard.
func (r *Resolver) Resolve(rawPath string) Mode {
	switch {
	case hasPrefix(rawPath, r.adminPrefix):
		return Suppressed
	case hasPrefix(rawPath, r.accountPrefix):
		return Suppressed
	}

	if _, ok := r.authPaths[rawPath]; ok {
		return AuthStyled
	}

	return Standard
}

// an empty prefix would match every path
func hasPrefix(rawPath, prefix string) bool {
	return prefix != "" && strings.HasPrefix(rawPath, prefix)
}

type contextKey string

func (c contextKey) String() string {
	return "storefront/chrome/" + string(c)
}

const ctxKeyMode = contextKey("modeKey")

// ToContext stores the resolved mode for the layout.
func ToContext(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, ctxKeyMode, mode)
}

// FromContext returns the mode stored by Middleware, defaulting to Standard.
func FromContext(ctx context.Context) Mode {
	mode, ok := ctx.Value(ctxKeyMode).(Mode)
	if !ok {
		return Standard
	}
	return mode
}

// Middleware resolves the chrome mode of every request from r.URL.Path.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		mode := r.Resolve(req.URL.Path)
		next.ServeHTTP(w, req.WithContext(ToContext(req.Context(), mode)))
	})
}
