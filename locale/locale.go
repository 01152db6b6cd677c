// Package locale gates country-prefixed route trees on the configured set of
// supported locale tokens.
package locale

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
)

type contextKey string

func (c contextKey) String() string {
	return "storefront/locale/" + string(c)
}

const ctxKeyLocale = contextKey("localeKey")

var (
	// ErrNotFound instructs the rendering host to answer with its standard
	// not found response and stop rendering the attempted route.
	ErrNotFound = errors.New("not found")

	// ErrInvalidLocale is returned for tokens outside the supported set.
	ErrInvalidLocale = fmt.Errorf("invalid locale: %w", ErrNotFound)
)

// Set is an immutable set of locale tokens. Membership is the only
// meaningful operation; tokens are compared byte for byte.
type Set struct {
	tokens map[string]struct{}
}

// NewSet builds a Set, ignoring empty tokens and duplicates.
func NewSet(tokens ...string) Set {
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		m[t] = struct{}{}
	}
	return Set{tokens: m}
}

// Contains reports whether token is a member of the set.
func (s Set) Contains(token string) bool {
	if token == "" {
		return false
	}
	_, ok := s.tokens[token]
	return ok
}

// Len returns the number of tokens in the set.
func (s Set) Len() int {
	return len(s.tokens)
}

// Tokens returns the members in sorted order.
func (s Set) Tokens() []string {
	out := make([]string, 0, len(s.tokens))
	for t := range s.tokens {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Gate validates the locale segment of incoming paths.
type Gate struct {
	supported Set
}

func NewGate(supported Set) *Gate {
	return &Gate{supported: supported}
}

// Supported exposes the set the gate validates against.
func (g *Gate) Supported() Set {
	return g.supported
}

// Validate reports whether token is a supported locale.
func (g *Gate) Validate(token string) bool {
	return g.supported.Contains(token)
}

// Check is Validate expressed as an error for callers that propagate the
// not found outcome.
func (g *Gate) Check(token string) error {
	if !g.Validate(token) {
		return fmt.Errorf("%q: %w", token, ErrInvalidLocale)
	}
	return nil
}

// Guard rejects requests whose path value named param is not a supported
// locale by handing them to notFound; the wrapped handler is never invoked
// for those requests.
func (g *Gate) Guard(param string, notFound http.Handler, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.PathValue(param)
		if !g.Validate(token) {
			notFound.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(ToContext(r.Context(), token)))
	})
}

// ToContext records the validated locale for downstream handlers.
func ToContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyLocale, token)
}

// FromContext returns the validated locale, or "" outside a guarded route.
func FromContext(ctx context.Context) string {
	token, ok := ctx.Value(ctxKeyLocale).(string)
	if !ok {
		return ""
	}
	return token
}
