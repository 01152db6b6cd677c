// Package seo resolves the head metadata (title, description, canonical URL
// and Open Graph tags) for every storefront route.
package seo

import (
	"path"
	"strings"
)

type OpenGraph struct {
	Title       string
	Description string
	URL         string
	Type        string
	SiteName    string
}

// PageMetadata is the record injected into the document head of a route.
type PageMetadata struct {
	Title        string
	Description  string
	CanonicalURL string
	OpenGraph    *OpenGraph
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (m PageMetadata) Clone() PageMetadata {
	if m.OpenGraph != nil {
		og := *m.OpenGraph
		m.OpenGraph = &og
	}
	return m
}

// CanonicalURL joins origin and routePath into the single absolute URL a
// route is indexed under. Query strings, fragments, duplicate slashes and
// trailing slashes are dropped; the root route keeps its single "/".
func CanonicalURL(origin, routePath string) string {
	return strings.TrimRight(origin, "/") + CleanPath(routePath)
}

// CleanPath normalises a route path to its canonical form.
func CleanPath(routePath string) string {
	if i := strings.IndexAny(routePath, "?#"); i >= 0 {
		routePath = routePath[:i]
	}
	return path.Clean("/" + routePath)
}
