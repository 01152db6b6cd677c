package seo

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	featureIdentifierCount = 4
	defaultOpenGraphType   = "website"
	namePlaceholder        = "{name}"
)

var (
	// ErrUnknownIdentifier is returned when a parameterized route is asked for
	// an identifier outside its static set. Hosts answer it with not found.
	ErrUnknownIdentifier = errors.New("unknown static identifier")

	ErrInvalidCatalog = errors.New("invalid route catalog")
)

//go:embed routes.yaml
var defaultCatalog []byte

type catalogEntry struct {
	Path          string `yaml:"path"`
	Slug          string `yaml:"slug"`
	Name          string `yaml:"name"`
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	OGTitle       string `yaml:"og_title"`
	OGDescription string `yaml:"og_description"`
	OGURL         string `yaml:"og_url"`
	OGType        string `yaml:"og_type"`
	NoOpenGraph   bool   `yaml:"no_open_graph"`
}

type catalogFile struct {
	SiteName string         `yaml:"site_name"`
	Routes   []catalogEntry `yaml:"routes"`
	Features struct {
		Prefix      string         `yaml:"prefix"`
		Title       string         `yaml:"title"`
		Description string         `yaml:"description"`
		Items       []catalogEntry `yaml:"items"`
	} `yaml:"features"`
	Storefronts struct {
		Title       string            `yaml:"title"`
		Description string            `yaml:"description"`
		Names       map[string]string `yaml:"names"`
	} `yaml:"storefronts"`
}

// Registry maps every statically known route to its immutable metadata.
// It is built once at startup and is safe for concurrent use.
type Registry struct {
	origin   string
	siteName string

	static map[string]PageMetadata
	order  []string

	features *ParamRoute

	storefrontTitle       string
	storefrontDescription string
	storefrontNames       map[string]string
}

// NewRegistry builds the registry from the embedded route catalog.
func NewRegistry(origin string) (*Registry, error) {
	return LoadRegistry(origin, defaultCatalog)
}

// LoadRegistry builds a registry from a YAML route catalog.
func LoadRegistry(origin string, catalog []byte) (*Registry, error) {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if !strings.Contains(origin, "://") {
		return nil, fmt.Errorf("%w: origin %q is not absolute", ErrInvalidCatalog, origin)
	}

	var file catalogFile
	if err := yaml.Unmarshal(catalog, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	r := &Registry{
		origin:                origin,
		siteName:              file.SiteName,
		static:                make(map[string]PageMetadata, len(file.Routes)),
		storefrontTitle:       file.Storefronts.Title,
		storefrontDescription: file.Storefronts.Description,
		storefrontNames:       file.Storefronts.Names,
	}

	for _, e := range file.Routes {
		if err := r.addStatic(e); err != nil {
			return nil, err
		}
	}

	features, err := r.buildFeatures(&file)
	if err != nil {
		return nil, err
	}
	r.features = features

	return r, nil
}

func (r *Registry) addStatic(e catalogEntry) error {
	if !strings.HasPrefix(e.Path, "/") {
		return fmt.Errorf("%w: route path %q must be absolute", ErrInvalidCatalog, e.Path)
	}
	if CleanPath(e.Path) != e.Path {
		return fmt.Errorf("%w: route path %q is not canonical", ErrInvalidCatalog, e.Path)
	}
	if _, exists := r.static[e.Path]; exists {
		return fmt.Errorf("%w: duplicate route %q", ErrInvalidCatalog, e.Path)
	}
	if e.Title == "" || e.Description == "" {
		return fmt.Errorf("%w: route %q needs a title and description", ErrInvalidCatalog, e.Path)
	}

	r.static[e.Path] = r.build(e.Path, e)
	r.order = append(r.order, e.Path)
	return nil
}

func (r *Registry) buildFeatures(file *catalogFile) (*ParamRoute, error) {
	f := file.Features
	if len(f.Items) != featureIdentifierCount {
		return nil, fmt.Errorf("%w: feature route needs %d identifiers, found %d",
			ErrInvalidCatalog, featureIdentifierCount, len(f.Items))
	}
	if f.Title == "" || f.Description == "" {
		return nil, fmt.Errorf("%w: feature route needs a generic title and description", ErrInvalidCatalog)
	}

	prefix := CleanPath(f.Prefix)
	route := &ParamRoute{
		prefix: prefix,
		pages:  make(map[string]PageMetadata, len(f.Items)),
	}

	for _, item := range f.Items {
		if item.Slug == "" || strings.Contains(item.Slug, "/") {
			return nil, fmt.Errorf("%w: invalid feature slug %q", ErrInvalidCatalog, item.Slug)
		}
		if _, exists := route.pages[item.Slug]; exists {
			return nil, fmt.Errorf("%w: duplicate feature slug %q", ErrInvalidCatalog, item.Slug)
		}

		name := item.Name
		if name == "" {
			name = item.Slug
		}
		if item.Title == "" {
			item.Title = strings.ReplaceAll(f.Title, namePlaceholder, name)
		}
		if item.Description == "" {
			item.Description = strings.ReplaceAll(f.Description, namePlaceholder, name)
		}

		routePath := route.Path(item.Slug)
		route.pages[item.Slug] = r.build(routePath, item)
		route.ids = append(route.ids, item.Slug)
	}

	return route, nil
}

func (r *Registry) build(routePath string, e catalogEntry) PageMetadata {
	meta := PageMetadata{
		Title:        e.Title,
		Description:  e.Description,
		CanonicalURL: CanonicalURL(r.origin, routePath),
	}
	if e.NoOpenGraph {
		return meta
	}

	og := &OpenGraph{
		Title:       e.OGTitle,
		Description: e.OGDescription,
		URL:         e.OGURL,
		Type:        e.OGType,
		SiteName:    r.siteName,
	}
	if og.Title == "" {
		og.Title = meta.Title
	}
	if og.Description == "" {
		og.Description = meta.Description
	}
	if og.URL == "" {
		og.URL = meta.CanonicalURL
	}
	if og.Type == "" {
		og.Type = defaultOpenGraphType
	}
	meta.OpenGraph = og
	return meta
}

// Origin is the canonical site origin every URL is rooted at.
func (r *Registry) Origin() string {
	return r.origin
}

// SiteName is the brand name used for Open Graph site_name.
func (r *Registry) SiteName() string {
	return r.siteName
}

// Static returns the metadata of a statically known route.
func (r *Registry) Static(routePath string) (PageMetadata, bool) {
	meta, ok := r.static[routePath]
	if !ok {
		return PageMetadata{}, false
	}
	return meta.Clone(), true
}

// StaticRoutes lists static route paths in catalog order.
func (r *Registry) StaticRoutes() []string {
	return slices.Clone(r.order)
}

// Features is the feature detail route keyed by slug.
func (r *Registry) Features() *ParamRoute {
	return r.features
}

// Storefronts builds the country storefront route, whose static identifiers
// are the supported locale tokens.
func (r *Registry) Storefronts(locales []string) *ParamRoute {
	route := &ParamRoute{
		prefix: "/",
		pages:  make(map[string]PageMetadata, len(locales)),
	}

	for _, token := range locales {
		if token == "" || strings.Contains(token, "/") {
			continue
		}
		if _, exists := route.pages[token]; exists {
			continue
		}

		name, ok := r.storefrontNames[token]
		if !ok {
			name = strings.ToUpper(token)
		}
		entry := catalogEntry{
			Title:       strings.ReplaceAll(r.storefrontTitle, namePlaceholder, name),
			Description: strings.ReplaceAll(r.storefrontDescription, namePlaceholder, name),
		}

		route.pages[token] = r.build(route.Path(token), entry)
		route.ids = append(route.ids, token)
	}

	return route
}

// ParamRoute is a parameterized route whose valid identifiers are known
// ahead of time.
type ParamRoute struct {
	prefix string
	ids    []string
	pages  map[string]PageMetadata
}

// EnumerateStaticIdentifiers lists every identifier a page must be
// pre-resolvable for.
func (p *ParamRoute) EnumerateStaticIdentifiers() []string {
	return slices.Clone(p.ids)
}

// Path returns the route path for id.
func (p *ParamRoute) Path(id string) string {
	return CleanPath(p.prefix + "/" + id)
}

// Resolve returns the metadata of id, or ErrUnknownIdentifier.
func (p *ParamRoute) Resolve(id string) (PageMetadata, error) {
	meta, ok := p.pages[id]
	if !ok {
		return PageMetadata{}, fmt.Errorf("%q: %w", id, ErrUnknownIdentifier)
	}
	return meta.Clone(), nil
}
