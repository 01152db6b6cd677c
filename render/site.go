package render

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel/trace"

	"github.com/partsplug/storefront/catalog"
	"github.com/partsplug/storefront/chrome"
	"github.com/partsplug/storefront/locale"
	"github.com/partsplug/storefront/localization"
	"github.com/partsplug/storefront/seo"
	"github.com/partsplug/storefront/telemetry"
)

const (
	countryParam      = "country"
	countryRestParam  = "rest"
	categoriesSection = "categories"
	homePath          = "/"
	categoriesPath    = "/categories"
	featuresPath      = "/features"
)

// Not-found reasons reported to metrics.
const (
	ReasonInvalidLocale = "invalid_locale"
	ReasonUnknownID     = "unknown_identifier"
	ReasonUnknownRoute  = "unknown_route"
)

// Router is the subset of the service route registry the site needs.
type Router interface {
	HandleRoute(method, pattern, name string, handler func(http.ResponseWriter, *http.Request))
}

// CategorySource supplies the category list shown on category pages.
type CategorySource interface {
	Categories(ctx context.Context) ([]catalog.Category, error)
}

type SiteOption func(*Site)

func WithCategories(source CategorySource) SiteOption {
	return func(s *Site) {
		s.categories = source
	}
}

func WithSiteMetrics(m *telemetry.Metrics) SiteOption {
	return func(s *Site) {
		s.metrics = m
	}
}

func WithSiteTracer(t telemetry.Tracer) SiteOption {
	return func(s *Site) {
		s.tracer = t
	}
}

// Site resolves routes into pages and serves them.
type Site struct {
	renderer    *Renderer
	registry    *seo.Registry
	resolver    *chrome.Resolver
	gate        *locale.Gate
	storefronts *seo.ParamRoute

	categories CategorySource
	sanitizer  *catalog.Sanitizer
	metrics    *telemetry.Metrics
	tracer     telemetry.Tracer
}

func NewSite(
	renderer *Renderer,
	registry *seo.Registry,
	resolver *chrome.Resolver,
	gate *locale.Gate,
	opts ...SiteOption,
) *Site {
	s := &Site{
		renderer:    renderer,
		registry:    registry,
		resolver:    resolver,
		gate:        gate,
		storefronts: registry.Storefronts(gate.Supported().Tokens()),
		sanitizer:   catalog.NewSanitizer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds every storefront route to router.
func (s *Site) Register(router Router) {
	router.HandleRoute(http.MethodGet, "GET /{$}", "home", s.serveStatic)

	for _, route := range s.registry.StaticRoutes() {
		if route == homePath {
			continue
		}
		router.HandleRoute(http.MethodGet, "GET "+route, "static", s.serveStatic)

		// shells own everything below their section root
		if s.resolver.Resolve(route) == chrome.Suppressed {
			router.HandleRoute(http.MethodGet, "GET "+route+"/", "shell", s.serveShell(route))
		}
	}

	router.HandleRoute(http.MethodGet, "GET "+featuresPath+"/{slug}", "feature", s.serveFeature)

	invalidLocale := s.notFoundHandler(ReasonInvalidLocale)
	router.HandleRoute(http.MethodGet, "GET /{"+countryParam+"}", "storefront",
		s.gate.Guard(countryParam, invalidLocale, http.HandlerFunc(s.serveStorefront)).ServeHTTP)
	router.HandleRoute(http.MethodGet, "GET /{"+countryParam+"}/{"+countryRestParam+"...}", "storefront-section",
		s.gate.Guard(countryParam, invalidLocale, http.HandlerFunc(s.serveStorefrontSection)).ServeHTTP)

	router.HandleRoute("", "/", "not-found", s.notFoundHandler(ReasonUnknownRoute).ServeHTTP)
}

// Middleware resolves chrome mode and request languages for every request.
func (s *Site) Middleware(next http.Handler) http.Handler {
	return localization.LanguageHTTPMiddleware(s.resolver.Middleware(next))
}

func (s *Site) serveStatic(w http.ResponseWriter, r *http.Request) {
	page, err := s.StaticPage(r.Context(), r.URL.Path)
	s.respond(w, r, page, err)
}

func (s *Site) serveShell(section string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.StaticPage(r.Context(), section)
		if err == nil {
			page.Path = seo.CleanPath(r.URL.Path)
			page.Meta.CanonicalURL = seo.CanonicalURL(s.registry.Origin(), page.Path)
			page.Mode = s.resolver.Resolve(r.URL.Path)
		}
		s.respond(w, r, page, err)
	}
}

func (s *Site) serveFeature(w http.ResponseWriter, r *http.Request) {
	page, err := s.FeaturePage(r.Context(), r.PathValue("slug"))
	s.respond(w, r, page, err)
}

func (s *Site) serveStorefront(w http.ResponseWriter, r *http.Request) {
	page, err := s.StorefrontPage(r.Context(), locale.FromContext(r.Context()))
	s.respond(w, r, page, err)
}

func (s *Site) serveStorefrontSection(w http.ResponseWriter, r *http.Request) {
	// the locale gate has already accepted the country; only the section is checked here
	if r.PathValue(countryRestParam) != categoriesSection {
		s.NotFound(w, r, ReasonUnknownRoute)
		return
	}

	page, err := s.CountryCategoriesPage(r.Context(), locale.FromContext(r.Context()))
	s.respond(w, r, page, err)
}

func (s *Site) respond(w http.ResponseWriter, r *http.Request, page Page, err error) {
	ctx := r.Context()

	if err != nil {
		switch {
		case errors.Is(err, seo.ErrUnknownIdentifier):
			s.NotFound(w, r, ReasonUnknownID)
		case errors.Is(err, locale.ErrNotFound):
			s.NotFound(w, r, ReasonInvalidLocale)
		default:
			util.Log(ctx).WithError(err).WithField("path", r.URL.Path).Error("could not build page")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if renderErr := s.renderer.Render(ctx, w, page); renderErr != nil {
		util.Log(ctx).WithError(renderErr).WithField("path", page.Path).Error("could not render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Site) notFoundHandler(reason string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.NotFound(w, r, reason)
	})
}

// NotFound answers with the localized not-found page and status 404. It is
// an expected outcome: it is counted, not logged as an error.
func (s *Site) NotFound(w http.ResponseWriter, r *http.Request, reason string) {
	ctx := r.Context()

	util.Log(ctx).WithField("path", r.URL.Path).WithField("reason", reason).Debug("not found")
	if s.metrics != nil {
		s.metrics.NotFound(ctx, reason)
	}

	page := s.NotFoundPage(ctx, r.URL.Path)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusNotFound)
	if err := s.renderer.Render(ctx, w, page); err != nil {
		util.Log(ctx).WithError(err).Error("could not render not found page")
	}
}

// NotFoundPage builds the not-found page for rawPath. It carries no
// canonical URL so it is never indexed.
func (s *Site) NotFoundPage(ctx context.Context, rawPath string) Page {
	return Page{
		Kind: KindNotFound,
		Path: rawPath,
		Mode: s.resolver.Resolve(rawPath),
		Meta: seo.PageMetadata{
			Title:       s.renderer.NotFoundTitle(ctx),
			Description: s.registry.SiteName(),
		},
	}
}

// StaticPage builds the page of a statically known route.
func (s *Site) StaticPage(ctx context.Context, routePath string) (Page, error) {
	meta, ok := s.registry.Static(routePath)
	if !ok {
		return Page{}, seo.ErrUnknownIdentifier
	}

	page := Page{
		Kind: KindContent,
		Path: routePath,
		Meta: meta,
		Mode: s.resolver.Resolve(routePath),
	}

	switch {
	case routePath == homePath:
		page.Kind = KindHome
		page.Links = s.featureLinks()
	case routePath == categoriesPath:
		page.Kind = KindCategories
		s.loadCategories(ctx, &page)
	case routePath == featuresPath:
		page.Links = s.featureLinks()
	case page.Mode.IsAuthPage():
		page.Kind = KindAuth
	case page.Mode == chrome.Suppressed:
		page.Kind = KindShell
	}

	return page, nil
}

// FeaturePage builds /features/{slug}.
func (s *Site) FeaturePage(_ context.Context, slug string) (Page, error) {
	features := s.registry.Features()
	meta, err := features.Resolve(slug)
	if err != nil {
		return Page{}, err
	}

	routePath := features.Path(slug)
	return Page{
		Kind:  KindContent,
		Path:  routePath,
		Meta:  meta,
		Mode:  s.resolver.Resolve(routePath),
		Links: []Link{{Href: featuresPath, Label: s.staticTitle(featuresPath)}},
	}, nil
}

// StorefrontPage builds /{country}. The country must pass the locale gate.
func (s *Site) StorefrontPage(_ context.Context, country string) (Page, error) {
	if err := s.gate.Check(country); err != nil {
		return Page{}, err
	}

	meta, err := s.storefronts.Resolve(country)
	if err != nil {
		return Page{}, err
	}

	routePath := s.storefronts.Path(country)
	return Page{
		Kind:    KindContent,
		Path:    routePath,
		Meta:    meta,
		Mode:    s.resolver.Resolve(routePath),
		Country: country,
		Links: []Link{{
			Href:  routePath + "/" + categoriesSection,
			Label: s.staticTitle(categoriesPath),
		}},
	}, nil
}

// CountryCategoriesPage builds /{country}/categories.
func (s *Site) CountryCategoriesPage(ctx context.Context, country string) (Page, error) {
	page, err := s.StorefrontPage(ctx, country)
	if err != nil {
		return Page{}, err
	}

	page.Kind = KindCategories
	page.Path = page.Path + "/" + categoriesSection
	page.Mode = s.resolver.Resolve(page.Path)
	page.Links = nil
	page.Meta.CanonicalURL = seo.CanonicalURL(s.registry.Origin(), page.Path)
	if page.Meta.OpenGraph != nil {
		page.Meta.OpenGraph.URL = page.Meta.CanonicalURL
	}

	s.loadCategories(ctx, &page)
	return page, nil
}

// Targets lists every route path a static export renders.
func (s *Site) Targets() []string {
	var targets []string
	targets = append(targets, s.registry.StaticRoutes()...)

	features := s.registry.Features()
	for _, slug := range features.EnumerateStaticIdentifiers() {
		targets = append(targets, features.Path(slug))
	}

	for _, country := range s.storefronts.EnumerateStaticIdentifiers() {
		targets = append(targets, s.storefronts.Path(country), s.storefronts.Path(country)+"/"+categoriesSection)
	}

	return targets
}

// PageFor builds the page of any export target.
func (s *Site) PageFor(ctx context.Context, routePath string) (Page, error) {
	if page, err := s.StaticPage(ctx, routePath); err == nil {
		return page, nil
	}

	if slug, ok := strings.CutPrefix(routePath, featuresPath+"/"); ok {
		return s.FeaturePage(ctx, slug)
	}

	country, section, _ := strings.Cut(strings.TrimPrefix(routePath, "/"), "/")
	switch section {
	case "":
		return s.StorefrontPage(ctx, country)
	case categoriesSection:
		return s.CountryCategoriesPage(ctx, country)
	default:
		return Page{}, seo.ErrUnknownIdentifier
	}
}

func (s *Site) featureLinks() []Link {
	features := s.registry.Features()
	ids := features.EnumerateStaticIdentifiers()

	links := make([]Link, 0, len(ids))
	for _, id := range ids {
		meta, err := features.Resolve(id)
		if err != nil {
			continue
		}
		links = append(links, Link{Href: features.Path(id), Label: meta.Title})
	}
	return links
}

func (s *Site) staticTitle(routePath string) string {
	meta, _ := s.registry.Static(routePath)
	return meta.Title
}

// loadCategories fetches once, with no retry; a failure renders the page
// without the list.
func (s *Site) loadCategories(ctx context.Context, page *Page) {
	if s.categories == nil {
		page.CategoriesFailed = true
		return
	}

	var err error
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "categories")
		defer func() { s.tracer.End(ctx, span, err) }()
	}

	var categories []catalog.Category
	categories, err = s.categories.Categories(ctx)
	if err != nil {
		util.Log(ctx).WithError(err).WithField("path", page.Path).Warn("category list unavailable")
		if s.metrics != nil {
			s.metrics.CategoryFetchFailed(ctx)
		}
		page.CategoriesFailed = true
		return
	}

	list, err := s.sanitizer.RenderList(categories)
	if err != nil {
		util.Log(ctx).WithError(err).Warn("could not render category list")
		page.CategoriesFailed = true
		return
	}

	page.Categories = list
	page.CategoryCount = len(categories)
}
