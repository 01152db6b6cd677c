package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/partsplug/storefront/catalog"
	"github.com/partsplug/storefront/chrome"
	"github.com/partsplug/storefront/config"
	"github.com/partsplug/storefront/locale"
	"github.com/partsplug/storefront/localization"
	"github.com/partsplug/storefront/render"
	"github.com/partsplug/storefront/seo"
	"github.com/partsplug/storefront/telemetry"
)

var ErrSiteNotConfigured = errors.New("configuration does not describe a storefront site")

// Storefront is the set of components behind the public pages, built once
// from configuration and shared by the server and the exporter.
type Storefront struct {
	Registry *seo.Registry
	Gate     *locale.Gate
	Chrome   *chrome.Resolver
	Catalog  *catalog.Client
	Renderer *render.Renderer
	Site     *render.Site
	Exporter *render.Exporter
}

type storefrontOptions struct {
	categories render.CategorySource
	renderer   []render.RendererOption
}

type StorefrontOption func(*storefrontOptions)

// WithCategorySource replaces the HTTP category client.
func WithCategorySource(source render.CategorySource) StorefrontOption {
	return func(o *storefrontOptions) {
		o.categories = source
	}
}

// WithRendererOptions passes extra options to the page renderer.
func WithRendererOptions(opts ...render.RendererOption) StorefrontOption {
	return func(o *storefrontOptions) {
		o.renderer = append(o.renderer, opts...)
	}
}

// NewStorefront builds the storefront from the service configuration.
func NewStorefront(ctx context.Context, s *Service, opts ...StorefrontOption) (*Storefront, error) {
	siteCfg, ok := s.Config().(config.ConfigurationSite)
	if !ok {
		return nil, ErrSiteNotConfigured
	}

	o := &storefrontOptions{}
	for _, opt := range opts {
		opt(o)
	}

	registry, err := seo.NewRegistry(siteCfg.SiteOrigin())
	if err != nil {
		return nil, fmt.Errorf("could not load page metadata: %w", err)
	}

	translations := s.Localization()
	if translations == nil {
		var languages []string
		if cfg, isLoc := s.Config().(config.ConfigurationLocalization); isLoc {
			languages = cfg.TranslationLanguages()
		}
		translations, err = localization.NewManager(nil, "", languages...)
		if err != nil {
			return nil, err
		}
		s.localizationManager = translations
	}

	metrics := telemetry.NewMetrics()
	tracer := telemetry.NewTracer()

	renderer, err := render.NewRenderer(translations, registry.SiteName(),
		append([]render.RendererOption{render.WithMetrics(metrics)}, o.renderer...)...)
	if err != nil {
		return nil, err
	}

	sf := &Storefront{
		Registry: registry,
		Gate:     locale.NewGate(locale.NewSet(siteCfg.SupportedLocales()...)),
		Chrome: chrome.NewResolver(chrome.Rules{
			AdminPrefix:   siteCfg.AdminPrefix(),
			AccountPrefix: siteCfg.AccountPrefix(),
			AuthPaths:     siteCfg.AuthPaths(),
		}),
		Renderer: renderer,
	}

	categories := o.categories
	if categories == nil {
		sf.Catalog = newCatalogClient(s.Config())
		categories = sf.Catalog
	}

	sf.Site = render.NewSite(renderer, registry, sf.Chrome, sf.Gate,
		render.WithCategories(categories),
		render.WithSiteMetrics(metrics),
		render.WithSiteTracer(tracer))
	sf.Exporter = render.NewExporter(sf.Site, s.WorkManager(), tracer)

	s.Log(ctx).
		WithField("origin", registry.Origin()).
		WithField("locales", sf.Gate.Supported().Tokens()).
		Debug("storefront assembled")

	return sf, nil
}

func newCatalogClient(cfg any) *catalog.Client {
	var opts []catalog.Option
	apiRoot := ""
	if apiCfg, ok := cfg.(config.ConfigurationCategoryAPI); ok {
		apiRoot = apiCfg.GetCategoryAPIRoot()
		opts = append(opts, catalog.WithTimeout(apiCfg.GetCategoryAPITimeout()))
	}
	if traceCfg, ok := cfg.(config.ConfigurationTraceRequests); ok && traceCfg.TraceReq() {
		logHeaders := false
		if logCfg, isLog := cfg.(config.ConfigurationLogLevel); isLog {
			logHeaders = logCfg.LoggingLevelIsDebug()
		}
		opts = append(opts, catalog.WithTraceRequests(logHeaders))
	}
	return catalog.NewClient(apiRoot, opts...)
}

// Mount registers the storefront pages as the service's application handler.
func (s *Service) Mount(sf *Storefront) {
	sf.Site.Register(s.routes)
	s.handler = sf.Site.Middleware(s.routes)
}
