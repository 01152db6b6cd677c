// Package render turns resolved page records into full HTML documents and
// serves the storefront routes.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/partsplug/storefront/chrome"
	"github.com/partsplug/storefront/localization"
	"github.com/partsplug/storefront/seo"
	"github.com/partsplug/storefront/telemetry"
)

//go:embed templates
var templates embed.FS

const defaultLang = "en"

// Kind selects the page body template.
type Kind string

const (
	KindHome       Kind = "home"
	KindContent    Kind = "content"
	KindCategories Kind = "categories"
	KindAuth       Kind = "auth"
	KindShell      Kind = "shell"
	KindNotFound   Kind = "notfound"
)

type Link struct {
	Href  string
	Label string
}

// Page is everything the layout needs to render one route.
type Page struct {
	Kind    Kind
	Path    string
	Meta    seo.PageMetadata
	Mode    chrome.Mode
	Country string
	Links   []Link

	Categories       template.HTML
	CategoryCount    int
	CategoriesFailed bool
}

type labels struct {
	Home, Categories, About, Contact, Login string
	Tagline, Rights                         string
	NotFoundTitle, NotFoundBody             string
	CategoriesHeading                       string
	CategoriesUnavailable                   string
}

type view struct {
	Page
	Lang     string
	SiteName string
	Labels   labels
}

type RendererOption func(*Renderer)

// WithClock fixes the time used for the footer year.
func WithClock(now func() time.Time) RendererOption {
	return func(r *Renderer) {
		r.now = now
	}
}

// WithMetrics counts every rendered page by chrome mode.
func WithMetrics(m *telemetry.Metrics) RendererOption {
	return func(r *Renderer) {
		r.metrics = m
	}
}

// Renderer executes the embedded layout. It is safe for concurrent use.
type Renderer struct {
	pages    map[Kind]*template.Template
	i18n     localization.Manager
	siteName string
	now      func() time.Time
	metrics  *telemetry.Metrics
}

func NewRenderer(translations localization.Manager, siteName string, opts ...RendererOption) (*Renderer, error) {
	base, err := template.ParseFS(templates, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("could not parse layout: %w", err)
	}

	bodies, err := fs.Glob(templates, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		pages:    make(map[Kind]*template.Template, len(bodies)),
		i18n:     translations,
		siteName: siteName,
		now:      time.Now,
	}

	for _, body := range bodies {
		tmpl, cloneErr := base.Clone()
		if cloneErr != nil {
			return nil, cloneErr
		}
		if _, err = tmpl.ParseFS(templates, body); err != nil {
			return nil, fmt.Errorf("could not parse %s: %w", body, err)
		}
		r.pages[Kind(strings.TrimSuffix(path.Base(body), ".html"))] = tmpl
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Render writes the full document for page. Nothing is written when
// execution fails.
func (r *Renderer) Render(ctx context.Context, w io.Writer, page Page) error {
	tmpl, ok := r.pages[page.Kind]
	if !ok {
		return fmt.Errorf("no template for page kind %q", page.Kind)
	}

	v := view{
		Page:     page,
		Lang:     r.lang(ctx),
		SiteName: r.siteName,
		Labels:   r.labels(ctx, page),
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("could not render %s: %w", page.Path, err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return err
	}

	if r.metrics != nil {
		r.metrics.PageRendered(ctx, page.Mode)
	}
	return nil
}

// lang is the document language: the first parseable requested language.
func (r *Renderer) lang(ctx context.Context) string {
	for _, raw := range localization.FromContext(ctx) {
		raw, _, _ = strings.Cut(raw, ";")
		tag, err := language.Parse(strings.TrimSpace(raw))
		if err == nil && tag != language.Und {
			return tag.String()
		}
	}
	return defaultLang
}

func (r *Renderer) labels(ctx context.Context, page Page) labels {
	t := func(id string) string {
		return r.i18n.Translate(ctx, ctx, id)
	}

	l := labels{
		Home:       t("NavHome"),
		Categories: t("NavCategories"),
		About:      t("NavAbout"),
		Contact:    t("NavContact"),
		Login:      t("NavLogin"),
		Tagline:    t("FooterTagline"),
		Rights: r.i18n.TranslateWithMap(ctx, ctx, "FooterRights", map[string]any{
			"Year": r.now().Year(),
			"Site": r.siteName,
		}),
	}

	switch page.Kind {
	case KindNotFound:
		l.NotFoundTitle = t("NotFoundTitle")
		l.NotFoundBody = t("NotFoundBody")
	case KindCategories:
		l.CategoriesUnavailable = t("CategoriesUnavailable")
		l.CategoriesHeading = r.i18n.TranslateWithMapAndCount(ctx, ctx, "CategoriesHeading",
			map[string]any{"Count": page.CategoryCount}, page.CategoryCount)
	default:
	}

	return l
}

// NotFoundTitle is the localized document title of the not-found page.
func (r *Renderer) NotFoundTitle(ctx context.Context) string {
	return r.i18n.Translate(ctx, ctx, "NotFoundTitle") + " | " + r.siteName
}
