package render_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/partsplug/storefront/catalog"
	"github.com/partsplug/storefront/chrome"
	"github.com/partsplug/storefront/config"
	"github.com/partsplug/storefront/locale"
	"github.com/partsplug/storefront/localization"
	"github.com/partsplug/storefront/render"
	"github.com/partsplug/storefront/seo"
	"github.com/partsplug/storefront/workerpool"
)

const origin = "https://www.partsplug.com"

type muxRouter struct {
	*http.ServeMux
}

func (m muxRouter) HandleRoute(_, pattern, _ string, handler func(http.ResponseWriter, *http.Request)) {
	m.HandleFunc(pattern, handler)
}

type stubCategories struct {
	categories []catalog.Category
	err        error
	calls      atomic.Int32
}

func (s *stubCategories) Categories(context.Context) ([]catalog.Category, error) {
	s.calls.Add(1)
	return s.categories, s.err
}

type SiteTestSuite struct {
	suite.Suite

	categories *stubCategories
	site       *render.Site
	handler    http.Handler
}

func TestSiteSuite(t *testing.T) {
	suite.Run(t, new(SiteTestSuite))
}

func (s *SiteTestSuite) SetupTest() {
	translations, err := localization.NewManager(nil, "", "en", "fr", "sw")
	s.Require().NoError(err)

	registry, err := seo.NewRegistry(origin)
	s.Require().NoError(err)

	renderer, err := render.NewRenderer(translations, registry.SiteName(),
		render.WithClock(func() time.Time { return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC) }))
	s.Require().NoError(err)

	s.categories = &stubCategories{categories: []catalog.Category{
		{ID: "1", Name: "Brakes", Slug: "brakes", HTML: `<p>Pads<script>alert(1)</script></p>`},
		{ID: "2", Name: "Filters", Slug: "filters"},
	}}

	resolver := chrome.NewResolver(chrome.Rules{
		AdminPrefix:   config.DefaultAdminPathPrefix,
		AccountPrefix: config.DefaultAccountPathPrefix,
		AuthPaths:     config.DefaultAuthPaths,
	})

	s.site = render.NewSite(renderer, registry, resolver,
		locale.NewGate(locale.NewSet("ng", "gh", "ke", "za")),
		render.WithCategories(s.categories))

	mux := muxRouter{http.NewServeMux()}
	s.site.Register(mux)
	s.handler = s.site.Middleware(mux)
}

func (s *SiteTestSuite) get(path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *SiteTestSuite) TestHomePage() {
	rec := s.get("/")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	s.Contains(body, "<title>PartsPlug | Genuine Auto Parts Online</title>")
	s.Contains(body, `<link rel="canonical" href="https://www.partsplug.com/">`)
	s.Contains(body, `<meta property="og:url" content="https://www.partsplug.com/">`)
	s.Contains(body, `<meta property="og:site_name" content="PartsPlug">`)
	s.Contains(body, `class="site-header"`)
	s.Contains(body, `class="site-footer"`)
	s.Contains(body, "© 2026 PartsPlug. All rights reserved.")
	s.Contains(body, `href="/features/genuine-parts"`)
	s.Contains(body, `data-chrome="standard"`)
}

func (s *SiteTestSuite) TestChromeModes() {
	testCases := []struct {
		path       string
		mode       string
		showChrome bool
		authClass  bool
	}{
		{path: "/about-us", mode: "standard", showChrome: true},
		{path: "/login", mode: "auth_styled", authClass: true},
		{path: "/reset-password", mode: "auth_styled", authClass: true},
		{path: "/admin", mode: "suppressed"},
		{path: "/admin/orders/42", mode: "suppressed"},
		{path: "/account/settings", mode: "suppressed"},
	}

	for _, tc := range testCases {
		s.Run(tc.path, func() {
			rec := s.get(tc.path)
			s.Require().Equal(http.StatusOK, rec.Code)

			body := rec.Body.String()
			s.Contains(body, `data-chrome="`+tc.mode+`"`)
			s.Equal(tc.showChrome, strings.Contains(body, `class="site-header"`))
			s.Equal(tc.showChrome, strings.Contains(body, `class="site-footer"`))
			s.Equal(tc.authClass, strings.Contains(body, `class="auth-page"`))
		})
	}
}

func (s *SiteTestSuite) TestShellCanonicalFollowsPath() {
	body := s.get("/admin/orders/").Body.String()
	s.Contains(body, `<link rel="canonical" href="https://www.partsplug.com/admin/orders">`)
	s.NotContains(body, "og:title")
}

func (s *SiteTestSuite) TestFeaturePages() {
	for _, slug := range []string{"genuine-parts", "nationwide-delivery", "expert-support", "easy-returns"} {
		s.Run(slug, func() {
			rec := s.get("/features/" + slug)
			s.Equal(http.StatusOK, rec.Code)
			s.Contains(rec.Body.String(), `href="https://www.partsplug.com/features/`+slug+`"`)
		})
	}

	rec := s.get("/features/free-shipping")
	s.Equal(http.StatusNotFound, rec.Code)
	s.NotContains(rec.Body.String(), `rel="canonical"`)
}

func (s *SiteTestSuite) TestLocaleGate() {
	testCases := []struct {
		path string
		code int
	}{
		{path: "/ng", code: http.StatusOK},
		{path: "/za", code: http.StatusOK},
		{path: "/NG", code: http.StatusNotFound},
		{path: "/us", code: http.StatusNotFound},
		{path: "/ng/categories", code: http.StatusOK},
		{path: "/xx/categories", code: http.StatusNotFound},
		{path: "/ng/checkout", code: http.StatusNotFound},
		{path: "/ng/categories/extra", code: http.StatusNotFound},
	}

	for _, tc := range testCases {
		s.Run(tc.path, func() {
			s.Equal(tc.code, s.get(tc.path).Code)
		})
	}

	s.Contains(s.get("/ng").Body.String(), "<title>Auto Parts in Nigeria | PartsPlug</title>")
}

func (s *SiteTestSuite) TestCountryCategories() {
	rec := s.get("/ke/categories")
	s.Require().Equal(http.StatusOK, rec.Code)

	body := rec.Body.String()
	s.Contains(body, `<link rel="canonical" href="https://www.partsplug.com/ke/categories">`)
	s.Contains(body, `data-country="ke"`)
	s.Contains(body, "2 categories")
	s.Contains(body, `id="category-brakes"`)
	s.NotContains(body, "<script>")
	s.Equal(int32(1), s.categories.calls.Load())

	s.get("/ke/categories")
	s.Equal(int32(2), s.categories.calls.Load(), "category data is fetched on every render")
}

func (s *SiteTestSuite) TestCategoriesUnavailable() {
	s.categories.err = errors.New("upstream unavailable")

	rec := s.get("/categories")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Categories are unavailable right now.")
	s.Equal(int32(1), s.categories.calls.Load())
}

func (s *SiteTestSuite) TestNotFoundIsLocalized() {
	rec := s.get("/does/not/exist", "Accept-Language", "fr")
	s.Equal(http.StatusNotFound, rec.Code)

	body := rec.Body.String()
	s.Contains(body, `<html lang="fr">`)
	s.Contains(body, "Page introuvable")
	s.Contains(body, "Accueil")

	rec = s.get("/nowhere?lang=sw")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "Ukurasa haujapatikana")
}

func (s *SiteTestSuite) TestPageForCoversEveryTarget() {
	ctx := context.Background()
	targets := s.site.Targets()
	s.Contains(targets, "/")
	s.Contains(targets, "/features/easy-returns")
	s.Contains(targets, "/gh/categories")

	for _, target := range targets {
		page, err := s.site.PageFor(ctx, target)
		s.Require().NoError(err, target)
		s.Equal(target, page.Path)
		s.Equal(seo.CanonicalURL(origin, target), page.Meta.CanonicalURL)
	}

	_, err := s.site.PageFor(ctx, "/mars")
	s.ErrorIs(err, locale.ErrNotFound)
}

func (s *SiteTestSuite) TestExport() {
	ctx := context.Background()
	pool := workerpool.NewManager(ctx, &config.ConfigurationDefault{
		WorkerPoolCPUFactorForWorkerCount: 1,
		WorkerPoolCapacity:                4,
		WorkerPoolCount:                   1,
		WorkerPoolExpiryDuration:          "1s",
	})
	defer func() { s.NoError(pool.Shutdown(ctx)) }()

	out := s.T().TempDir()
	written, err := render.NewExporter(s.site, pool, nil).Export(ctx, out)
	s.Require().NoError(err)
	s.Len(written, len(s.site.Targets()))

	home, err := os.ReadFile(filepath.Join(out, "index.html"))
	s.Require().NoError(err)
	s.Contains(string(home), "<title>PartsPlug | Genuine Auto Parts Online</title>")

	feature, err := os.ReadFile(filepath.Join(out, "features", "genuine-parts", "index.html"))
	s.Require().NoError(err)
	s.Contains(string(feature), "Genuine OEM Parts | PartsPlug")

	login, err := os.ReadFile(filepath.Join(out, "login", "index.html"))
	s.Require().NoError(err)
	s.Contains(string(login), `class="auth-page"`)
}

func TestOutputPath(t *testing.T) {
	require.Equal(t, filepath.Join("out", "index.html"), render.OutputPath("out", "/"))
	require.Equal(t, filepath.Join("out", "ng", "categories", "index.html"), render.OutputPath("out", "/ng/categories"))
}
