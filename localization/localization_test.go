package localization_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/stretchr/testify/suite"

	"github.com/partsplug/storefront/localization"
)

type LocalizationTestSuite struct {
	suite.Suite

	manager localization.Manager
}

func TestLocalizationSuite(t *testing.T) {
	suite.Run(t, &LocalizationTestSuite{})
}

func (s *LocalizationTestSuite) SetupSuite() {
	lm, err := localization.NewManager(nil, "", "en", "fr", "sw")
	s.Require().NoError(err)
	s.manager = lm
}

func (s *LocalizationTestSuite) TestEmbeddedBundle() {
	swLocalizer := i18n.NewLocalizer(s.manager.Bundle(), "sw")
	swVersion, err := swLocalizer.Localize(&i18n.LocalizeConfig{MessageID: "NotFoundTitle"})
	s.Require().NoError(err)
	s.Equal("Ukurasa haujapatikana", swVersion)
}

func (s *LocalizationTestSuite) TestTranslateRequestKinds() {
	ctx := context.Background()

	testCases := []struct {
		name     string
		request  any
		expected string
	}{
		{name: "string language", request: "fr", expected: "Page introuvable"},
		{name: "language slice", request: []string{"de", "sw"}, expected: "Ukurasa haujapatikana"},
		{
			name:     "context language",
			request:  localization.ToContext(ctx, []string{"sw"}),
			expected: "Ukurasa haujapatikana",
		},
		{name: "unknown language falls back", request: "ja", expected: "Page not found"},
		{name: "unsupported request type", request: 42, expected: "NotFoundTitle"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, s.manager.Translate(ctx, tc.request, "NotFoundTitle"))
		})
	}
}

func (s *LocalizationTestSuite) TestTranslateHTTPRequest() {
	req := httptest.NewRequest(http.MethodGet, "/about-us?lang=fr", nil)
	req.Header.Set("Accept-Language", "sw")
	s.Equal("Accueil", s.manager.Translate(req.Context(), req, "NavHome"))

	req = httptest.NewRequest(http.MethodGet, "/about-us", nil)
	req.Header.Set("Accept-Language", "sw-KE,sw;q=0.9,en;q=0.5")
	s.Equal("Nyumbani", s.manager.Translate(req.Context(), req, "NavHome"))
}

func (s *LocalizationTestSuite) TestTemplateDataAndPlurals() {
	ctx := context.Background()

	rights := s.manager.TranslateWithMap(ctx, "en", "FooterRights", map[string]any{"Year": 2026, "Site": "PartsPlug"})
	s.Equal("© 2026 PartsPlug. All rights reserved.", rights)

	one := s.manager.TranslateWithMapAndCount(ctx, "en", "CategoriesHeading", map[string]any{"Count": 1}, 1)
	many := s.manager.TranslateWithMapAndCount(ctx, "en", "CategoriesHeading", map[string]any{"Count": 7}, 7)
	s.Equal("1 category", one)
	s.Equal("7 categories", many)
}

func (s *LocalizationTestSuite) TestMissingMessageReturnsID() {
	s.Equal("NoSuchMessage", s.manager.Translate(context.Background(), "en", "NoSuchMessage"))
}

func (s *LocalizationTestSuite) TestCustomFilesystem() {
	fsys := fstest.MapFS{
		"lang/messages.en.toml": {Data: []byte("[Greeting]\nother = \"Hello\"\n")},
	}

	lm, err := localization.NewManager(fsys, "lang", "en")
	s.Require().NoError(err)
	s.Equal("Hello", lm.Translate(context.Background(), "en", "Greeting"))

	_, err = localization.NewManager(fsys, "lang", "xx")
	s.Error(err)
}

func (s *LocalizationTestSuite) TestLanguageHTTPMiddleware() {
	var captured []string
	handler := localization.LanguageHTTPMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		captured = localization.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/?lang=sw", nil)
	req.Header.Set("Accept-Language", "en-US,en")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	s.Equal([]string{"sw", "en-US", "en"}, captured)
	s.Nil(localization.FromContext(context.Background()))
}
