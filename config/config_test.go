package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestContextHelpersAndKeyString() {
	ctx := context.Background()
	cfg := ConfigurationDefault{ServiceName: "svc"}

	s.Equal("storefront/config/configurationKey", ctxKeyConfiguration.String())

	ctx = ToContext(ctx, cfg)
	fromCtx := FromContext[ConfigurationDefault](ctx)
	s.Equal("svc", fromCtx.ServiceName)

	missing := FromContext[*ConfigurationDefault](context.Background())
	s.Nil(missing)
}

func (s *ConfigSuite) TestFromEnvAndFillEnv() {
	type envCfg struct {
		Value string `env:"STOREFRONT_TEST_VALUE"`
	}

	s.T().Setenv("STOREFRONT_TEST_VALUE", "abc")

	fromEnv, err := FromEnv[envCfg]()
	s.Require().NoError(err)
	s.Equal("abc", fromEnv.Value)

	var target envCfg
	s.Require().NoError(FillEnv(&target))
	s.Equal("abc", target.Value)
}

func (s *ConfigSuite) TestDefaultsFromEnv() {
	cfg, err := FromEnv[ConfigurationDefault]()
	s.Require().NoError(err)

	s.Equal("storefront", cfg.Name())
	s.Equal(DefaultSiteOrigin, cfg.SiteOrigin())
	s.Equal([]string{"ng", "gh", "ke", "za"}, cfg.SupportedLocales())
	s.Equal("/admin", cfg.AdminPrefix())
	s.Equal("/account", cfg.AccountPrefix())
	s.Equal(DefaultAuthPaths, cfg.AuthPaths())
	s.Equal([]string{"en", "fr", "sw"}, cfg.TranslationLanguages())
	s.Equal(":8080", cfg.HTTPPort())
	s.Equal(5*time.Second, cfg.GetCategoryAPITimeout())
}

func (s *ConfigSuite) TestSiteSettingsFromEnv() {
	s.T().Setenv("SITE_ORIGIN", "https://shop.example.com//")
	s.T().Setenv("SUPPORTED_LOCALES", "ng, GH ,,ke")
	s.T().Setenv("AUTH_PATHS", "/signin")
	s.T().Setenv("CATEGORY_API_ROOT", " https://api.example.com/v1 ")

	cfg, err := FromEnv[ConfigurationDefault]()
	s.Require().NoError(err)

	s.Equal("https://shop.example.com", cfg.SiteOrigin())
	s.Equal([]string{"ng", "GH", "ke"}, cfg.SupportedLocales(), "tokens keep their casing")
	s.Equal([]string{"/signin"}, cfg.AuthPaths())
	s.Equal("https://api.example.com/v1", cfg.GetCategoryAPIRoot())
}

func (s *ConfigSuite) TestFallbacksTable() {
	testCases := []struct {
		name       string
		cfg        ConfigurationDefault
		wantHTTP   string
		wantExpiry time.Duration
		wantOrigin string
		wantAdmin  string
		wantAuth   []string
		wantLangs  []string
	}{
		{
			name: "numeric port",
			cfg: ConfigurationDefault{
				HTTPServerPort:           "8081",
				WorkerPoolExpiryDuration: "1500ms",
				SiteOriginURL:            "https://a.example/",
				AdminPathPrefix:          "/backoffice",
				AuthPathList:             []string{"/login"},
				TranslationLangs:         []string{"sw"},
			},
			wantHTTP:   ":8081",
			wantExpiry: 1500 * time.Millisecond,
			wantOrigin: "https://a.example",
			wantAdmin:  "/backoffice",
			wantAuth:   []string{"/login"},
			wantLangs:  []string{"sw"},
		},
		{
			name: "empty values fall back",
			cfg: ConfigurationDefault{
				HTTPServerPort:           "invalid",
				WorkerPoolExpiryDuration: "invalid",
			},
			wantHTTP:   ":8080",
			wantExpiry: time.Second,
			wantOrigin: DefaultSiteOrigin,
			wantAdmin:  DefaultAdminPathPrefix,
			wantAuth:   DefaultAuthPaths,
			wantLangs:  []string{"en"},
		},
		{
			name: "host bound port",
			cfg: ConfigurationDefault{
				HTTPServerPort:           "127.0.0.1:9000",
				WorkerPoolExpiryDuration: "1s",
			},
			wantHTTP:   "127.0.0.1:9000",
			wantExpiry: time.Second,
			wantOrigin: DefaultSiteOrigin,
			wantAdmin:  DefaultAdminPathPrefix,
			wantAuth:   DefaultAuthPaths,
			wantLangs:  []string{"en"},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.wantHTTP, tc.cfg.HTTPPort())
			s.Equal(tc.wantExpiry, tc.cfg.GetExpiryDuration())
			s.Equal(tc.wantOrigin, tc.cfg.SiteOrigin())
			s.Equal(tc.wantAdmin, tc.cfg.AdminPrefix())
			s.Equal(tc.wantAuth, tc.cfg.AuthPaths())
			s.Equal(tc.wantLangs, tc.cfg.TranslationLanguages())
		})
	}
}

func (s *ConfigSuite) TestCoreGettersAndBooleans() {
	cfg := &ConfigurationDefault{
		ServiceName:                       "svc",
		ServiceEnvironment:                "prod",
		ServiceVersion:                    "1.2.3",
		LogLevel:                          "trace",
		LogFormat:                         "json",
		LogTimeFormat:                     time.RFC3339,
		LogColored:                        true,
		LogShowStackTrace:                 true,
		TraceRequests:                     true,
		OpenTelemetryDisable:              true,
		OpenTelemetryTraceRatio:           0.42,
		CORSEnabled:                       true,
		CORSMaxAgeSeconds:                 60,
		WorkerPoolCPUFactorForWorkerCount: 3,
		WorkerPoolCapacity:                64,
		WorkerPoolCount:                   8,
		CategoryAPITimeout:                "250ms",
	}

	s.Equal("svc", cfg.Name())
	s.Equal("prod", cfg.Environment())
	s.Equal("1.2.3", cfg.Version())
	s.Equal("trace", cfg.LoggingLevel())
	s.Equal("json", cfg.LoggingFormat())
	s.Equal(time.RFC3339, cfg.LoggingTimeFormat())
	s.True(cfg.LoggingColored())
	s.True(cfg.LoggingShowStackTrace())
	s.True(cfg.LoggingLevelIsDebug())
	s.True(cfg.TraceReq())
	s.True(cfg.DisableOpenTelemetry())
	s.InDelta(0.42, cfg.SamplingRatio(), 0.0001)
	s.True(cfg.IsCORSEnabled())
	s.Equal(60, cfg.GetCORSMaxAge())
	s.Equal(3, cfg.GetCPUFactor())
	s.Equal(64, cfg.GetCapacity())
	s.Equal(8, cfg.GetCount())
	s.Equal(250*time.Millisecond, cfg.GetCategoryAPITimeout())
}
