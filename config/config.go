package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type contextKey string

func (c contextKey) String() string {
	return "storefront/config/" + string(c)
}

const (
	ctxKeyConfiguration = contextKey("configurationKey")

	DefaultSiteOrigin        = "https://www.partsplug.com"
	DefaultAdminPathPrefix   = "/admin"
	DefaultAccountPathPrefix = "/account"
)

// DefaultAuthPaths is the closed set of authentication flow pages.
//
//nolint:gochecknoglobals // fixed configuration default
var DefaultAuthPaths = []string{"/login", "/signup", "/forgot-password", "/reset-password"}

// ToContext adds service configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts service configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

type ConfigurationDefault struct {
	LogLevel          string `envDefault:"info"                      env:"LOG_LEVEL"            yaml:"log_level"`
	LogFormat         string `envDefault:"info"                      env:"LOG_FORMAT"           yaml:"log_format"`
	LogTimeFormat     string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT"      yaml:"log_time_format"`
	LogColored        bool   `envDefault:"true"                      env:"LOG_COLORED"          yaml:"log_colored"`
	LogShowStackTrace bool   `envDefault:"false"                     env:"LOG_SHOW_STACK_TRACE" yaml:"log_show_stack_trace"`

	TraceRequests bool `envDefault:"false" env:"TRACE_REQUESTS" yaml:"trace_requests"`

	ProfilerEnable   bool   `envDefault:"false" env:"PROFILER_ENABLE" yaml:"profiler_enable"`
	ProfilerPortAddr string `envDefault:":6060" env:"PROFILER_PORT"   yaml:"profiler_port"`

	OpenTelemetryDisable    bool    `envDefault:"false" env:"OPENTELEMETRY_DISABLE"        yaml:"opentelemetry_disable"`
	OpenTelemetryTraceRatio float64 `envDefault:"0.1"   env:"OPENTELEMETRY_TRACE_ID_RATIO" yaml:"opentelemetry_trace_id_ratio"`

	ServiceName        string `envDefault:"storefront" env:"SERVICE_NAME"        yaml:"service_name"`
	ServiceEnvironment string `envDefault:""           env:"SERVICE_ENVIRONMENT" yaml:"service_environment"`
	ServiceVersion     string `envDefault:""           env:"SERVICE_VERSION"     yaml:"service_version"`

	HTTPServerPort string `envDefault:":8080" env:"HTTP_PORT" yaml:"http_server_port"`

	CORSEnabled          bool     `envDefault:"false"                    env:"CORS_ENABLED"           yaml:"cors_enabled"`
	CORSAllowedOrigins   []string `envDefault:"*"                        env:"CORS_ALLOWED_ORIGINS"   yaml:"cors_allowed_origins"`
	CORSAllowedMethods   []string `envDefault:"GET,HEAD,OPTIONS"         env:"CORS_ALLOWED_METHODS"   yaml:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `envDefault:"Accept,Accept-Language"   env:"CORS_ALLOWED_HEADERS"   yaml:"cors_allowed_headers"`
	CORSMaxAgeSeconds    int      `envDefault:"3600"                     env:"CORS_MAX_AGE"           yaml:"cors_max_age"`

	WorkerPoolCPUFactorForWorkerCount int    `envDefault:"10"  env:"WORKER_POOL_CPU_FACTOR_FOR_WORKER_COUNT" yaml:"worker_pool_cpu_factor_for_worker_count"`
	WorkerPoolCapacity                int    `envDefault:"100" env:"WORKER_POOL_CAPACITY"                    yaml:"worker_pool_capacity"`
	WorkerPoolCount                   int    `envDefault:"1"   env:"WORKER_POOL_COUNT"                       yaml:"worker_pool_count"`
	WorkerPoolExpiryDuration          string `envDefault:"1s"  env:"WORKER_POOL_EXPIRY_DURATION"             yaml:"worker_pool_expiry_duration"`

	SiteOriginURL      string   `envDefault:"https://www.partsplug.com"                       env:"SITE_ORIGIN"           yaml:"site_origin"`
	SupportedLocaleSet []string `envDefault:"ng,gh,ke,za"                                     env:"SUPPORTED_LOCALES"     yaml:"supported_locales"`
	CategoryAPIRoot    string   `envDefault:"http://localhost:8000/api"                       env:"CATEGORY_API_ROOT"     yaml:"category_api_root"`
	CategoryAPITimeout string   `envDefault:"5s"                                              env:"CATEGORY_API_TIMEOUT"  yaml:"category_api_timeout"`
	AdminPathPrefix    string   `envDefault:"/admin"                                          env:"ADMIN_PATH_PREFIX"     yaml:"admin_path_prefix"`
	AccountPathPrefix  string   `envDefault:"/account"                                        env:"ACCOUNT_PATH_PREFIX"   yaml:"account_path_prefix"`
	AuthPathList       []string `envDefault:"/login,/signup,/forgot-password,/reset-password" env:"AUTH_PATHS"            yaml:"auth_paths"`
	TranslationLangs   []string `envDefault:"en,fr,sw"                                        env:"TRANSLATION_LANGUAGES" yaml:"translation_languages"`
}

type ConfigurationService interface {
	Name() string
	Environment() string
	Version() string
}

var _ ConfigurationService = new(ConfigurationDefault)

func (c *ConfigurationDefault) Name() string {
	return c.ServiceName
}
func (c *ConfigurationDefault) Environment() string {
	return c.ServiceEnvironment
}
func (c *ConfigurationDefault) Version() string {
	return c.ServiceVersion
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingFormat() string
	LoggingTimeFormat() string
	LoggingShowStackTrace() bool
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(ConfigurationDefault)

func (c *ConfigurationDefault) LoggingLevel() string {
	return c.LogLevel
}

func (c *ConfigurationDefault) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *ConfigurationDefault) LoggingFormat() string {
	return c.LogFormat
}

func (c *ConfigurationDefault) LoggingColored() bool {
	return c.LogColored
}

func (c *ConfigurationDefault) LoggingShowStackTrace() bool {
	return c.LogShowStackTrace
}

func (c *ConfigurationDefault) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

type ConfigurationTraceRequests interface {
	TraceReq() bool
}

var _ ConfigurationTraceRequests = new(ConfigurationDefault)

func (c *ConfigurationDefault) TraceReq() bool {
	return c.TraceRequests
}

type ConfigurationProfiler interface {
	ProfilerEnabled() bool
	ProfilerPort() string
}

var _ ConfigurationProfiler = new(ConfigurationDefault)

func (c *ConfigurationDefault) ProfilerEnabled() bool {
	return c.ProfilerEnable
}

func (c *ConfigurationDefault) ProfilerPort() string {
	if c.ProfilerPortAddr != "" {
		return c.ProfilerPortAddr
	}
	return ":6060"
}

type ConfigurationPorts interface {
	HTTPPort() string
}

var _ ConfigurationPorts = new(ConfigurationDefault)

func (c *ConfigurationDefault) HTTPPort() string {
	if i, err := strconv.Atoi(c.HTTPServerPort); err == nil && i > 0 {
		return fmt.Sprintf(":%s", strings.TrimSpace(c.HTTPServerPort))
	}

	if strings.HasPrefix(c.HTTPServerPort, ":") || strings.Contains(c.HTTPServerPort, ":") {
		return c.HTTPServerPort
	}

	return ":8080"
}

type ConfigurationCORS interface {
	IsCORSEnabled() bool
	GetCORSAllowedOrigins() []string
	GetCORSAllowedMethods() []string
	GetCORSAllowedHeaders() []string
	GetCORSMaxAge() int
}

var _ ConfigurationCORS = new(ConfigurationDefault)

func (c *ConfigurationDefault) IsCORSEnabled() bool {
	return c.CORSEnabled
}

func (c *ConfigurationDefault) GetCORSAllowedOrigins() []string {
	return c.CORSAllowedOrigins
}

func (c *ConfigurationDefault) GetCORSAllowedMethods() []string {
	return c.CORSAllowedMethods
}

func (c *ConfigurationDefault) GetCORSAllowedHeaders() []string {
	return c.CORSAllowedHeaders
}

func (c *ConfigurationDefault) GetCORSMaxAge() int {
	return c.CORSMaxAgeSeconds
}

type ConfigurationTelemetry interface {
	DisableOpenTelemetry() bool
	SamplingRatio() float64
}

var _ ConfigurationTelemetry = new(ConfigurationDefault)

func (c *ConfigurationDefault) DisableOpenTelemetry() bool {
	return c.OpenTelemetryDisable
}

func (c *ConfigurationDefault) SamplingRatio() float64 {
	return c.OpenTelemetryTraceRatio
}

type ConfigurationWorkerPool interface {
	GetCPUFactor() int
	GetCapacity() int
	GetCount() int
	GetExpiryDuration() time.Duration
}

var _ ConfigurationWorkerPool = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCPUFactor() int {
	return c.WorkerPoolCPUFactorForWorkerCount
}

func (c *ConfigurationDefault) GetCapacity() int {
	return c.WorkerPoolCapacity
}

func (c *ConfigurationDefault) GetCount() int {
	return c.WorkerPoolCount
}

func (c *ConfigurationDefault) GetExpiryDuration() time.Duration {
	if c.WorkerPoolExpiryDuration != "" {
		duration, err := time.ParseDuration(c.WorkerPoolExpiryDuration)
		if err == nil {
			return duration
		}
	}

	return time.Second
}

// ConfigurationSite carries the immutable storefront settings shared by the
// locale gate, the chrome resolver and the metadata registry.
type ConfigurationSite interface {
	SiteOrigin() string
	SupportedLocales() []string
	AdminPrefix() string
	AccountPrefix() string
	AuthPaths() []string
}

var _ ConfigurationSite = new(ConfigurationDefault)

func (c *ConfigurationDefault) SiteOrigin() string {
	origin := strings.TrimRight(strings.TrimSpace(c.SiteOriginURL), "/")
	if origin == "" {
		return DefaultSiteOrigin
	}
	return origin
}

func (c *ConfigurationDefault) SupportedLocales() []string {
	return trimmed(c.SupportedLocaleSet)
}

func (c *ConfigurationDefault) AdminPrefix() string {
	if strings.TrimSpace(c.AdminPathPrefix) == "" {
		return DefaultAdminPathPrefix
	}
	return c.AdminPathPrefix
}

func (c *ConfigurationDefault) AccountPrefix() string {
	if strings.TrimSpace(c.AccountPathPrefix) == "" {
		return DefaultAccountPathPrefix
	}
	return c.AccountPathPrefix
}

func (c *ConfigurationDefault) AuthPaths() []string {
	paths := trimmed(c.AuthPathList)
	if len(paths) == 0 {
		return append([]string(nil), DefaultAuthPaths...)
	}
	return paths
}

type ConfigurationCategoryAPI interface {
	GetCategoryAPIRoot() string
	GetCategoryAPITimeout() time.Duration
}

var _ ConfigurationCategoryAPI = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCategoryAPIRoot() string {
	return strings.TrimSpace(c.CategoryAPIRoot)
}

func (c *ConfigurationDefault) GetCategoryAPITimeout() time.Duration {
	timeout, err := time.ParseDuration(c.CategoryAPITimeout)
	if err != nil || timeout <= 0 {
		return 5 * time.Second
	}
	return timeout
}

type ConfigurationLocalization interface {
	TranslationLanguages() []string
}

var _ ConfigurationLocalization = new(ConfigurationDefault)

func (c *ConfigurationDefault) TranslationLanguages() []string {
	langs := trimmed(c.TranslationLangs)
	if len(langs) == 0 {
		return []string{"en"}
	}
	return langs
}

// trimmed drops surrounding whitespace and empty entries; casing is preserved.
func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
