package storefront

import (
	"context"

	"github.com/partsplug/storefront/config"
)

// WithConfig sets the configuration object of the service. Service identity
// is taken from it when present, then telemetry and logging are rebuilt.
func WithConfig(cfg any) Option {
	return func(ctx context.Context, s *Service) {
		s.configuration = cfg

		serviceCfg, ok := cfg.(config.ConfigurationService)
		if ok {
			if serviceCfg.Name() != "" {
				WithName(serviceCfg.Name())(ctx, s)
			}

			if serviceCfg.Environment() != "" {
				WithEnvironment(serviceCfg.Environment())(ctx, s)
			}

			if serviceCfg.Version() != "" {
				WithVersion(serviceCfg.Version())(ctx, s)
			}
		}

		WithTelemetry()(ctx, s)

		WithLogger()(ctx, s)
	}
}

func (s *Service) Config() any {
	return s.configuration
}
