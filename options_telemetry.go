package storefront

import (
	"context"

	"github.com/partsplug/storefront/config"
	"github.com/partsplug/storefront/telemetry"
)

// WithTelemetry installs trace, metric and log providers for the service.
// A failed initialisation is reported by Run.
func WithTelemetry(opts ...telemetry.Option) Option {
	return func(ctx context.Context, s *Service) {
		cfg, ok := s.Config().(config.ConfigurationTelemetry)
		if !ok {
			s.Log(ctx).Error("configuration object not of type : ConfigurationTelemetry")
			return
		}

		if s.telemetryManager != nil {
			if err := s.telemetryManager.Shutdown(ctx); err != nil {
				s.Log(ctx).WithError(err).Warn("could not release previous telemetry providers")
			}
		}

		extOpts := []telemetry.Option{
			telemetry.WithServiceName(s.Name()),
			telemetry.WithServiceVersion(s.Version()),
			telemetry.WithServiceEnvironment(s.Environment()),
		}
		extOpts = append(extOpts, opts...)

		s.telemetryManager = telemetry.NewManager(ctx, cfg, extOpts...)
		if err := s.telemetryManager.Init(ctx); err != nil {
			s.Log(ctx).WithError(err).Error("failed to initialize telemetry")
			s.startupError = err
		}
	}
}

func (s *Service) Telemetry() telemetry.Manager {
	return s.telemetryManager
}
