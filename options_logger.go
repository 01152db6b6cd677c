package storefront

import (
	"context"
	"log/slog"

	"github.com/pitabwire/util"

	"github.com/partsplug/storefront/config"
)

// WithLogger builds the service logger from the configured level and format.
// Options accumulate across calls so later rebuilds keep earlier outputs.
func WithLogger(opts ...util.Option) Option {
	return func(ctx context.Context, s *Service) {
		s.logOptions = append(s.logOptions, opts...)

		logOpts := make([]util.Option, 0, len(s.logOptions)+5)
		if cfg, ok := s.Config().(config.ConfigurationLogLevel); ok {
			logLevel, err := util.ParseLevel(cfg.LoggingLevel())
			if err == nil {
				logOpts = append(logOpts, util.WithLogLevel(logLevel))
			}
			logOpts = append(logOpts,
				util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
				util.WithLogNoColor(!cfg.LoggingColored()))
			if cfg.LoggingShowStackTrace() {
				logOpts = append(logOpts, util.WithLogStackTrace())
			}
		}

		if s.telemetryManager != nil && s.telemetryManager.LogHandler() != nil {
			logOpts = append(logOpts, util.WithLogHandler(s.telemetryManager.LogHandler()))
		}

		logOpts = append(logOpts, s.logOptions...)

		s.logger = util.NewLogger(ctx, logOpts...).WithField("service", s.Name())
	}
}

// Log returns the service logger bound to ctx.
func (s *Service) Log(ctx context.Context) *util.LogEntry {
	return s.logger.WithContext(ctx)
}

func (s *Service) SLog(ctx context.Context) *slog.Logger {
	return s.Log(ctx).SLog()
}
