package storefront

import (
	"context"

	"github.com/partsplug/storefront/config"
	"github.com/partsplug/storefront/workerpool"
)

// WithWorkerPool sizes the export worker pool from configuration. Extra
// options override the configured values.
func WithWorkerPool(options ...workerpool.Option) Option {
	return func(ctx context.Context, s *Service) {
		cfg, ok := s.Config().(config.ConfigurationWorkerPool)
		if !ok {
			s.Log(ctx).Error("worker pool configuration is not setup")
			return
		}

		s.workerPoolOptions = append(s.workerPoolOptions, options...)
		if s.workerPoolManager != nil {
			_ = s.workerPoolManager.Shutdown(ctx)
		}

		opts := append([]workerpool.Option{workerpool.WithPoolLogger(s.logger)}, s.workerPoolOptions...)
		s.workerPoolManager = workerpool.NewManager(ctx, cfg, opts...)
	}
}

func (s *Service) WorkManager() workerpool.Manager {
	return s.workerPoolManager
}

// SubmitJob submits a job to the service's worker pool. Results are read
// from the job's result channel.
func SubmitJob[T any](ctx context.Context, s *Service, job *workerpool.Job[T]) error {
	return workerpool.SubmitJob(ctx, s.WorkManager(), job)
}
