package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pitabwire/util"

	"github.com/partsplug/storefront/config"
)

// Manager owns the pool for the lifetime of the service.
type Manager interface {
	GetPool() (WorkerPool, error)
	Shutdown(ctx context.Context) error
}

type manager struct {
	pool WorkerPool
	once sync.Once
}

// NewManager builds the pool from cfg. A pool that cannot be created is a
// startup fault and panics.
func NewManager(ctx context.Context, cfg config.ConfigurationWorkerPool, opts ...Option) Manager {
	log := util.Log(ctx)

	poolOpts := defaultOptions(cfg, log)
	for _, opt := range opts {
		opt(poolOpts)
	}

	pool, err := newPool(poolOpts)
	if err != nil {
		log.WithError(err).Panic("could not create a default worker pool")
	}

	return &manager{pool: pool}
}

func (m *manager) GetPool() (WorkerPool, error) {
	if m.pool == nil {
		return nil, ErrPoolNotConfigured
	}
	return m.pool, nil
}

func (m *manager) Shutdown(_ context.Context) error {
	m.once.Do(func() {
		if m.pool != nil {
			m.pool.Shutdown()
		}
	})
	return nil
}

// SubmitJob runs job once on the pool. The job's result pipe is closed when
// its process function returns; a returned error is written to the pipe first.
func SubmitJob[T any](ctx context.Context, m Manager, job *Job[T]) error {
	if m == nil {
		return ErrPoolNotConfigured
	}

	pool, err := m.GetPool()
	if err != nil {
		return err
	}

	return pool.Submit(ctx, func() {
		defer job.Close()

		if job.process == nil {
			_ = job.WriteError(ctx, errors.New("job has no process function"))
			return
		}

		if execErr := job.process(ctx, job); execErr != nil {
			util.Log(ctx).WithField("job", job.ID()).WithError(execErr).Debug("job failed")
			_ = job.WriteError(ctx, execErr)
		}
	})
}

// Map applies fn to every item on the pool and returns the outputs in input
// order. Every submitted job is waited for unless ctx ends first. The first
// failure in input order is returned alongside the outputs that did succeed.
func Map[In, Out any](ctx context.Context, m Manager, items []In, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	outs := make([]Out, len(items))
	errs := make([]error, len(items))
	jobs := make([]*Job[Out], 0, len(items))

	for i, item := range items {
		job := NewJobWithBuffer[Out](func(ctx context.Context, pipe JobResultPipe[Out]) error {
			out, err := fn(ctx, item)
			if err != nil {
				return err
			}
			return pipe.WriteResult(ctx, out)
		}, 1)

		if err := SubmitJob(ctx, m, job); err != nil {
			errs[i] = fmt.Errorf("could not submit job %d: %w", i, err)
			job.Close()
		}
		jobs = append(jobs, job)
	}

	for i, job := range jobs {
		if errs[i] != nil {
			continue
		}
		errs[i] = ConsumeResultStream(ctx, job, func(out Out) {
			outs[i] = out
		})
	}

	for _, err := range errs {
		if err != nil {
			return outs, err
		}
	}
	return outs, nil
}
