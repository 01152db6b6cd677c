// Package workerpool runs page rendering jobs on a bounded ants pool.
package workerpool

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pitabwire/util"

	"github.com/partsplug/storefront/config"
)

const shutdownTimeout = 5 * time.Second

var ErrPoolNotConfigured = errors.New("worker pool is not configured")

// WorkerPool accepts tasks until it is shut down.
type WorkerPool interface {
	Submit(ctx context.Context, task func()) error
	Running() int
	Shutdown()
}

type Options struct {
	PoolCount          int
	SinglePoolCapacity int
	MaxBlockingTasks   int
	ExpiryDuration     time.Duration
	Nonblocking        bool
	PanicHandler       func(any)
	Logger             *util.LogEntry
}

type Option func(*Options)

func WithPoolCount(count int) Option {
	return func(opts *Options) {
		opts.PoolCount = count
	}
}

func WithSinglePoolCapacity(capacity int) Option {
	return func(opts *Options) {
		opts.SinglePoolCapacity = capacity
	}
}

// WithMaxBlockingTasks bounds how many submitters may wait for a free worker.
func WithMaxBlockingTasks(n int) Option {
	return func(opts *Options) {
		opts.MaxBlockingTasks = n
	}
}

func WithPoolExpiryDuration(duration time.Duration) Option {
	return func(opts *Options) {
		opts.ExpiryDuration = duration
	}
}

// WithPoolNonblocking makes Submit fail fast with ants.ErrPoolOverload
// instead of waiting when every worker is busy.
func WithPoolNonblocking(nonblocking bool) Option {
	return func(opts *Options) {
		opts.Nonblocking = nonblocking
	}
}

func WithPoolPanicHandler(handler func(any)) Option {
	return func(opts *Options) {
		opts.PanicHandler = handler
	}
}

func WithPoolLogger(logger *util.LogEntry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func defaultOptions(cfg config.ConfigurationWorkerPool, log *util.LogEntry) *Options {
	return &Options{
		PoolCount:          cfg.GetCount(),
		SinglePoolCapacity: cfg.GetCapacity(),
		MaxBlockingTasks:   runtime.NumCPU() * cfg.GetCPUFactor(),
		ExpiryDuration:     cfg.GetExpiryDuration(),
		Logger:             log,
	}
}

func newPool(opts *Options) (WorkerPool, error) {
	antsOpts := []ants.Option{ants.WithNonblocking(opts.Nonblocking)}
	if opts.Logger != nil {
		antsOpts = append(antsOpts, ants.WithLogger(opts.Logger))
	}
	if opts.ExpiryDuration > 0 {
		antsOpts = append(antsOpts, ants.WithExpiryDuration(opts.ExpiryDuration))
	}
	if opts.MaxBlockingTasks > 0 {
		antsOpts = append(antsOpts, ants.WithMaxBlockingTasks(opts.MaxBlockingTasks))
	}
	if opts.PanicHandler != nil {
		antsOpts = append(antsOpts, ants.WithPanicHandler(opts.PanicHandler))
	}

	if opts.PoolCount <= 1 {
		p, err := ants.NewPool(opts.SinglePoolCapacity, antsOpts...)
		if err != nil {
			return nil, err
		}
		return &singlePool{pool: p}, nil
	}

	mp, err := ants.NewMultiPool(opts.PoolCount, opts.SinglePoolCapacity, ants.LeastTasks, antsOpts...)
	if err != nil {
		return nil, err
	}
	return &multiPool{pool: mp}, nil
}

type singlePool struct {
	pool *ants.Pool
}

func (w *singlePool) Submit(ctx context.Context, task func()) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return w.pool.Submit(task)
}

func (w *singlePool) Running() int {
	return w.pool.Running()
}

func (w *singlePool) Shutdown() {
	_ = w.pool.ReleaseTimeout(shutdownTimeout)
}

type multiPool struct {
	pool *ants.MultiPool
}

func (w *multiPool) Submit(ctx context.Context, task func()) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return w.pool.Submit(task)
}

func (w *multiPool) Running() int {
	return w.pool.Running()
}

func (w *multiPool) Shutdown() {
	_ = w.pool.ReleaseTimeout(shutdownTimeout)
}
