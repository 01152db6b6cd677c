package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/xid"
)

const defaultJobResultBufferSize = 10

var ErrJobClosed = errors.New("worker job is already closed")

type JobResult[T any] interface {
	IsError() bool
	Error() error
	Item() T
}

type jobResult[T any] struct {
	item T
	err  error
}

func (r *jobResult[T]) IsError() bool {
	return r.err != nil
}

func (r *jobResult[T]) Error() error {
	return r.err
}

func (r *jobResult[T]) Item() T {
	return r.item
}

// Result wraps a successful value.
func Result[T any](item T) JobResult[T] {
	return &jobResult[T]{item: item}
}

// ErrorResult wraps a failure.
func ErrorResult[T any](err error) JobResult[T] {
	return &jobResult[T]{err: err}
}

// JobResultPipe is the channel a job streams its results through.
type JobResultPipe[T any] interface {
	ResultChan() <-chan JobResult[T]
	WriteError(ctx context.Context, val error) error
	WriteResult(ctx context.Context, val T) error
	ReadResult(ctx context.Context) (JobResult[T], bool)
	Close()
}

// Job is a unit of work run once on the pool.
type Job[T any] struct {
	id      string
	process func(ctx context.Context, result JobResultPipe[T]) error

	results chan JobResult[T]
	closed  atomic.Bool
}

// NewJob creates a job with the default result buffer.
func NewJob[T any](process func(ctx context.Context, result JobResultPipe[T]) error) *Job[T] {
	return NewJobWithBuffer[T](process, defaultJobResultBufferSize)
}

func NewJobWithBuffer[T any](process func(ctx context.Context, result JobResultPipe[T]) error, buffer int) *Job[T] {
	return &Job[T]{
		id:      xid.New().String(),
		process: process,
		results: make(chan JobResult[T], buffer),
	}
}

func (j *Job[T]) ID() string {
	return j.id
}

func (j *Job[T]) ResultChan() <-chan JobResult[T] {
	return j.results
}

func (j *Job[T]) ReadResult(ctx context.Context) (JobResult[T], bool) {
	return SafeChannelRead(ctx, j.results)
}

func (j *Job[T]) WriteError(ctx context.Context, val error) error {
	if j.closed.Load() {
		return ErrJobClosed
	}
	return SafeChannelWrite(ctx, j.results, ErrorResult[T](val))
}

func (j *Job[T]) WriteResult(ctx context.Context, val T) error {
	if j.closed.Load() {
		return ErrJobClosed
	}
	return SafeChannelWrite(ctx, j.results, Result[T](val))
}

func (j *Job[T]) Close() {
	if j.closed.CompareAndSwap(false, true) {
		close(j.results)
	}
}

// SafeChannelWrite writes value unless ctx is done first.
func SafeChannelWrite[T any](ctx context.Context, ch chan<- JobResult[T], value JobResult[T]) error {
	if ctx.Err() != nil {
		return fmt.Errorf("context canceled while writing to channel: %w", ctx.Err())
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled while writing to channel: %w", ctx.Err())
	case ch <- value:
		return nil
	}
}

// SafeChannelRead returns false once ch is closed or ctx is done.
func SafeChannelRead[T any](ctx context.Context, ch <-chan JobResult[T]) (JobResult[T], bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	select {
	case <-ctx.Done():
		return nil, false
	case result, ok := <-ch:
		return result, ok
	}
}

// ConsumeResultStream feeds every result to consumer and stops at the first
// error result.
func ConsumeResultStream[T any](ctx context.Context, job JobResultPipe[T], consumer func(T)) error {
	for {
		res, ok := job.ReadResult(ctx)
		if !ok {
			return ctx.Err()
		}
		if res.IsError() {
			return res.Error()
		}
		consumer(res.Item())
	}
}
