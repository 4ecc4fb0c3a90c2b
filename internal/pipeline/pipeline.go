package pipeline

import (
	"context"
	"sync"
)

type Job struct {
	Index    int
	Filename string
	Path     string
}

type Result[T any] struct {
	Job   Job
	Value T
	Err   error
}

type Worker[T any] func(ctx context.Context, job Job) (T, error)

// ExtractAll runs fn over jobs with at most workers goroutines and returns the
// results in job order, whatever order they finished in. workers <= 1 runs
// everything on the calling goroutine. Once ctx is done no further job reaches
// fn; those results carry ctx.Err().
func ExtractAll[T any](ctx context.Context, jobs []Job, workers int, fn Worker[T]) []Result[T] {
	if len(jobs) == 0 || fn == nil {
		return nil
	}
	out := make([]Result[T], len(jobs))

	if workers <= 1 {
		for i, job := range jobs {
			out[i] = run(ctx, job, fn)
		}
		return out
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				out[i] = run(ctx, jobs[i], fn)
			}
		}()
	}

dispatch:
	for i := range jobs {
		select {
		case queue <- i:
		case <-ctx.Done():
			for j := i; j < len(jobs); j++ {
				out[j] = Result[T]{Job: jobs[j], Err: ctx.Err()}
			}
			break dispatch
		}
	}
	close(queue)
	wg.Wait()
	return out
}

// run skips fn once ctx is done.
func run[T any](ctx context.Context, job Job, fn Worker[T]) Result[T] {
	if err := ctx.Err(); err != nil {
		return Result[T]{Job: job, Err: err}
	}
	v, err := fn(ctx, job)
	return Result[T]{Job: job, Value: v, Err: err}
}
