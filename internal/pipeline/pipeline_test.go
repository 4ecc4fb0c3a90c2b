package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestExtractAllKeepsJobOrder(t *testing.T) {
	jobs := []Job{
		{Index: 0, Filename: "a"},
		{Index: 1, Filename: "b"},
		{Index: 2, Filename: "c"},
		{Index: 3, Filename: "d"},
	}

	var called int32
	results := ExtractAll(context.Background(), jobs, 3, func(_ context.Context, job Job) (string, error) {
		atomic.AddInt32(&called, 1)
		// finish in reverse order
		time.Sleep(time.Duration(len(jobs)-job.Index) * 5 * time.Millisecond)
		if job.Index == 1 {
			return "", errors.New("test error")
		}
		return job.Filename, nil
	})

	if called != int32(len(jobs)) {
		t.Fatalf("expected %d calls, got %d", len(jobs), called)
	}
	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, r := range results {
		if r.Job.Index != i {
			t.Fatalf("result %d carries job %d", i, r.Job.Index)
		}
	}
	if results[1].Err == nil {
		t.Fatal("expected error for job 1")
	}
	if results[3].Value != "d" {
		t.Fatalf("unexpected value %q", results[3].Value)
	}
}

func TestExtractAllSequential(t *testing.T) {
	jobs := []Job{{Index: 0}, {Index: 1}, {Index: 2}}
	var order []int
	ExtractAll(context.Background(), jobs, 1, func(_ context.Context, job Job) (int, error) {
		order = append(order, job.Index)
		return job.Index, nil
	})
	for i, idx := range order {
		if idx != i {
			t.Fatalf("sequential run out of order: %v", order)
		}
	}
}

func TestExtractAllStopsAfterCancel(t *testing.T) {
	for _, workers := range []int{1, 2} {
		jobs := make([]Job, 6)
		for i := range jobs {
			jobs[i] = Job{Index: i}
		}
		ctx, cancel := context.WithCancel(context.Background())

		var called int32
		results := ExtractAll(ctx, jobs, workers, func(_ context.Context, job Job) (int, error) {
			atomic.AddInt32(&called, 1)
			if job.Index == 0 {
				cancel()
			}
			return job.Index, nil
		})
		cancel()

		if called > int32(workers) {
			t.Fatalf("workers=%d: expected at most %d calls after cancel, got %d", workers, workers, called)
		}
		for _, r := range results[workers:] {
			if !errors.Is(r.Err, context.Canceled) {
				t.Fatalf("workers=%d: job %d ran after cancel: %+v", workers, r.Job.Index, r)
			}
		}
	}
}

func TestExtractAllEmpty(t *testing.T) {
	if got := ExtractAll[int](context.Background(), nil, 4, nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
