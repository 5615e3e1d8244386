package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/salesintel/tracker/pkg/logger"
)

// Task is one named unit of work executed by a Pool.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result carries the outcome of a single task. A panic inside a task is
// captured here as an error instead of taking down its siblings.
type Result struct {
	Name string
	Err  error
}

// Pool runs tasks with a bounded concurrency degree. Failures are isolated
// per task; the pool always returns one Result per submitted task.
type Pool struct {
	concurrency int
}

// NewPool creates a pool. A concurrency of zero or less falls back to 1.
func NewPool(concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{concurrency: concurrency}
}

// RunAll executes all tasks and blocks until every one has finished.
// Results are returned in task submission order.
func (p *Pool) RunAll(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	sem := make(chan struct{}, p.concurrency)

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, t Task) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = Result{Name: t.Name, Err: p.runOne(ctx, t)}
		}(i, task)
	}

	wg.Wait()
	return results
}

func (p *Pool) runOne(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked",
				zap.String("task", t.Name),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("task %s panicked: %v", t.Name, r)
		}
	}()

	return t.Run(ctx)
}
