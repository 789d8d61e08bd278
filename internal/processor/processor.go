// Package processor runs batch conversion jobs on a fixed pool of workers.
package processor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/woozymasta/geomet/internal/config"

	"github.com/rs/zerolog/log"
)

// Result reports the outcome of one job.
type Result struct {
	Err     error
	Name    string
	Output  string
	Preview string
	Bytes   int
	Skipped bool
}

type task struct {
	job   config.Job
	index int
}

// Run converts every job with at most concurrency jobs in flight and returns
// one result per job in input order. Existing outputs are kept unless force.
func Run(ctx context.Context, client *http.Client, jobs []config.Job, concurrency int, force bool) []Result {
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > len(jobs) {
		concurrency = len(jobs)
	}

	tasks := make(chan task, len(jobs))
	results := make([]Result, len(jobs))

	go func() {
		for i, j := range jobs {
			tasks <- task{index: i, job: j}
		}
		close(tasks)
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				if err := ctx.Err(); err != nil {
					results[t.index] = Result{Name: t.job.Name, Output: t.job.Output, Err: err}
					continue
				}

				start := time.Now()
				res := process(ctx, client, t.job, force)
				if res.Err != nil {
					log.Error().
						Err(res.Err).
						Str("job", res.Name).
						Msg("Job failed")
				} else {
					log.Debug().
						Str("job", res.Name).
						Str("output", res.Output).
						Int("bytes", res.Bytes).
						Bool("skipped", res.Skipped).
						Dur("duration", time.Since(start)).
						Msg("Job finished")
				}
				results[t.index] = res
			}
		}()
	}
	wg.Wait()

	return results
}

// Failed counts results carrying an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
