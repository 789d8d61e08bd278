package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/geomet/internal/config"
	"github.com/woozymasta/geomet/internal/logger"
	"github.com/woozymasta/geomet/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string        `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file" default:"geomet.yaml"`
	Limit       []string      `short:"l" long:"limit"       env:"LIMIT_JOBS"  description:"Limit processing to specific job names"`
	Concurrency int           `short:"p" long:"concurrency" env:"CONCURRENCY" description:"Concurrency" default:"8"`
	Timeout     time.Duration `short:"t" long:"timeout"     env:"TIMEOUT"     description:"HTTP timeout for remote sources" default:"15s"`
	Force       bool          `short:"f" long:"force"       description:"Force overwrite of existing files"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile, true)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: opts.Timeout,
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	jobs := selectJobs(cfg.Jobs, opts.Limit)

	log.Info().
		Int("jobs_total", len(cfg.Jobs)).
		Int("jobs_queued", len(jobs)).
		Int("concurrency", opts.Concurrency).
		Bool("force", opts.Force).
		Msg("Starting batch")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results := processor.Run(ctx, client, jobs, opts.Concurrency, opts.Force)

	skipped := 0
	for _, res := range results {
		if res.Skipped {
			skipped++
		}
	}
	failed := processor.Failed(results)

	log.Info().
		Int("done", len(results)-failed-skipped).
		Int("skipped", skipped).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Batch finished")

	if failed > 0 {
		stop()
		os.Exit(1)
	}
}

// selectJobs filters jobs by name, keeping the order of limit and logging
// names that are not configured.
func selectJobs(all []config.Job, limit []string) []config.Job {
	if len(limit) == 0 {
		return all
	}

	available := make(map[string]config.Job, len(all))
	for _, j := range all {
		available[j.Name] = j
	}

	selected := make([]config.Job, 0, len(limit))
	seen := make(map[string]bool)
	for _, name := range limit {
		if seen[name] {
			continue
		}
		seen[name] = true

		if j, ok := available[name]; ok {
			selected = append(selected, j)
		} else {
			log.Error().
				Str("name", name).
				Msg("Job specified in --limit not found in configuration")
		}
	}
	return selected
}
