// Package downloader executes preview-image download tasks with bounded
// parallelism and timeout-only retry.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dashwatch/votd-archive/internal/hash/sha256"
	"github.com/dashwatch/votd-archive/internal/imaging"
)

// ErrTimeoutExhausted reports a task whose every fetch attempt timed out.
var ErrTimeoutExhausted = errors.New("download timed out on every attempt")

// Task is one independent image download: fetch URL, normalize, and write
// identical bytes to every destination path.
type Task struct {
	URL          string
	Destinations []string
	// Ref labels diagnostics; it is the task's shape reference.
	Ref string
}

// Config controls the orchestrator.
type Config struct {
	// Timeout bounds each fetch attempt. Generous by default: previews
	// can be multi-megabyte renders.
	Timeout time.Duration
	// MaxRetries is the total attempt budget per task.
	MaxRetries int
	// BackoffStep scales the linear retry backoff (attempt n waits n*step).
	BackoffStep time.Duration
	// Concurrency bounds simultaneously in-flight tasks.
	Concurrency int
	// TargetSize is the normalized canvas size.
	TargetSize imaging.Size
}

// Tally is the aggregate outcome of a task batch.
type Tally struct {
	Succeeded int
	Failed    int
}

// Downloader runs download tasks.
type Downloader struct {
	cfg    Config
	client *http.Client
	hasher *sha256.Hasher
	logger *zap.Logger
	policy *LinearRetryPolicy

	// sleep is stubbed in tests to skip real backoff waits.
	sleep func(time.Duration)
}

// New constructs a Downloader, applying documented defaults.
func New(cfg Config, logger *zap.Logger) *Downloader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffStep <= 0 {
		cfg.BackoffStep = 5 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.TargetSize.Width <= 0 || cfg.TargetSize.Height <= 0 {
		cfg.TargetSize = imaging.DefaultSize
	}
	return &Downloader{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		hasher: sha256.New(),
		logger: logger,
		policy: NewLinearRetryPolicy(cfg.MaxRetries, cfg.BackoffStep),
		sleep:  time.Sleep,
	}
}

// DownloadOne fetches the task URL, retrying timeouts per the policy,
// normalizes the body, and mirrors the result to every destination.
func (d *Downloader) DownloadOne(ctx context.Context, task Task) error {
	var body []byte
	for attempt := 1; ; attempt++ {
		var err error
		body, err = d.fetch(ctx, task.URL)
		if err == nil {
			break
		}
		if !d.policy.ShouldRetry(err, attempt) {
			if isTimeout(err) {
				d.logger.Error("download abandoned",
					zap.String("ref", task.Ref),
					zap.Int("attempts", attempt),
					zap.Error(err),
				)
				return fmt.Errorf("%w: %s", ErrTimeoutExhausted, task.URL)
			}
			return fmt.Errorf("fetch image %s: %w", task.Ref, err)
		}
		wait := d.policy.Backoff(attempt)
		d.logger.Warn("download timed out, retrying",
			zap.String("ref", task.Ref),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", d.policy.MaxAttempts()),
			zap.Duration("wait", wait),
		)
		d.sleep(wait)
	}

	normalized, err := imaging.Normalize(body, d.cfg.TargetSize)
	if err != nil {
		return fmt.Errorf("normalize image %s: %w", task.Ref, err)
	}

	digest, err := d.hasher.Hash(normalized)
	if err != nil {
		return fmt.Errorf("hash image %s: %w", task.Ref, err)
	}

	for _, dest := range task.Destinations {
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return fmt.Errorf("create image dir for %s: %w", dest, err)
		}
		if err := os.WriteFile(dest, normalized, 0o600); err != nil {
			return fmt.Errorf("write image %s: %w", dest, err)
		}
	}

	d.logger.Debug("image stored",
		zap.String("ref", task.Ref),
		zap.String("sha256", digest),
		zap.Int("destinations", len(task.Destinations)),
	)
	return nil
}

func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Run executes all tasks with bounded parallelism. Tasks are independent:
// one failure never cancels siblings. Only the final tally is ordered.
func (d *Downloader) Run(ctx context.Context, tasks []Task) Tally {
	if len(tasks) == 0 {
		return Tally{}
	}

	workers := d.cfg.Concurrency
	if workers > len(tasks) {
		workers = len(tasks)
	}

	var succeeded, failed atomic.Int64
	taskCh := make(chan Task)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				if err := d.DownloadOne(ctx, task); err != nil {
					failed.Add(1)
					d.logger.Error("download failed",
						zap.String("ref", task.Ref),
						zap.Error(err),
					)
					continue
				}
				succeeded.Add(1)
			}
		}()
	}

	for _, t := range tasks {
		taskCh <- t
	}
	close(taskCh)
	wg.Wait()

	tally := Tally{
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}
	d.logger.Info("download batch finished",
		zap.Int("succeeded", tally.Succeeded),
		zap.Int("failed", tally.Failed),
	)
	return tally
}
