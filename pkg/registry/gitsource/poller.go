package gitsource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bastion-hq/bastion/pkg/schema/parser"
)

// ReloadFunc reloads schemas from the clone. A non-nil error means the new
// commit is rejected.
type ReloadFunc func() error

// Poller pulls the repository on an interval and reloads schemas when a pull
// brings in schema document changes. A commit whose schemas fail to load is
// reset away and not retried until the branch moves past it.
type Poller struct {
	repo     *Repository
	interval time.Duration
	reload   ReloadFunc
	logger   *slog.Logger

	mu       sync.Mutex
	running  bool
	goodSHA  string
	rejected string
	metrics  PollerMetrics
}

// NewPoller creates a poller. interval must be positive.
func NewPoller(repo *Repository, interval time.Duration, reload ReloadFunc, logger *slog.Logger) (*Poller, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository cannot be nil")
	}
	if reload == nil {
		return nil, fmt.Errorf("reload function cannot be nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		repo:     repo,
		interval: interval,
		reload:   reload,
		logger:   logger.With("component", "gitsource"),
	}, nil
}

// Run polls until ctx is cancelled. The repository must already be cloned.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	commit, err := p.repo.CurrentCommit()
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to get initial commit: %w", err)
	}
	p.running = true
	if p.goodSHA == "" {
		p.goodSHA = commit.SHA
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.logger.Info("Git poller started",
		"poll_interval", p.interval,
		"commit", commit.ShortSHA(),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Git poller stopped")
			return nil
		case <-ticker.C:
			if err := p.Check(ctx); err != nil {
				p.logger.Error("Error checking for schema changes", "error", err)
			}
		}
	}
}

// Check performs one poll: pull, and reload if schema files changed.
func (p *Poller) Check(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.Polls++
	if p.goodSHA == "" {
		commit, err := p.repo.CurrentCommit()
		if err != nil {
			return fmt.Errorf("failed to get current commit: %w", err)
		}
		p.goodSHA = commit.SHA
	}

	result, err := p.repo.Pull(ctx)
	if err != nil {
		return err
	}
	if !result.HadChanges {
		return nil
	}

	if result.ToSHA == p.rejected {
		if err := p.repo.ResetTo(p.goodSHA); err != nil {
			return fmt.Errorf("failed to reset rejected commit: %w", err)
		}
		p.logger.Debug("Branch still at rejected commit", "commit", shortSHA(result.ToSHA))
		return nil
	}

	p.logger.Info("Detected repository changes",
		"from_sha", shortSHA(result.FromSHA),
		"to_sha", shortSHA(result.ToSHA),
		"changed_files", len(result.ChangedFiles),
	)

	if !hasSchemaChanges(result.ChangedFiles) {
		p.metrics.SkippedChanges++
		p.goodSHA = result.ToSHA
		p.logger.Info("No schema documents changed, skipping reload", "changed_files", result.ChangedFiles)
		return nil
	}

	if err := p.reload(); err != nil {
		p.metrics.FailedReloads++
		p.rejected = result.ToSHA
		p.logger.Error("Schemas at new commit failed to load, resetting",
			"error", err,
			"commit", shortSHA(result.ToSHA),
			"reset_to", shortSHA(p.goodSHA),
		)
		if resetErr := p.repo.ResetTo(p.goodSHA); resetErr != nil {
			return fmt.Errorf("schema reload failed: %w (reset also failed: %v)", err, resetErr)
		}
		return fmt.Errorf("schema reload failed at %s: %w", shortSHA(result.ToSHA), err)
	}

	p.metrics.SuccessfulReloads++
	p.metrics.LastReloadTime = time.Now()
	p.goodSHA = result.ToSHA
	p.rejected = ""
	p.logger.Info("Schemas reloaded from repository", "commit", shortSHA(result.ToSHA))
	return nil
}

// ActiveSHA returns the commit the served schemas were loaded from.
func (p *Poller) ActiveSHA() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.goodSHA
}

// Metrics returns a copy of the poll metrics.
func (p *Poller) Metrics() PollerMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

func hasSchemaChanges(files []string) bool {
	for _, f := range files {
		if parser.IsSchemaFile(f) {
			return true
		}
	}
	return false
}
