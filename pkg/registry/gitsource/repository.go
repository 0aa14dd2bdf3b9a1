package gitsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"bastion-hq/bastion/pkg/config"
)

// ErrNotCloned is returned by operations that need a local clone.
var ErrNotCloned = errors.New("repository not initialized, call Clone() first")

// Repository manages the local clone of a schema repository.
type Repository struct {
	cfg       config.GitSourceConfig
	localPath string
	auth      AuthProvider

	mu      sync.RWMutex
	repo    *gogit.Repository
	metrics RepositoryMetrics
}

// NewRepository validates cfg and prepares a repository manager. Nothing is
// fetched until Clone.
func NewRepository(cfg *config.GitSourceConfig) (*Repository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Repository == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, fmt.Errorf("branch cannot be empty")
	}

	auth, err := NewAuthProvider(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}

	localPath := cfg.Clone.LocalPath
	if localPath == "" {
		localPath = filepath.Join(os.TempDir(), "bastion-schemas")
	}

	return &Repository{
		cfg:       *cfg,
		localPath: localPath,
		auth:      auth,
	}, nil
}

// Clone makes the local clone available. An existing clone at the local path
// is reused unless CleanOnStart is set.
func (r *Repository) Clone(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	defer func() { r.metrics.CloneDuration = time.Since(start) }()

	if r.cfg.Clone.CleanOnStart {
		if err := os.RemoveAll(r.localPath); err != nil {
			return fmt.Errorf("failed to clean existing repository: %w", err)
		}
	}

	if _, err := os.Stat(filepath.Join(r.localPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(r.localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo: %w", err)
		}
		r.repo = repo
		return nil
	}

	if err := os.MkdirAll(r.localPath, 0o755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}

	auth, err := r.auth.Auth()
	if err != nil {
		return fmt.Errorf("failed to get auth: %w", err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	repo, err := gogit.PlainCloneContext(ctx, r.localPath, false, &gogit.CloneOptions{
		URL:           r.cfg.Repository,
		Auth:          auth,
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  true,
		Depth:         r.cfg.Clone.Depth,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}

	r.repo = repo
	return nil
}

// Pull fetches and fast-forwards the tracked branch.
func (r *Repository) Pull(ctx context.Context) (*PullResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	defer func() {
		r.metrics.PullDuration = time.Since(start)
		r.metrics.LastPullTime = time.Now()
	}()

	if r.repo == nil {
		return nil, ErrNotCloned
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	fromSHA := head.Hash().String()

	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	auth, err := r.auth.Auth()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth: %w", err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err = worktree.PullContext(ctx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		r.metrics.FailedPulls++
		return nil, fmt.Errorf("failed to pull: %w", err)
	}
	r.metrics.SuccessfulPulls++

	head, err = r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get new HEAD: %w", err)
	}
	result := &PullResult{
		FromSHA:    fromSHA,
		ToSHA:      head.Hash().String(),
		HadChanges: fromSHA != head.Hash().String(),
	}

	if result.HadChanges {
		files, err := r.changedFiles(fromSHA, result.ToSHA)
		if err != nil {
			return nil, fmt.Errorf("failed to get changed files: %w", err)
		}
		result.ChangedFiles = files
		r.metrics.LastCommitSHA = result.ToSHA
	}

	return result, nil
}

// changedFiles lists paths that differ between two commits. Callers hold mu.
func (r *Repository) changedFiles(fromSHA, toSHA string) ([]string, error) {
	fromCommit, err := r.repo.CommitObject(plumbing.NewHash(fromSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get from commit: %w", err)
	}
	toCommit, err := r.repo.CommitObject(plumbing.NewHash(toSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get to commit: %w", err)
	}

	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get from tree: %w", err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get to tree: %w", err)
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	files := make([]string, 0, len(changes))
	for _, change := range changes {
		if change.To.Name != "" {
			files = append(files, change.To.Name)
		} else if change.From.Name != "" {
			files = append(files, change.From.Name)
		}
	}
	return files, nil
}

// CurrentCommit returns metadata about the checked-out commit.
func (r *Repository) CurrentCommit() (*CommitInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}

	return &CommitInfo{
		SHA:        commit.Hash.String(),
		Author:     commit.Author.Name,
		Email:      commit.Author.Email,
		Timestamp:  commit.Author.When,
		Message:    commit.Message,
		Branch:     r.cfg.Branch,
		Repository: r.cfg.Repository,
	}, nil
}

// ResetTo hard-resets the tracked branch and worktree to sha. It is used to
// return to the last commit whose schemas loaded.
func (r *Repository) ResetTo(sha string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return ErrNotCloned
	}

	hash := plumbing.NewHash(sha)
	if _, err := r.repo.CommitObject(hash); err != nil {
		return fmt.Errorf("target commit not found: %w", err)
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := worktree.Reset(&gogit.ResetOptions{Commit: hash, Mode: gogit.HardReset}); err != nil {
		return fmt.Errorf("failed to reset to commit %s: %w", shortSHA(sha), err)
	}
	return nil
}

// LocalPath returns where the repository is cloned.
func (r *Repository) LocalPath() string {
	return r.localPath
}

// SchemaPath returns the directory inside the clone holding schema documents.
func (r *Repository) SchemaPath() string {
	return filepath.Join(r.localPath, r.cfg.Path)
}

// Metrics returns a copy of the operation metrics.
func (r *Repository) Metrics() RepositoryMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.Poll.Timeout > 0 {
		return context.WithTimeout(ctx, r.cfg.Poll.Timeout)
	}
	return context.WithCancel(ctx)
}
