package gitsource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/registry"
)

const userDoc = `{"name": "user", "fields": {"email": {"field_type": "string", "required": true}}}`

const eventDoc = `
name: event
fields:
  timestamp:
    field_type: datetime
    required: true
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// initSource creates a repository with one committed schema document.
func initSource(t *testing.T) (string, *gogit.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	commitFile(t, repo, dir, "schemas/user.json", userDoc, "add user schema")
	return dir, repo
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content, msg string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func gitConfig(source, local string) *config.GitSourceConfig {
	return &config.GitSourceConfig{
		Repository: source,
		Branch:     "master",
		Path:       "schemas",
		Auth:       config.GitAuthConfig{Type: "none"},
		Poll:       config.GitPollConfig{Enabled: true, Interval: time.Second, Timeout: 10 * time.Second},
		Clone:      config.GitCloneConfig{Depth: 0, LocalPath: local},
	}
}

func TestNewAuthProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.GitAuthConfig
		wantType string
		wantErr  bool
	}{
		{"nil", nil, "", true},
		{"none", &config.GitAuthConfig{Type: "none"}, "none", false},
		{"empty", &config.GitAuthConfig{}, "none", false},
		{"token", &config.GitAuthConfig{Type: "token", Token: "abc"}, "token", false},
		{"token missing", &config.GitAuthConfig{Type: "token"}, "", true},
		{"ssh", &config.GitAuthConfig{Type: "ssh", SSHKeyPath: "/keys/id"}, "ssh", false},
		{"ssh missing", &config.GitAuthConfig{Type: "ssh"}, "", true},
		{"unknown", &config.GitAuthConfig{Type: "kerberos"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewAuthProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAuthProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.Type() != tt.wantType {
				t.Errorf("Type() = %q, want %q", p.Type(), tt.wantType)
			}
		})
	}
}

func TestTokenAuth(t *testing.T) {
	if _, err := NewTokenAuth("").Auth(); err == nil {
		t.Error("empty token should error")
	}
	auth, err := NewTokenAuth("secret").Auth()
	if err != nil || auth == nil {
		t.Fatalf("Auth() = %v, %v", auth, err)
	}
}

func TestSSHAuthPermissions(t *testing.T) {
	key := filepath.Join(t.TempDir(), "id_test")
	if err := os.WriteFile(key, []byte("not a key"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSSHAuth(key, "").Auth(); err == nil {
		t.Error("world-readable key should be rejected")
	}

	if err := os.Chmod(key, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSSHAuth(key, "").Auth(); err == nil {
		t.Error("invalid key contents should be rejected")
	}

	if _, err := NewSSHAuth(filepath.Join(t.TempDir(), "absent"), "").Auth(); err == nil {
		t.Error("missing key should be rejected")
	}
}

func TestNewRepository(t *testing.T) {
	if _, err := NewRepository(nil); err == nil {
		t.Error("nil config should error")
	}
	if _, err := NewRepository(&config.GitSourceConfig{Branch: "main"}); err == nil {
		t.Error("empty repository should error")
	}
	if _, err := NewRepository(&config.GitSourceConfig{Repository: "https://example.com/x.git"}); err == nil {
		t.Error("empty branch should error")
	}

	repo, err := NewRepository(&config.GitSourceConfig{Repository: "https://example.com/x.git", Branch: "main", Path: "defs"})
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if repo.SchemaPath() != filepath.Join(repo.LocalPath(), "defs") {
		t.Errorf("SchemaPath() = %q", repo.SchemaPath())
	}
}

func TestRepositoryBeforeClone(t *testing.T) {
	repo, err := NewRepository(gitConfig("https://example.com/x.git", t.TempDir()))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if _, err := repo.Pull(context.Background()); !errors.Is(err, ErrNotCloned) {
		t.Errorf("Pull() error = %v, want ErrNotCloned", err)
	}
	if _, err := repo.CurrentCommit(); !errors.Is(err, ErrNotCloned) {
		t.Errorf("CurrentCommit() error = %v, want ErrNotCloned", err)
	}
	if err := repo.ResetTo("abc"); !errors.Is(err, ErrNotCloned) {
		t.Errorf("ResetTo() error = %v, want ErrNotCloned", err)
	}
}

func TestCloneAndPull(t *testing.T) {
	sourceDir, source := initSource(t)
	local := t.TempDir()

	repo, err := NewRepository(gitConfig(sourceDir, local))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if err := repo.Clone(context.Background()); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(repo.SchemaPath(), "user.json")); err != nil {
		t.Fatalf("schema not checked out: %v", err)
	}

	commit, err := repo.CurrentCommit()
	if err != nil {
		t.Fatalf("CurrentCommit() error = %v", err)
	}
	if commit.Author != "Test User" || commit.Branch != "master" || len(commit.ShortSHA()) != 8 {
		t.Errorf("CurrentCommit() = %+v", commit)
	}

	result, err := repo.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if result.HadChanges {
		t.Error("Pull() without new commits reported changes")
	}

	commitFile(t, source, sourceDir, "schemas/event.yaml", eventDoc, "add event schema")
	result, err = repo.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if !result.HadChanges || len(result.ChangedFiles) != 1 || result.ChangedFiles[0] != "schemas/event.yaml" {
		t.Errorf("Pull() = %+v", result)
	}

	m := repo.Metrics()
	if m.SuccessfulPulls != 2 || m.LastCommitSHA != result.ToSHA {
		t.Errorf("Metrics() = %+v", m)
	}

	// A second manager reuses the existing clone.
	again, err := NewRepository(gitConfig(sourceDir, local))
	if err != nil {
		t.Fatal(err)
	}
	if err := again.Clone(context.Background()); err != nil {
		t.Fatalf("Clone() over existing clone error = %v", err)
	}
}

func setupPoller(t *testing.T) (*Poller, *registry.Registry, *gogit.Repository, string) {
	t.Helper()
	sourceDir, source := initSource(t)

	repo, err := NewRepository(gitConfig(sourceDir, t.TempDir()))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if err := repo.Clone(context.Background()); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}

	reg, err := registry.New(&config.RegistryConfig{Dir: repo.SchemaPath()}, testLogger())
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	if err := reg.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	p, err := NewPoller(repo, time.Hour, reg.Reload, testLogger())
	if err != nil {
		t.Fatalf("NewPoller() error = %v", err)
	}
	return p, reg, source, sourceDir
}

func TestNewPoller(t *testing.T) {
	repo := &Repository{}
	reload := func() error { return nil }
	if _, err := NewPoller(nil, time.Second, reload, nil); err == nil {
		t.Error("nil repository should error")
	}
	if _, err := NewPoller(repo, time.Second, nil, nil); err == nil {
		t.Error("nil reload should error")
	}
	if _, err := NewPoller(repo, 0, reload, nil); err == nil {
		t.Error("zero interval should error")
	}
}

func TestPollerReloadsOnSchemaChange(t *testing.T) {
	p, reg, source, sourceDir := setupPoller(t)
	ctx := context.Background()

	if err := p.Check(ctx); err != nil {
		t.Fatalf("Check() without changes error = %v", err)
	}

	commitFile(t, source, sourceDir, "schemas/event.yaml", eventDoc, "add event schema")
	if err := p.Check(ctx); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if _, ok := reg.Get("event"); !ok {
		t.Error("event schema not loaded after poll")
	}

	commitFile(t, source, sourceDir, "README.md", "docs", "docs only")
	if err := p.Check(ctx); err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	m := p.Metrics()
	if m.Polls != 3 || m.SuccessfulReloads != 1 || m.SkippedChanges != 1 {
		t.Errorf("Metrics() = %+v", m)
	}
}

func TestPollerResetsRejectedCommit(t *testing.T) {
	p, reg, source, sourceDir := setupPoller(t)
	ctx := context.Background()
	good := p.ActiveSHA()
	if good == "" {
		// Check records the starting commit.
		if err := p.Check(ctx); err != nil {
			t.Fatal(err)
		}
		good = p.ActiveSHA()
	}

	commitFile(t, source, sourceDir, "schemas/broken.json", `{"fields": {"x": {"field_type": "text"}}}`, "break")
	if err := p.Check(ctx); err == nil {
		t.Fatal("Check() with broken schema should fail")
	}
	if _, ok := reg.Get("user"); !ok {
		t.Error("registry dropped schemas after rejected commit")
	}
	if p.ActiveSHA() != good {
		t.Errorf("ActiveSHA() = %q, want %q", p.ActiveSHA(), good)
	}
	if _, err := os.Stat(filepath.Join(p.repo.SchemaPath(), "broken.json")); !os.IsNotExist(err) {
		t.Error("rejected file still checked out after reset")
	}

	// The branch has not moved, so the next poll does not retry the reload.
	if err := p.Check(ctx); err != nil {
		t.Fatalf("Check() at rejected commit error = %v", err)
	}
	if m := p.Metrics(); m.FailedReloads != 1 {
		t.Errorf("FailedReloads = %d, want 1", m.FailedReloads)
	}

	commitFile(t, source, sourceDir, "schemas/broken.json", `{"name": "event", "fields": {"x": {"field_type": "string"}}}`, "fix")
	if err := p.Check(ctx); err != nil {
		t.Fatalf("Check() after fix error = %v", err)
	}
	if _, ok := reg.Get("event"); !ok {
		t.Error("fixed schema not loaded")
	}
}

func TestPollerRun(t *testing.T) {
	p, _, _, _ := setupPoller(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
