package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/schema"
	"bastion-hq/bastion/pkg/schema/parser"
)

// Registry holds the schemas loaded from a directory of schema documents.
// Lookups are safe for concurrent use. A reload builds a complete new set
// and swaps it in only if every document loaded, so readers never observe
// a partial set.
type Registry struct {
	cfg    *config.RegistryConfig
	parser *parser.Parser
	logger *slog.Logger

	mu       sync.RWMutex
	entries  map[string]*entry
	version  string
	loadedAt time.Time
	lastErr  error

	hooksMu sync.RWMutex
	hooks   []func(ReloadEvent)

	watchMu  sync.Mutex
	watching bool
}

type entry struct {
	schema      *schema.Schema
	source      string
	fingerprint string
	warnings    []*parser.Error
}

// Summary describes one loaded schema.
type Summary struct {
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Fingerprint string    `json:"fingerprint"`
	Fields      int       `json:"fields"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// ReloadEvent reports the outcome of one load attempt.
type ReloadEvent struct {
	Trigger  string
	Version  string
	Count    int
	Duration time.Duration
	Err      error
}

// New creates an empty registry reading from cfg.Dir. Call Load to populate it.
func New(cfg *config.RegistryConfig, logger *slog.Logger) (*Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("schema directory cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		cfg:     cfg,
		parser:  parser.NewParser().WithMaxFileSize(cfg.MaxFileSize).WithStrictMode(cfg.Strict),
		logger:  logger.With("component", "registry"),
		entries: make(map[string]*entry),
	}, nil
}

// Dir returns the directory schemas are loaded from.
func (r *Registry) Dir() string {
	return r.cfg.Dir
}

// Load reads every schema document under the directory and replaces the
// loaded set. On failure the current set is kept and the returned error is a
// *parser.ErrorList naming every broken document.
func (r *Registry) Load() error {
	return r.load("load")
}

// Reload is Load for an already populated registry. The previous schemas
// stay active if any document fails.
func (r *Registry) Reload() error {
	return r.load("reload")
}

func (r *Registry) load(trigger string) error {
	start := time.Now()
	r.logger.Info("Loading schemas", "trigger", trigger, "dir", r.cfg.Dir)

	entries, err := r.readAll()

	r.mu.Lock()
	if err != nil {
		r.lastErr = err
		count := len(r.entries)
		version := r.version
		r.mu.Unlock()

		r.logger.Error("Failed to load schemas, keeping previous schemas",
			"error", err,
			"schemas", count,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		r.notify(ReloadEvent{Trigger: trigger, Version: version, Count: count, Duration: time.Since(start), Err: err})
		return err
	}

	r.entries = entries
	r.version = versionOf(entries)
	r.loadedAt = time.Now()
	r.lastErr = nil
	version := r.version
	r.mu.Unlock()

	for _, e := range entries {
		for _, w := range e.warnings {
			r.logger.Warn("Schema lint warning",
				"schema", e.schema.Name,
				"location", w.Location.String(),
				"message", w.Message,
			)
		}
	}
	if len(entries) == 0 {
		r.logger.Warn("No schema documents found", "dir", r.cfg.Dir)
	}
	r.logger.Info("Schemas loaded",
		"count", len(entries),
		"version", version,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	r.notify(ReloadEvent{Trigger: trigger, Version: version, Count: len(entries), Duration: time.Since(start)})
	return nil
}

// readAll parses every document and indexes it by schema name.
func (r *Registry) readAll() (map[string]*entry, error) {
	files, err := SchemaFiles(r.cfg.Dir)
	if err != nil {
		return nil, err
	}

	errs := parser.NewErrorList()
	entries := make(map[string]*entry, len(files))
	for _, path := range files {
		doc, err := r.parser.Parse(path)
		if err != nil {
			addParseError(errs, path, err)
			continue
		}

		name := doc.Schema.Name
		if prev, dup := entries[name]; dup {
			errs.AddErrorWithSuggestion(
				parser.ErrorTypeSemantic,
				fmt.Sprintf("schema name '%s' is already defined in %s", name, prev.source),
				parser.Location{File: path, Pointer: "/name"},
				"Give each schema document a distinct name",
			)
			continue
		}
		entries[name] = &entry{
			schema:      doc.Schema,
			source:      path,
			fingerprint: doc.Schema.Fingerprint(),
			warnings:    doc.Warnings,
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return entries, nil
}

func addParseError(errs *parser.ErrorList, path string, err error) {
	var list *parser.ErrorList
	if errors.As(err, &list) {
		for _, e := range list.Errors {
			errs.Add(e)
		}
		return
	}
	var single *parser.Error
	if errors.As(err, &single) {
		errs.Add(single)
		return
	}
	errs.AddError(parser.ErrorTypeIO, err.Error(), parser.Location{File: path})
}

// SchemaFiles walks dir for schema documents, skipping hidden entries.
// The result is sorted so duplicate detection is deterministic.
func SchemaFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &parser.Error{
			Type:     parser.ErrorTypeIO,
			Message:  fmt.Sprintf("Failed to access schema directory: %v", err),
			Location: parser.Location{File: dir},
		}
	}
	if !info.IsDir() {
		return nil, &parser.Error{
			Type:     parser.ErrorTypeIO,
			Message:  "Schema path is not a directory",
			Location: parser.Location{File: dir},
		}
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && parser.IsSchemaFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &parser.Error{
			Type:     parser.ErrorTypeIO,
			Message:  fmt.Sprintf("Failed to walk schema directory: %v", err),
			Location: parser.Location{File: dir},
		}
	}
	sort.Strings(files)
	return files, nil
}

// versionOf hashes the loaded names and fingerprints.
func versionOf(entries map[string]*entry) string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	h := xxh3.New()
	for _, name := range names {
		_, _ = h.WriteString(name)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(entries[name].fingerprint)
		_, _ = h.WriteString("\x00")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Get returns the schema registered under name. The schema is shared and must
// not be modified.
func (r *Registry) Get(name string) (*schema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.schema, true
}

// Describe returns the summary of one schema.
func (r *Registry) Describe(name string) (Summary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Summary{}, false
	}
	return r.summaryLocked(e), true
}

// List returns summaries of every loaded schema sorted by name.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, r.summaryLocked(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) summaryLocked(e *entry) Summary {
	return Summary{
		Name:        e.schema.Name,
		Source:      e.source,
		Fingerprint: e.fingerprint,
		Fields:      e.schema.Len(),
		LoadedAt:    r.loadedAt,
	}
}

// Warnings returns the lint warnings of the loaded set.
func (r *Registry) Warnings() []*parser.Error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*parser.Error
	for _, e := range r.entries {
		out = append(out, e.warnings...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location.String() < out[j].Location.String() })
	return out
}

// Len returns the number of loaded schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Version identifies the loaded set. It changes whenever a schema is added,
// removed or edited, and is empty before the first successful load.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// LastLoad returns when the current set was loaded.
func (r *Registry) LastLoad() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

// LastError returns the error of the most recent load attempt, or nil if it
// succeeded.
func (r *Registry) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// OnReload registers fn to be called after every load attempt.
func (r *Registry) OnReload(fn func(ReloadEvent)) {
	if fn == nil {
		return
	}
	r.hooksMu.Lock()
	r.hooks = append(r.hooks, fn)
	r.hooksMu.Unlock()
}

func (r *Registry) notify(ev ReloadEvent) {
	r.hooksMu.RLock()
	hooks := slices.Clone(r.hooks)
	r.hooksMu.RUnlock()

	for _, fn := range hooks {
		fn(ev)
	}
}

// Watch reloads the registry whenever a schema document under the directory
// changes. It blocks until ctx is cancelled.
func (r *Registry) Watch(ctx context.Context) error {
	if !r.cfg.Watch {
		return fmt.Errorf("schema watching is not enabled in configuration")
	}

	r.watchMu.Lock()
	if r.watching {
		r.watchMu.Unlock()
		return fmt.Errorf("watch already started")
	}
	r.watching = true
	r.watchMu.Unlock()
	defer func() {
		r.watchMu.Lock()
		r.watching = false
		r.watchMu.Unlock()
	}()

	watcher, err := NewFileWatcher(WatcherConfig{
		Path:             r.cfg.Dir,
		DebounceInterval: r.cfg.DebounceInterval,
		SkipHidden:       true,
	}, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	return watcher.Watch(ctx, r.Reload)
}
