package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/schema/parser"
)

const userDoc = `{
  "name": "user",
  "fields": {
    "user_id": {"field_type": "integer", "required": true},
    "email": {
      "field_type": "string",
      "required": true,
      "rules": [{"rule": "pattern", "value": "^[^@]+@[^@]+$"}]
    }
  }
}`

const eventDoc = `
name: event
fields:
  timestamp:
    field_type: datetime
    required: true
    rules:
      - rule: date_time_format
        value: iso8601
`

const orderDoc = `
[fields.total]
field_type = "float"
required = true
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newRegistry(t *testing.T, dir string) *Registry {
	t.Helper()
	cfg := &config.RegistryConfig{
		Dir:              dir,
		DebounceInterval: 50 * time.Millisecond,
		MaxFileSize:      config.DefaultRegistryMaxFileSize,
	}
	r, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestNew(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("New(nil) should error")
	}
	if _, err := New(&config.RegistryConfig{}, nil); err == nil {
		t.Error("New() with empty dir should error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userDoc)
	writeFile(t, dir, "nested/event.yaml", eventDoc)
	writeFile(t, dir, "orders.toml", orderDoc)
	writeFile(t, dir, "README.md", "not a schema")
	writeFile(t, dir, ".hidden/ignored.json", "{broken")

	r := newRegistry(t, dir)
	if r.Version() != "" {
		t.Errorf("Version() before load = %q", r.Version())
	}
	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	for _, name := range []string{"user", "event", "orders"} {
		s, ok := r.Get(name)
		if !ok {
			t.Errorf("Get(%q) not found", name)
			continue
		}
		if s.Name != name {
			t.Errorf("Get(%q).Name = %q", name, s.Name)
		}
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}

	list := r.List()
	gotNames := make([]string, len(list))
	for i, s := range list {
		gotNames[i] = s.Name
	}
	if strings.Join(gotNames, ",") != "event,orders,user" {
		t.Errorf("List() names = %v", gotNames)
	}

	sum, ok := r.Describe("user")
	if !ok {
		t.Fatal("Describe(user) not found")
	}
	if sum.Fields != 2 || sum.Source != filepath.Join(dir, "user.json") {
		t.Errorf("Describe(user) = %+v", sum)
	}
	user, _ := r.Get("user")
	if sum.Fingerprint != user.Fingerprint() || sum.Fingerprint == "" {
		t.Errorf("fingerprint = %q, want %q", sum.Fingerprint, user.Fingerprint())
	}
	if r.Version() == "" || r.LastLoad().IsZero() || r.LastError() != nil {
		t.Errorf("state after load: version=%q loaded=%v err=%v", r.Version(), r.LastLoad(), r.LastError())
	}
}

func TestLoadEmptyDirectory(t *testing.T) {
	r := newRegistry(t, t.TempDir())
	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d", r.Len())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  []string
	}{
		{
			name: "duplicate names",
			files: map[string]string{
				"a.json": userDoc,
				"b.json": userDoc,
			},
			want: []string{"schema name 'user' is already defined"},
		},
		{
			name: "every broken document reported",
			files: map[string]string{
				"good.json":  userDoc,
				"bad1.json":  `{"fields": {"x": {"field_type": "text"}}}`,
				"bad2.yaml":  "fields: [",
				"event.yaml": eventDoc,
			},
			want: []string{"bad1.json", "bad2.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}

			r := newRegistry(t, dir)
			err := r.Load()
			var list *parser.ErrorList
			if !errors.As(err, &list) {
				t.Fatalf("Load() error = %v, want *parser.ErrorList", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error does not mention %q:\n%s", w, err)
				}
			}
			if r.Len() != 0 {
				t.Errorf("failed load registered %d schemas", r.Len())
			}
		})
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	r := newRegistry(t, filepath.Join(t.TempDir(), "absent"))
	err := r.Load()
	var perr *parser.Error
	if !errors.As(err, &perr) || perr.Type != parser.ErrorTypeIO {
		t.Fatalf("Load() error = %v, want io error", err)
	}
}

func TestReloadKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userDoc)

	r := newRegistry(t, dir)
	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	version := r.Version()

	writeFile(t, dir, "user.json", `{"fields": {"email": {"field_type": "string", "rules": [{"rule": "pattern", "value": "("}]}}}`)
	if err := r.Reload(); err == nil {
		t.Fatal("Reload() with broken document should fail")
	}

	if _, ok := r.Get("user"); !ok {
		t.Error("previous schema was dropped after failed reload")
	}
	if r.Version() != version {
		t.Errorf("Version() changed after failed reload")
	}
	if r.LastError() == nil {
		t.Error("LastError() = nil after failed reload")
	}

	writeFile(t, dir, "user.json", strings.Replace(userDoc, `"user_id"`, `"id"`, 1))
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if r.Version() == version {
		t.Error("Version() unchanged after editing a schema")
	}
	if r.LastError() != nil {
		t.Errorf("LastError() = %v after successful reload", r.LastError())
	}
}

func TestStrictModeWarnings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "count.yaml", `
name: count
fields:
  n:
    field_type: integer
    rules:
      - {rule: min_length, value: 1}
`)

	r := newRegistry(t, dir)
	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(r.Warnings()) != 1 {
		t.Errorf("Warnings() = %v, want 1 warning", r.Warnings())
	}

	strict, err := New(&config.RegistryConfig{Dir: dir, Strict: true}, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := strict.Load(); err == nil {
		t.Error("strict Load() should fail on lint warnings")
	}
}

func TestOnReload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userDoc)

	r := newRegistry(t, dir)
	var events []ReloadEvent
	r.OnReload(func(ev ReloadEvent) { events = append(events, ev) })
	r.OnReload(nil)

	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	writeFile(t, dir, "broken.json", "{")
	_ = r.Reload()

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Trigger != "load" || events[0].Err != nil || events[0].Count != 1 {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Trigger != "reload" || events[1].Err == nil || events[1].Count != 1 {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestOnReloadHookRegistersHook(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userDoc)

	r := newRegistry(t, dir)
	var outer, inner int
	r.OnReload(func(ReloadEvent) {
		outer++
		if outer == 1 {
			r.OnReload(func(ReloadEvent) { inner++ })
		}
	})

	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if inner != 0 {
		t.Errorf("hook added during notify ran in the same notify")
	}
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if outer != 2 || inner != 1 {
		t.Errorf("outer = %d, inner = %d, want 2 and 1", outer, inner)
	}
}

func TestConcurrentGetDuringReload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userDoc)
	r := newRegistry(t, dir)
	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, ok := r.Get("user"); !ok {
					t.Error("user disappeared during reload")
					return
				}
				_ = r.List()
			}
		}()
	}
	for i := 0; i < 5; i++ {
		if err := r.Reload(); err != nil {
			t.Fatalf("Reload() error = %v", err)
		}
	}
	wg.Wait()
}

func TestWatchDisabled(t *testing.T) {
	r := newRegistry(t, t.TempDir())
	if err := r.Watch(context.Background()); err == nil {
		t.Error("Watch() with watch disabled should error")
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.json", userDoc)

	cfg := &config.RegistryConfig{Dir: dir, Watch: true, DebounceInterval: 50 * time.Millisecond}
	r, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	reloaded := make(chan ReloadEvent, 10)
	r.OnReload(func(ev ReloadEvent) {
		if ev.Trigger == "reload" {
			reloaded <- ev
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, dir, "event.yaml", eventDoc)

	select {
	case ev := <-reloaded:
		if ev.Err != nil {
			t.Fatalf("reload error = %v", ev.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	if _, ok := r.Get("event"); !ok {
		t.Error("new schema not loaded after watch reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() did not return after cancel")
	}
}
