package registry

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var calls, last atomic.Int32
	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Trigger(func() {
			calls.Add(1)
			last.Store(n)
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
	if got := last.Load(); got != 5 {
		t.Errorf("last callback = %d, want 5", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })

	time.Sleep(80 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("callback ran %d times after Stop", got)
	}
}

func TestNewFileWatcher(t *testing.T) {
	if _, err := NewFileWatcher(WatcherConfig{}, nil); err == nil {
		t.Error("NewFileWatcher() with empty path should error")
	}

	fw, err := NewFileWatcher(WatcherConfig{Path: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}
	if fw.cfg.DebounceInterval != DefaultDebounceInterval {
		t.Errorf("DebounceInterval = %v", fw.cfg.DebounceInterval)
	}
	fw.Stop()
	fw.Stop()

	if err := fw.Watch(context.Background(), func() error { return nil }); err == nil {
		t.Error("Watch() after Stop should error")
	}
}

func TestFileWatcherRelevant(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWatcher(WatcherConfig{Path: dir, SkipHidden: true}, testLogger())
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}
	defer fw.Stop()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"json write", fsnotify.Event{Name: dir + "/a.json", Op: fsnotify.Write}, true},
		{"yml create", fsnotify.Event{Name: dir + "/a.yml", Op: fsnotify.Create}, true},
		{"toml remove", fsnotify.Event{Name: dir + "/a.toml", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: dir + "/a.json", Op: fsnotify.Chmod}, false},
		{"other extension", fsnotify.Event{Name: dir + "/a.txt", Op: fsnotify.Write}, false},
		{"hidden file", fsnotify.Event{Name: dir + "/.a.json", Op: fsnotify.Write}, false},
		{"editor swap", fsnotify.Event{Name: dir + "/a.json.swp", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fw.relevant(tt.event); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestFileWatcherStop(t *testing.T) {
	fw, err := NewFileWatcher(WatcherConfig{Path: t.TempDir()}, testLogger())
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- fw.Watch(context.Background(), func() error { return nil }) }()
	time.Sleep(100 * time.Millisecond)

	fw.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() did not return after Stop")
	}
}
