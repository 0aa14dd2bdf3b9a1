package config

import (
	"errors"
	"sync"
	"testing"
)

func resetSingleton(t *testing.T) {
	t.Helper()
	SetConfig(nil)
	t.Cleanup(func() { SetConfig(nil) })
}

func TestInitialize(t *testing.T) {
	resetSingleton(t)

	if GetConfig() != nil {
		t.Fatal("GetConfig() before Initialize should be nil")
	}

	path := writeConfig(t, "registry:\n  dir: ./first\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := GetConfig().Registry.Dir; got != "./first" {
		t.Errorf("Dir = %q", got)
	}

	// Later calls keep the first configuration.
	other := writeConfig(t, "registry:\n  dir: ./second\n")
	if err := Initialize(other); err != nil {
		t.Fatalf("second Initialize() error = %v", err)
	}
	if got := GetConfig().Registry.Dir; got != "./first" {
		t.Errorf("Dir after second Initialize = %q", got)
	}
}

func TestInitializeRetryAfterFailure(t *testing.T) {
	resetSingleton(t)

	bad := writeConfig(t, "registry:\n  mode: nope\n")
	if err := Initialize(bad); err == nil {
		t.Fatal("Initialize() with invalid config should fail")
	}
	if GetConfig() != nil {
		t.Fatal("failed Initialize stored a config")
	}

	good := writeConfig(t, "registry:\n  dir: ./ok\n")
	if err := Initialize(good); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetConfig() == nil {
		t.Fatal("GetConfig() = nil after successful Initialize")
	}
}

func TestReloadConfig(t *testing.T) {
	resetSingleton(t)

	if err := ReloadConfig(""); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("ReloadConfig() before Initialize = %v", err)
	}

	path := writeConfig(t, "registry:\n  dir: ./v1\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	next := writeConfig(t, "registry:\n  dir: ./v2\n")
	if err := ReloadConfig(next); err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if got := GetConfig().Registry.Dir; got != "./v2" {
		t.Errorf("Dir = %q, want ./v2", got)
	}

	broken := writeConfig(t, "registry:\n  mode: nope\n")
	if err := ReloadConfig(broken); err == nil {
		t.Fatal("ReloadConfig() with invalid config should fail")
	}
	if got := GetConfig().Registry.Dir; got != "./v2" {
		t.Errorf("failed reload replaced config: Dir = %q", got)
	}
}

func TestMustGetConfig(t *testing.T) {
	resetSingleton(t)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("MustGetConfig() did not panic")
			}
		}()
		MustGetConfig()
	}()

	SetConfig(NewDefaultConfig())
	if MustGetConfig() == nil {
		t.Error("MustGetConfig() = nil")
	}
}

func TestGetConfigConcurrent(t *testing.T) {
	resetSingleton(t)
	SetConfig(NewDefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = GetConfig()
		}()
		go func() {
			defer wg.Done()
			SetConfig(NewDefaultConfig())
		}()
	}
	wg.Wait()

	if GetConfig() == nil {
		t.Error("GetConfig() = nil")
	}
}
