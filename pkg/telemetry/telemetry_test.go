package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"bastion-hq/bastion/pkg/config"
)

func TestNew(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("New(nil) should fail")
	}

	bad := config.NewDefaultConfig().Telemetry
	bad.Logging.Level = "loud"
	if _, err := New(&bad, nil); err == nil {
		t.Error("New() with an invalid level should fail")
	}

	cfg := config.NewDefaultConfig().Telemetry
	cfg.Logging.Format = "text"
	buf := &bytes.Buffer{}
	tel, err := New(&cfg, buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tel.Logger().Info("started")
	if !strings.Contains(buf.String(), "msg=started") {
		t.Errorf("log output = %q", buf.String())
	}
	if tel.Metrics() == nil || tel.Metrics().Registry() == nil {
		t.Error("metrics collector not built")
	}
	if status := tel.Health().CheckReadiness(context.Background()); !status.Ready() {
		t.Errorf("readiness with no checks = %q", status.Status)
	}
}
