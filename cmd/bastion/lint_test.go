package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"bastion-hq/bastion/pkg/cli"
)

const boundsSchema = `
name: bounds
fields:
  code:
    field_type: string
    rules:
      - rule: min_length
        value: 5
      - rule: max_length
        value: 2
`

func TestLintSchemas(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		useDir   bool
		file     string
		strict   bool
		wantErr  error
		contains []string
	}{
		{
			name:     "valid file",
			files:    map[string]string{"user.json": userSchema},
			file:     "user.json",
			contains: []string{`(schema "user", 3 fields)`, "1 file(s): 0 failed, 0 with warnings"},
		},
		{
			name:     "structural error",
			files:    map[string]string{"bad.json": `{"fields": {"x": {"field_type": "text"}}}`},
			file:     "bad.json",
			wantErr:  cli.ErrChecksFailed,
			contains: []string{"✗ ", "error[structural]"},
		},
		{
			name:     "warnings pass without strict",
			files:    map[string]string{"user.json": userSchema, "bounds.yaml": boundsSchema},
			useDir:   true,
			contains: []string{"⚠ ", "min_length 5 greater than max_length 2", "2 file(s): 0 failed, 1 with warnings"},
		},
		{
			name:    "warnings fail in strict mode",
			files:   map[string]string{"bounds.yaml": boundsSchema},
			useDir:  true,
			strict:  true,
			wantErr: cli.ErrChecksFailed,
		},
		{
			name: "duplicate names across directory",
			files: map[string]string{
				"a/user.json": userSchema,
				"b/user.toml": "name = \"user\"\n[fields.id]\nfield_type = \"integer\"\n",
			},
			useDir:   true,
			wantErr:  cli.ErrChecksFailed,
			contains: []string{"schema name 'user' is already defined in"},
		},
		{
			name: "hidden entries skipped",
			files: map[string]string{
				"user.json":        userSchema,
				".drafts/bad.json": `{`,
			},
			useDir:   true,
			contains: []string{"1 file(s): 0 failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useConfig(t, nil)
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			if tt.useDir {
				lintFlags.dir = dir
			}
			if tt.file != "" {
				lintFlags.file = filepath.Join(dir, tt.file)
			}
			lintFlags.strict = tt.strict

			cmd, out := newTestCommand("")
			err := lintSchemas(cmd, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("lintSchemas() error = %v, want %v\n%s", err, tt.wantErr, out.String())
			}
			for _, s := range tt.contains {
				if !strings.Contains(out.String(), s) {
					t.Errorf("output missing %q:\n%s", s, out.String())
				}
			}
		})
	}
}

func TestLintSchemasJSON(t *testing.T) {
	useConfig(t, nil)
	dir := t.TempDir()
	lintFlags.file = writeFile(t, dir, "bounds.yaml", boundsSchema)
	lintFlags.format = "json"

	cmd, out := newTestCommand("")
	if err := lintSchemas(cmd, nil); err != nil {
		t.Fatalf("lintSchemas() error = %v", err)
	}

	var report cli.LintReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(report.Results) != 1 || len(report.Results[0].Warnings) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if loc := report.Results[0].Warnings[0].Location; !strings.Contains(loc, "#/fields/code/rules/1") {
		t.Errorf("warning location = %q", loc)
	}
}

func TestLintSchemasUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		dir  string
	}{
		{"nothing given", "", ""},
		{"missing directory", "", filepath.Join(t.TempDir(), "nope")},
		{"empty directory", "", t.TempDir()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useConfig(t, nil)
			lintFlags.file, lintFlags.dir = tt.file, tt.dir

			cmd, _ := newTestCommand("")
			err := lintSchemas(cmd, nil)
			if err == nil || errors.Is(err, cli.ErrChecksFailed) {
				t.Errorf("lintSchemas() error = %v, want a usage error", err)
			}
		})
	}
}
