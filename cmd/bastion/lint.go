package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bastion-hq/bastion/pkg/cli"
	"bastion-hq/bastion/pkg/registry"
	"bastion-hq/bastion/pkg/schema/parser"
)

var lintFlags struct {
	file   string
	dir    string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate schema documents",
	Long: `Validate schema documents for syntax, structural and semantic errors.

The lint command loads schema documents exactly as the registry would:
  - JSON, YAML or TOML syntax
  - Document structure (field types, rule names, rule values)
  - Semantic checks (regex compilation, rules on the wrong field type)
  - Warnings for unsatisfiable bounds and duplicate rules
  - Duplicate schema names across a directory

Examples:
  # Lint a single file
  bastion lint --file schemas/user.json

  # Lint a directory (recursively)
  bastion lint --dir schemas/

  # Strict mode (warnings as errors)
  bastion lint --dir schemas/ --strict

  # JSON output for CI/CD
  bastion lint --dir schemas/ --format json`,
	RunE: lintSchemas,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "schema document to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of schema documents")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

func lintSchemas(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}
	format, err := cli.ParseFormat(lintFlags.format)
	if err != nil {
		return err
	}

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		found, err := registry.SchemaFiles(lintFlags.dir)
		if err != nil {
			return cli.NewCommandError("lint", err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no schema documents found")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Strict mode is applied by the report, so warnings stay warnings in
	// the output.
	p := parser.NewParser().WithMaxFileSize(cfg.Registry.MaxFileSize)

	report := &cli.LintReport{Strict: lintFlags.strict}
	seen := make(map[string]string)
	for _, file := range files {
		doc, err := p.Parse(file)
		res := cli.NewLintResult(file, doc, err)
		if err == nil {
			if prev, dup := seen[res.Schema]; dup {
				res.Errors = append(res.Errors, cli.LintIssue{
					Type:       string(parser.ErrorTypeSemantic),
					Message:    fmt.Sprintf("schema name '%s' is already defined in %s", res.Schema, prev),
					Location:   parser.Location{File: file, Pointer: "/name"}.String(),
					Suggestion: "Give each schema document a distinct name",
				})
			} else {
				seen[res.Schema] = file
			}
		}
		report.Results = append(report.Results, res)
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.OK() {
		return cli.ErrChecksFailed
	}
	return nil
}
