package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"bastion-hq/bastion/pkg/history"
	"bastion-hq/bastion/pkg/schema/parser"
	"bastion-hq/bastion/pkg/validate"
)

// ValidationResult is the outcome for one payload file.
type ValidationResult struct {
	Source string              `json:"source"`
	Valid  bool                `json:"valid"`
	Errors *validate.ErrorList `json:"errors,omitempty"`

	// Err is set when the payload could not be read or decoded.
	Err string `json:"error,omitempty"`
}

// Summary counts validation results.
type Summary struct {
	Total      int `json:"total"`
	Valid      int `json:"valid"`
	Invalid    int `json:"invalid"`
	Unreadable int `json:"unreadable"`
}

// ValidationReport is the output of the validate command.
type ValidationReport struct {
	Schema  string             `json:"schema"`
	Results []ValidationResult `json:"results"`
	Summary Summary            `json:"summary"`
}

// NewValidationReport builds a report and its summary. Results keep the
// order given.
func NewValidationReport(schemaName string, results []ValidationResult) *ValidationReport {
	r := &ValidationReport{Schema: schemaName, Results: results}
	for _, res := range results {
		r.Summary.Total++
		switch {
		case res.Err != "":
			r.Summary.Unreadable++
		case res.Valid:
			r.Summary.Valid++
		default:
			r.Summary.Invalid++
		}
	}
	return r
}

// OK reports whether every payload was read and valid.
func (r *ValidationReport) OK() bool {
	return r.Summary.Invalid == 0 && r.Summary.Unreadable == 0
}

// RenderText implements TextRenderer.
func (r *ValidationReport) RenderText(w io.Writer) error {
	for _, res := range r.Results {
		switch {
		case res.Err != "":
			fmt.Fprintf(w, "! %s: %s\n", res.Source, res.Err)
		case res.Valid:
			fmt.Fprintf(w, "✓ %s\n", res.Source)
		default:
			fmt.Fprintf(w, "✗ %s: %d error(s)\n", res.Source, res.Errors.Count())
			for _, e := range res.Errors.Errors {
				fmt.Fprintf(w, "    - [%s] %s\n", e.Kind(), e.Error())
			}
		}
	}
	_, err := fmt.Fprintf(w, "\n%d payload(s) against %q: %d valid, %d invalid, %d unreadable\n",
		r.Summary.Total, r.Schema, r.Summary.Valid, r.Summary.Invalid, r.Summary.Unreadable)
	return err
}

// LintIssue is one problem found in a schema document.
type LintIssue struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Location   string `json:"location"`
	Suggestion string `json:"suggestion,omitempty"`
}

// LintResult is the outcome for one schema document.
type LintResult struct {
	File     string      `json:"file"`
	Schema   string      `json:"schema,omitempty"`
	Fields   int         `json:"fields,omitempty"`
	Errors   []LintIssue `json:"errors,omitempty"`
	Warnings []LintIssue `json:"warnings,omitempty"`
}

// NewLintResult builds the result for one file from a parser outcome. Either
// doc or err is set.
func NewLintResult(file string, doc *parser.Document, err error) LintResult {
	res := LintResult{File: file}
	if err != nil {
		res.Errors = issues(parserErrors(err))
		return res
	}
	res.Schema = doc.Schema.Name
	res.Fields = doc.Schema.Len()
	res.Warnings = issues(doc.Warnings)
	return res
}

// parserErrors flattens the error shapes the parser returns.
func parserErrors(err error) []*parser.Error {
	var list *parser.ErrorList
	if errors.As(err, &list) {
		return list.Errors
	}
	var single *parser.Error
	if errors.As(err, &single) {
		return []*parser.Error{single}
	}
	return []*parser.Error{{Type: parser.ErrorTypeIO, Message: err.Error()}}
}

func issues(errs []*parser.Error) []LintIssue {
	if len(errs) == 0 {
		return nil
	}
	out := make([]LintIssue, 0, len(errs))
	for _, e := range errs {
		out = append(out, LintIssue{
			Type:       string(e.Type),
			Message:    e.Message,
			Location:   e.Location.String(),
			Suggestion: e.Suggestion,
		})
	}
	return out
}

// LintReport is the output of the lint command.
type LintReport struct {
	Strict  bool         `json:"strict"`
	Results []LintResult `json:"results"`
}

// OK reports whether every document loaded. In strict mode warnings count
// as failures too.
func (r *LintReport) OK() bool {
	for _, res := range r.Results {
		if len(res.Errors) > 0 || (r.Strict && len(res.Warnings) > 0) {
			return false
		}
	}
	return true
}

// RenderText implements TextRenderer.
func (r *LintReport) RenderText(w io.Writer) error {
	var failed, warned int
	for _, res := range r.Results {
		switch {
		case len(res.Errors) > 0:
			failed++
			fmt.Fprintf(w, "✗ %s\n", res.File)
			renderIssues(w, "error", res.Errors)
		case len(res.Warnings) > 0:
			warned++
			fmt.Fprintf(w, "⚠ %s (schema %q, %d fields)\n", res.File, res.Schema, res.Fields)
			renderIssues(w, "warning", res.Warnings)
		default:
			fmt.Fprintf(w, "✓ %s (schema %q, %d fields)\n", res.File, res.Schema, res.Fields)
		}
	}
	_, err := fmt.Fprintf(w, "\n%d file(s): %d failed, %d with warnings\n", len(r.Results), failed, warned)
	return err
}

func renderIssues(w io.Writer, level string, list []LintIssue) {
	for _, is := range list {
		fmt.Fprintf(w, "    %s[%s]: %s\n      --> %s\n", level, is.Type, is.Message, is.Location)
		if is.Suggestion != "" {
			fmt.Fprintf(w, "      = suggestion: %s\n", is.Suggestion)
		}
	}
}

// HistoryTable renders history records.
type HistoryTable struct {
	Total   int64             `json:"total"`
	Records []*history.Record `json:"records"`
}

// RenderText implements TextRenderer.
func (t *HistoryTable) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tSCHEMA\tVALID\tERRORS\tSOURCE\tSIZE\tID")
	for _, r := range t.Records {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%s\t%d\t%s\n",
			r.RecordedAt.Local().Format(time.DateTime), r.SchemaName, r.Valid,
			r.ErrorCount, r.Source, r.PayloadSize, r.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nshowing %d of %d record(s)\n", len(t.Records), t.Total)
	return err
}
