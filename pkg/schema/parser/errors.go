package parser

import (
	"fmt"
	"strings"
)

// ErrorType categorizes a problem found while loading a schema document.
type ErrorType string

const (
	ErrorTypeIO         ErrorType = "io"         // File access or size limit
	ErrorTypeSyntax     ErrorType = "syntax"     // Malformed JSON/YAML/TOML
	ErrorTypeStructural ErrorType = "structural" // Document does not follow the schema wire format
	ErrorTypeSemantic   ErrorType = "semantic"   // Well-formed but inconsistent rules
)

// Location points at the part of a document an error refers to.
type Location struct {
	File    string // Path or source label of the document
	Pointer string // JSON pointer into the document, "" for the whole document
}

// String returns "file#pointer", or just the file when there is no pointer.
func (l Location) String() string {
	file := l.File
	if file == "" {
		file = "<unknown>"
	}
	if l.Pointer == "" {
		return file
	}
	return file + "#" + l.Pointer
}

// IsValid reports whether the location names a source.
func (l Location) IsValid() bool {
	return l.File != ""
}

// Error is a single load problem with its location and an optional hint.
type Error struct {
	Type       ErrorType
	Message    string
	Location   Location
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s\n", e.Type, e.Message))
	if e.Location.IsValid() {
		sb.WriteString(fmt.Sprintf("  --> %s\n", e.Location.String()))
	}
	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  = suggestion: %s\n", e.Suggestion))
	}
	return sb.String()
}

// ErrorList accumulates load problems so that a document reports everything
// wrong with it at once.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]*Error, 0),
	}
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// AddError creates and adds a new error.
func (el *ErrorList) AddError(errType ErrorType, message string, location Location) {
	el.Add(&Error{Type: errType, Message: message, Location: location})
}

// AddErrorWithSuggestion creates and adds a new error with a suggestion.
func (el *ErrorList) AddErrorWithSuggestion(errType ErrorType, message string, location Location, suggestion string) {
	el.Add(&Error{Type: errType, Message: message, Location: location, Suggestion: suggestion})
}

// HasErrors returns true if the list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d error(s):\n\n", el.Count()))
	for i, err := range el.Errors {
		sb.WriteString(fmt.Sprintf("Error %d:\n", i+1))
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// ToError returns nil if the list is empty, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// ByType returns all errors of the given type.
func (el *ErrorList) ByType(errType ErrorType) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.Type == errType {
			result = append(result, err)
		}
	}
	return result
}

// HasErrorType returns true if the list contains an error of the given type.
func (el *ErrorList) HasErrorType(errType ErrorType) bool {
	for _, err := range el.Errors {
		if err.Type == errType {
			return true
		}
	}
	return false
}

// suggestClosest returns a "Did you mean" hint when unknown is within a few
// edits of a valid token, and otherwise lists the valid tokens.
func suggestClosest(unknown string, valid []string) string {
	if len(valid) == 0 {
		return ""
	}

	best, bestDist := "", 1000
	for _, v := range valid {
		if d := levenshteinDistance(unknown, v); d < bestDist {
			best, bestDist = v, d
		}
	}
	if bestDist < 4 {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}
	return fmt.Sprintf("Valid values: %s", strings.Join(valid, ", "))
}

func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}
