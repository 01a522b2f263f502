package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/conneroisu/featureguard/internal/buildtags"
	"github.com/conneroisu/featureguard/internal/generator"
	"github.com/conneroisu/featureguard/pkg/exclusive"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Errors []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// Err combines all errors, or returns nil.
func (vr *ValidationResult) Err() error {
	var err error
	for i := range vr.Errors {
		err = multierr.Append(err, &vr.Errors[i])
	}
	return err
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder
	for _, err := range vr.Errors {
		builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
		for _, suggestion := range err.Suggestions {
			builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
		}
	}
	return builder.String()
}

func (vr *ValidationResult) add(field string, value interface{}, message string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{
		Field:       field,
		Value:       value,
		Message:     message,
		Suggestions: suggestions,
	})
}

// Validate checks paths, the package name and every set declaration.
func Validate(c *Config) *ValidationResult {
	result := &ValidationResult{}

	if c.Package != "" && !isIdentifier(c.Package) {
		result.add("package", c.Package, "not a valid Go package name")
	}

	if err := validatePath(c.Output); err != nil {
		result.add("output", c.Output, err.Error(), "use a directory relative to the manifest")
	}

	if !generator.ValidPrefix(c.Prefix) {
		result.add("prefix", c.Prefix, "must start with a letter and contain only letters, digits and '_'",
			"files starting with '_' or '.' are ignored by the go command")
	}

	for i, p := range c.Scan.Paths {
		if err := validatePath(p); err != nil {
			result.add(fmt.Sprintf("scan.paths[%d]", i), p, err.Error())
		}
	}

	names := make(map[string]int)
	for i, s := range c.Sets {
		field := fmt.Sprintf("sets[%d]", i)

		if s.Name != "" {
			if !isFileNamePart(s.Name) {
				result.add(field+".name", s.Name, "must contain only letters, digits and '_'")
			}
			if first, ok := names[s.Name]; ok {
				result.add(field+".name", s.Name, fmt.Sprintf("duplicates sets[%d]", first))
			}
			names[s.Name] = i
		}

		if _, err := exclusive.ParseMode(s.Mode); err != nil {
			result.add(field+".mode", s.Mode, err.Error(), "none-or-one-of", "exactly-one-of")
		}

		if err := buildtags.Validate(s.Flags); err != nil {
			result.add(field+".flags", s.Flags, err.Error())
		}

		if err := (&exclusive.Set{Name: s.Name, Flags: s.Flags}).Validate(); err != nil {
			result.add(field+".flags", s.Flags, err.Error())
		}
	}

	return result
}

// validatePath rejects empty paths and parent directory traversal.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func isFileNamePart(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
