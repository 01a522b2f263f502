package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/featureguard/internal/buildtags"
)

// tagsValue is a pflag.Value accepting build tags the way go build -tags
// does: comma or space separated, repeatable.
type tagsValue struct {
	tags []string
}

var _ pflag.Value = (*tagsValue)(nil)

func (v *tagsValue) String() string {
	return strings.Join(v.tags, ",")
}

func (v *tagsValue) Set(s string) error {
	tags := buildtags.Parse(s)
	if err := buildtags.Validate(tags); err != nil {
		return err
	}
	v.tags = append(v.tags, tags...)
	return nil
}

func (v *tagsValue) Type() string {
	return "tags"
}

// formatValue restricts an output format flag to a fixed list.
type formatValue struct {
	value   string
	allowed []string
}

var _ pflag.Value = (*formatValue)(nil)

func newFormatValue(def string, allowed ...string) *formatValue {
	return &formatValue{value: def, allowed: allowed}
}

func (v *formatValue) String() string {
	return v.value
}

func (v *formatValue) Set(s string) error {
	for _, a := range v.allowed {
		if s == a {
			v.value = s
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (supported: %s)", s, strings.Join(v.allowed, ", "))
}

func (v *formatValue) Type() string {
	return "format"
}

// writeStructured writes v as JSON or YAML. Text output is left to callers.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
