// Package errors provides the structured error type used across featureguard
// and a parser that recovers feature violations from Go compiler output.
//
// Generated check files abort compilation with a constant conversion error
// that quotes the violation message. The parser finds those lines in the
// output of go build or go vet and turns them back into violations with the
// file location and the flags involved.
package errors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ViolationKind classifies a violation recovered from compiler output.
type ViolationKind int

const (
	ViolationUnknown ViolationKind = iota
	ViolationConflict
	ViolationCoverage
)

// String returns the name of the kind.
func (k ViolationKind) String() string {
	switch k {
	case ViolationConflict:
		return "conflict"
	case ViolationCoverage:
		return "coverage"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ViolationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParsedViolation is one feature violation found in compiler output.
type ParsedViolation struct {
	Kind     ViolationKind `json:"kind" yaml:"kind"`
	File     string        `json:"file" yaml:"file"`
	Line     int           `json:"line" yaml:"line"`
	Column   int           `json:"column" yaml:"column"`
	Message  string        `json:"message" yaml:"message"`
	Flags    []string      `json:"flags" yaml:"flags"`
	RawError string        `json:"raw_error" yaml:"raw_error"`
}

// Location renders file:line:column, omitting unknown parts.
func (v *ParsedViolation) Location() string {
	if v.File == "" {
		return ""
	}
	loc := v.File
	if v.Line > 0 {
		loc += fmt.Sprintf(":%d", v.Line)
		if v.Column > 0 {
			loc += fmt.Sprintf(":%d", v.Column)
		}
	}
	return loc
}

// ViolationParser extracts violations from go build output.
type ViolationParser struct {
	location *regexp.Regexp
	quoted   *regexp.Regexp
	conflict *regexp.Regexp
	coverage *regexp.Regexp
	flag     *regexp.Regexp
}

// NewViolationParser creates a new parser.
func NewViolationParser() *ViolationParser {
	return &ViolationParser{
		location: regexp.MustCompile(`^(.+?\.go):(\d+):(\d+): (.+)$`),
		quoted:   regexp.MustCompile(`"((?:[^"\\]|\\.)*)" \(untyped string constant`),
		conflict: regexp.MustCompile("^The `([^`]+)` and `([^`]+)` features are mutually exclusive and cannot be enabled at the same time!$"),
		coverage: regexp.MustCompile("^You must enable exactly one of (.+) features!$"),
		flag:     regexp.MustCompile("`([^`]+)`"),
	}
}

// Parse scans output line by line and returns every violation, in order.
// Lines that are not violations are ignored.
func (p *ViolationParser) Parse(output string) []*ParsedViolation {
	var violations []*ParsedViolation

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if v := p.parseLine(line); v != nil {
			violations = append(violations, v)
		}
	}

	return violations
}

func (p *ViolationParser) parseLine(line string) *ParsedViolation {
	v := &ParsedViolation{RawError: line}

	body := line
	if m := p.location.FindStringSubmatch(line); m != nil {
		v.File = m[1]
		v.Line, _ = strconv.Atoi(m[2])
		v.Column, _ = strconv.Atoi(m[3])
		body = m[4]
	}

	message := body
	if m := p.quoted.FindStringSubmatch(body); m != nil {
		unquoted, err := strconv.Unquote(`"` + m[1] + `"`)
		if err != nil {
			return nil
		}
		message = unquoted
	}

	switch {
	case p.conflict.MatchString(message):
		m := p.conflict.FindStringSubmatch(message)
		v.Kind = ViolationConflict
		v.Flags = []string{m[1], m[2]}
	case p.coverage.MatchString(message):
		m := p.coverage.FindStringSubmatch(message)
		v.Kind = ViolationCoverage
		for _, f := range p.flag.FindAllStringSubmatch(m[1], -1) {
			v.Flags = append(v.Flags, f[1])
		}
	default:
		return nil
	}

	v.Message = message
	return v
}
