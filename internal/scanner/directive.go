package scanner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/conneroisu/featureguard/pkg/exclusive"
)

// DirectivePrefix starts every featureguard line comment.
const DirectivePrefix = "//featureguard:"

var (
	errEmptyList   = errors.New("flag list is empty")
	errEmptyFlag   = errors.New("empty element in flag list")
	errMissingName = errors.New("name= requires a value")
)

// Directive is one declaration found in source.
type Directive struct {
	Set    *exclusive.Set
	File   string
	Line   int
	Column int
}

// ParseDirective parses the text of a comment. ok is false when the comment
// is not a featureguard directive at all.
//
// Accepted forms:
//
//	//featureguard:none-or-one-of "a", "b", "c"
//	//featureguard:exactly-one-of "a", "b",
//	//featureguard:exactly-one-of name=tls rustls nativetls
func ParseDirective(text string) (set *exclusive.Set, ok bool, err error) {
	rest, found := strings.CutPrefix(text, DirectivePrefix)
	if !found {
		return nil, false, nil
	}

	verb, args := rest, ""
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		verb, args = rest[:i], rest[i:]
	}
	mode, err := exclusive.ParseMode(verb)
	if err != nil {
		return nil, true, err
	}

	name, args, err := cutName(strings.TrimSpace(args))
	if err != nil {
		return nil, true, err
	}

	flags, err := parseFlagList(args)
	if err != nil {
		return nil, true, err
	}

	set, err = exclusive.NewSet(name, mode, flags...)
	if err != nil {
		return nil, true, err
	}
	return set, true, nil
}

func cutName(args string) (string, string, error) {
	if !strings.HasPrefix(args, "name=") {
		return "", args, nil
	}
	end := strings.IndexAny(args, " \t,")
	if end < 0 {
		end = len(args)
	}
	name := strings.TrimPrefix(args[:end], "name=")
	if name == "" {
		return "", "", errMissingName
	}
	rest := strings.TrimSpace(args[end:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ","))
	return name, rest, nil
}

// parseFlagList reads a comma separated list with an optional trailing
// comma. Without commas, whitespace separates the elements. Elements may be
// Go string literals or bare words.
func parseFlagList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, ","))
	if s == "" {
		return nil, errEmptyList
	}

	var parts []string
	if strings.Contains(s, ",") {
		parts = strings.Split(s, ",")
	} else {
		parts = strings.Fields(s)
	}

	flags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, errEmptyFlag
		}
		if p[0] == '"' || p[0] == '`' {
			unquoted, err := strconv.Unquote(p)
			if err != nil {
				return nil, fmt.Errorf("bad string literal %s: %w", p, err)
			}
			p = unquoted
		}
		flags = append(flags, p)
	}
	return flags, nil
}
