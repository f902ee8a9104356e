package views

import (
	"fmt"
	"regexp"
	"strings"
)

type segmentKind int

const (
	segmentStatic segmentKind = iota
	segmentParam
	segmentCatchAll
)

// segment is one compiled piece of a route pattern.
type segment struct {
	kind       segmentKind
	text       string
	name       string
	source     string
	constraint *regexp.Regexp
	allowEmpty bool
}

// matches reports whether a decoded path segment satisfies the constraint.
func (s segment) matches(value string) bool {
	if s.constraint == nil {
		return true
	}
	return s.constraint.MatchString(value)
}

// pattern is a parsed route path such as "/exams/:examId" or "/:pathMatch(.*)*".
type pattern struct {
	raw      string
	segments []segment
}

func (p *pattern) params() []string {
	names := make([]string, 0, len(p.segments))
	for _, s := range p.segments {
		if s.kind != segmentStatic {
			names = append(names, s.name)
		}
	}
	return names
}

// parsePattern compiles raw. Unless sensitive, parameter constraints match
// without regard to case.
func parsePattern(raw string, sensitive bool) (*pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, raw)
	}

	p := &pattern{raw: raw}
	seen := make(map[string]bool)

	parts := splitPattern(raw)
	for i, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: %q contains an empty segment", ErrInvalidPattern, raw)
		}

		if !strings.HasPrefix(part, ":") {
			p.segments = append(p.segments, segment{kind: segmentStatic, text: part})
			continue
		}

		seg, err := parseParamSegment(part, sensitive)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, raw, err)
		}
		if seen[seg.name] {
			return nil, fmt.Errorf("%w: %q repeats parameter %q", ErrInvalidPattern, raw, seg.name)
		}
		seen[seg.name] = true

		if seg.kind == segmentCatchAll && i != len(parts)-1 {
			return nil, fmt.Errorf("%w: %q: catch-all %q must be the last segment", ErrInvalidPattern, raw, seg.name)
		}
		p.segments = append(p.segments, seg)
	}

	return p, nil
}

// splitPattern splits on "/" outside of parenthesised constraints so that
// expressions like ":rest([^/]+/.*)" stay intact.
func splitPattern(raw string) []string {
	body := raw[1:]
	if body == "" {
		return nil
	}
	body = strings.TrimSuffix(body, "/")

	var parts []string
	var cur strings.Builder
	depth := 0
	escaped := false

	for _, r := range body {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == '/' && depth == 0:
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	parts = append(parts, cur.String())
	return parts
}

// parseParamSegment parses ":name", ":name(regex)" and the repeatable forms
// ":name(regex)*" / ":name(regex)+".
func parseParamSegment(part string, sensitive bool) (segment, error) {
	body := part[1:]

	end := 0
	for end < len(body) && isIdentChar(body[end], end == 0) {
		end++
	}
	if end == 0 {
		return segment{}, fmt.Errorf("parameter %q has no name", part)
	}

	seg := segment{kind: segmentParam, name: body[:end]}
	rest := body[end:]

	if strings.HasPrefix(rest, "(") {
		closeIdx, err := closingParen(rest)
		if err != nil {
			return segment{}, fmt.Errorf("parameter %q: %w", seg.name, err)
		}
		seg.source = rest[1:closeIdx]
		if seg.source == "" {
			return segment{}, fmt.Errorf("parameter %q has an empty constraint", seg.name)
		}
		expr := "^(?:" + seg.source + ")$"
		if !sensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return segment{}, fmt.Errorf("parameter %q: %w", seg.name, err)
		}
		seg.constraint = re
		rest = rest[closeIdx+1:]
	}

	switch rest {
	case "":
	case "*":
		seg.kind = segmentCatchAll
		seg.allowEmpty = true
	case "+":
		seg.kind = segmentCatchAll
	default:
		return segment{}, fmt.Errorf("parameter %q has unsupported suffix %q", seg.name, rest)
	}

	return seg, nil
}

func closingParen(s string) (int, error) {
	depth := 0
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced parentheses in %q", s)
}

func isIdentChar(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}
