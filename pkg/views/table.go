package views

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxRedirects bounds the number of redirects followed by Resolve.
const MaxRedirects = 10

// Options tunes how a Table matches paths.
type Options struct {
	// Sensitive makes static segments and parameter constraints match
	// case-sensitively. Parameter values always keep their case.
	Sensitive bool
}

// Table is a compiled, immutable view table.
type Table struct {
	root      *node
	routes    []Route
	entries   []*entry
	named     map[string]*entry
	sensitive bool
}

// New compiles and validates the given routes with case-insensitive
// matching. Names must be unique, every route needs a view or a redirect,
// and named redirect targets must exist in the table.
func New(routes ...Route) (*Table, error) {
	return NewWithOptions(Options{}, routes...)
}

// NewWithOptions is New with explicit matching options.
func NewWithOptions(opts Options, routes ...Route) (*Table, error) {
	t := &Table{
		root:      &node{},
		routes:    make([]Route, 0, len(routes)),
		named:     make(map[string]*entry),
		sensitive: opts.Sensitive,
	}

	for _, r := range routes {
		if err := t.add(r); err != nil {
			return nil, err
		}
	}

	for _, e := range t.entries {
		if err := t.validateRedirect(e); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// MustNew is like New but panics on error. It is meant for tables declared
// as package-level values.
func MustNew(routes ...Route) *Table {
	t, err := New(routes...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) add(r Route) error {
	if r.View == "" && r.Redirect == nil {
		return fmt.Errorf("%w: %q needs a view or a redirect", ErrInvalidRoute, r.Path)
	}
	if r.View != "" && r.Redirect != nil {
		return fmt.Errorf("%w: %q cannot declare both a view and a redirect", ErrInvalidRoute, r.Path)
	}
	if r.Redirect != nil && (r.Redirect.Name == "") == (r.Redirect.Path == "") {
		return fmt.Errorf("%w: %q redirect needs exactly one of name or path", ErrInvalidRoute, r.Path)
	}

	p, err := parsePattern(r.Path, t.sensitive)
	if err != nil {
		return err
	}

	e := &entry{route: r, pattern: p}
	if err := t.root.insert(p, e, t.sensitive); err != nil {
		return fmt.Errorf("%w: %q", err, r.Path)
	}

	if r.Name != "" {
		if _, exists := t.named[r.Name]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)
		}
		t.named[r.Name] = e
	}

	t.routes = append(t.routes, r)
	t.entries = append(t.entries, e)
	return nil
}

func (t *Table) validateRedirect(e *entry) error {
	target := e.route.Redirect
	if target == nil {
		return nil
	}

	if target.Path != "" {
		if !strings.HasPrefix(target.Path, "/") {
			return fmt.Errorf("%w: %q redirect path %q must be absolute", ErrInvalidRoute, e.route.Path, target.Path)
		}
		return nil
	}

	dest, ok := t.named[target.Name]
	if !ok {
		return fmt.Errorf("%w: %q redirects to %q", ErrUnknownRoute, e.route.Path, target.Name)
	}

	available := make(map[string]bool)
	for _, name := range e.pattern.params() {
		available[name] = true
	}
	for _, name := range dest.pattern.params() {
		if !available[name] {
			return fmt.Errorf("%w: %q redirects to %q which requires %q", ErrMissingParam, e.route.Path, target.Name, name)
		}
	}
	return nil
}

// Routes returns the declared routes in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Lookup returns the route declared with the given name.
func (t *Table) Lookup(name string) (Route, bool) {
	e, ok := t.named[name]
	if !ok {
		return Route{}, false
	}
	return e.route, true
}

// URL builds the path of a named route from parameter values. Values are
// checked against segment constraints and percent-encoded.
func (t *Table) URL(name string, params map[string]string) (string, error) {
	e, ok := t.named[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	return buildPath(e.pattern, params)
}

// Resolve matches path against the table and follows redirects until a
// view route is reached.
func (t *Table) Resolve(path string) (*Resolution, error) {
	current, query := splitQuery(path)
	var redirectedFrom string

	for hops := 0; ; hops++ {
		raw, decoded := splitPath(current)

		e, values, ok := t.root.match(decoded, nil, t.sensitive)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoMatch, current)
		}

		params := bindParams(e.pattern, values)

		if e.route.Redirect == nil {
			res := &Resolution{
				Name:           e.route.Name,
				Path:           joinPath(raw),
				Query:          query,
				View:           e.route.View,
				Pattern:        e.route.Path,
				Params:         params,
				RedirectedFrom: redirectedFrom,
				Redirects:      hops,
			}
			if e.route.Props && len(params) > 0 {
				res.Props = make(map[string]string, len(params))
				for k, v := range params {
					res.Props[k] = v
				}
			}
			return res, nil
		}

		if hops == MaxRedirects {
			return nil, fmt.Errorf("%w: stopped at %q", ErrRedirectLoop, current)
		}
		if redirectedFrom == "" {
			redirectedFrom = joinPath(raw)
		}

		next, err := t.redirectTarget(e.route.Redirect, params)
		if err != nil {
			return nil, err
		}
		current = next
	}
}

func (t *Table) redirectTarget(target *Target, params map[string]string) (string, error) {
	if target.Path != "" {
		p, _ := splitQuery(target.Path)
		return p, nil
	}
	return t.URL(target.Name, params)
}

func bindParams(p *pattern, values []string) map[string]string {
	names := p.params()
	if len(names) == 0 {
		return nil
	}
	params := make(map[string]string, len(names))
	for i, name := range names {
		if i < len(values) {
			params[name] = values[i]
		}
	}
	return params
}

func buildPath(p *pattern, params map[string]string) (string, error) {
	parts := make([]string, 0, len(p.segments))

	for _, seg := range p.segments {
		switch seg.kind {
		case segmentStatic:
			parts = append(parts, url.PathEscape(seg.text))

		case segmentParam:
			v, ok := params[seg.name]
			if !ok || v == "" {
				return "", fmt.Errorf("%w: %q for %q", ErrMissingParam, seg.name, p.raw)
			}
			if !seg.matches(v) {
				return "", fmt.Errorf("%w: %q=%q for %q", ErrInvalidParam, seg.name, v, p.raw)
			}
			parts = append(parts, url.PathEscape(v))

		case segmentCatchAll:
			v := params[seg.name]
			if v == "" {
				if !seg.allowEmpty {
					return "", fmt.Errorf("%w: %q for %q", ErrMissingParam, seg.name, p.raw)
				}
				continue
			}
			for _, piece := range strings.Split(strings.Trim(v, "/"), "/") {
				if piece == "" {
					continue
				}
				if !seg.matches(piece) {
					return "", fmt.Errorf("%w: %q=%q for %q", ErrInvalidParam, seg.name, v, p.raw)
				}
				parts = append(parts, url.PathEscape(piece))
			}
		}
	}

	return joinPath(parts), nil
}

// splitQuery removes the fragment and returns the path and raw query.
func splitQuery(path string) (string, string) {
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}
	var query string
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, query = path[:i], path[i+1:]
	}
	return path, query
}

// splitPath returns the raw and percent-decoded non-empty segments of path.
// splitPath returns the raw and decoded segments of path. A segment with a
// malformed escape is matched by its raw text.
func splitPath(path string) ([]string, []string) {
	var raw, decoded []string
	for _, s := range strings.Split(path, "/") {
		if s == "" {
			continue
		}
		d, err := url.PathUnescape(s)
		if err != nil {
			d = s
		}
		raw = append(raw, s)
		decoded = append(decoded, d)
	}
	return raw, decoded
}

func joinPath(segments []string) string {
	return "/" + strings.Join(segments, "/")
}
