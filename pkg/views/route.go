// Package views resolves browser paths against a declarative table of named
// views. A table is built once from Route values and is safe for concurrent
// use; resolution follows redirects and forwards route parameters to views
// that opt in to props.
package views

// Target identifies a redirect destination, either by route name or by
// literal path. Exactly one of the fields is set.
type Target struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// ToName returns a redirect target addressing a named route.
func ToName(name string) *Target {
	return &Target{Name: name}
}

// ToPath returns a redirect target addressing a literal path.
func ToPath(path string) *Target {
	return &Target{Path: path}
}

// Route declares a single entry of the view table.
//
// Path supports static segments, ":name" parameters, ":name(regex)"
// constrained parameters and a trailing ":name(regex)*" or ":name(regex)+"
// catch-all. A route either renders View or redirects to Redirect.
type Route struct {
	Path     string  `json:"path"`
	Name     string  `json:"name,omitempty"`
	View     string  `json:"view,omitempty"`
	Props    bool    `json:"props,omitempty"`
	Redirect *Target `json:"redirect,omitempty"`
}

// Resolution is the outcome of resolving a path against a Table.
type Resolution struct {
	Name           string            `json:"name,omitempty"`
	Path           string            `json:"path"`
	Query          string            `json:"query,omitempty"`
	View           string            `json:"view"`
	Pattern        string            `json:"pattern"`
	Params         map[string]string `json:"params,omitempty"`
	Props          map[string]string `json:"props,omitempty"`
	RedirectedFrom string            `json:"redirected_from,omitempty"`
	Redirects      int               `json:"redirects,omitempty"`
}

// Redirected reports whether at least one redirect was followed.
func (r *Resolution) Redirected() bool {
	return r.Redirects > 0
}

// Location returns the resolved path including the original query string.
func (r *Resolution) Location() string {
	if r.Query == "" {
		return r.Path
	}
	return r.Path + "?" + r.Query
}
