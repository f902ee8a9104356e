// Package web provides infrastructure for serving web views with Go templates.
// Templates are parsed once at startup and cloned per view so each view
// renders against the shared layouts without per-request parsing.
package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

// ViewDef defines a view with its route, template file, title, and bundle name.
type ViewDef struct {
	Route    string
	Template string
	Title    string
	Bundle   string
}

// PageData contains the data passed to view templates during rendering.
// BasePath enables portable URL generation in templates via {{ .BasePath }}.
type PageData struct {
	Title    string
	Bundle   string
	BasePath string
	Name     string
	Path     string
	Props    map[string]string
	Data     any
}

// PropsJSON renders Props as a JSON object safe for inline scripts.
func (d PageData) PropsJSON() template.JS {
	if len(d.Props) == 0 {
		return template.JS("{}")
	}
	b, err := json.Marshal(d.Props)
	if err != nil {
		return template.JS("{}")
	}
	return template.JS(b)
}

// TemplateSet holds pre-parsed templates and a base path for URL generation.
type TemplateSet struct {
	views    map[string]*template.Template
	basePath string
}

// NewTemplateSet parses the layout templates and clones them for each view.
// Parsing everything at startup surfaces template errors before the server
// accepts traffic.
func NewTemplateSet(layoutFS, viewFS fs.FS, layoutGlob, viewSubdir, basePath string, views []ViewDef) (*TemplateSet, error) {
	layouts, err := template.ParseFS(layoutFS, layoutGlob)
	if err != nil {
		return nil, err
	}

	viewSub, err := fs.Sub(viewFS, viewSubdir)
	if err != nil {
		return nil, err
	}

	viewTemplates := make(map[string]*template.Template, len(views))
	for _, v := range views {
		if _, ok := viewTemplates[v.Template]; ok {
			continue
		}
		t, err := layouts.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layouts for %s: %w", v.Template, err)
		}
		if _, err := t.ParseFS(viewSub, v.Template); err != nil {
			return nil, fmt.Errorf("parse template: %s: %w", v.Template, err)
		}
		viewTemplates[v.Template] = t
	}

	return &TemplateSet{
		views:    viewTemplates,
		basePath: basePath,
	}, nil
}

// BasePath returns the prefix included in every PageData.
func (ts *TemplateSet) BasePath() string {
	return ts.basePath
}

// Data builds the PageData for a view.
func (ts *TemplateSet) Data(view ViewDef) PageData {
	return PageData{
		Title:    view.Title,
		Bundle:   view.Bundle,
		BasePath: ts.basePath,
	}
}

// ErrorHandler returns an HTTP handler that renders an error view with the
// given status code.
func (ts *TemplateSet) ErrorHandler(layout string, view ViewDef, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := ts.Data(view)
		data.Path = r.URL.Path
		if err := ts.RenderStatus(w, status, layout, view.Template, data); err != nil {
			http.Error(w, http.StatusText(status), status)
		}
	}
}

// PageHandler returns an HTTP handler that renders the given view.
func (ts *TemplateSet) PageHandler(layout string, view ViewDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := ts.Data(view)
		data.Path = r.URL.Path
		if err := ts.Render(w, layout, view.Template, data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// Render executes the named layout template with the given page data and a
// 200 status.
func (ts *TemplateSet) Render(w http.ResponseWriter, layoutName, viewPath string, data PageData) error {
	return ts.RenderStatus(w, http.StatusOK, layoutName, viewPath, data)
}

// RenderStatus executes the layout into a buffer and writes it with status.
// Nothing is written when execution fails.
func (ts *TemplateSet) RenderStatus(w http.ResponseWriter, status int, layoutName, viewPath string, data PageData) error {
	t, ok := ts.views[viewPath]
	if !ok {
		return fmt.Errorf("template not found: %s", viewPath)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutName, data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
