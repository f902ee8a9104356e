// Package scalar serves the interactive API reference. The page loads the
// Scalar viewer and points it at the API module's OpenAPI document.
package scalar

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/JaimeStill/speakeval/pkg/module"
)

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// NewModule mounts the reference at prefix, reading the spec from specURL.
func NewModule(prefix, specURL string) (*module.Module, error) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, struct{ SpecURL string }{specURL}); err != nil {
		return nil, err
	}
	page := buf.Bytes()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(page)
	})

	return module.New(prefix, mux), nil
}
