package web

import (
	"bytes"
	"io/fs"
	"net/http"
	"time"

	"github.com/JaimeStill/speakeval/pkg/routes"
)

// DistServer serves the files under subdir of fsys with prefix stripped
// from the request path.
func DistServer(fsys fs.FS, subdir, prefix string) http.HandlerFunc {
	sub, err := fs.Sub(fsys, subdir)
	if err != nil {
		return http.NotFound
	}
	return http.StripPrefix(prefix, http.FileServer(http.FS(sub))).ServeHTTP
}

// PublicFile serves a single file from subdir of fsys.
func PublicFile(fsys fs.FS, subdir, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(fsys, subdir+"/"+name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
	}
}

// PublicFileRoutes builds one GET route per file, rooted at "/".
func PublicFileRoutes(fsys fs.FS, subdir string, files ...string) []routes.Route {
	result := make([]routes.Route, 0, len(files))
	for _, f := range files {
		result = append(result, routes.Route{
			Method:  http.MethodGet,
			Pattern: "/" + f,
			Handler: PublicFile(fsys, subdir, f),
		})
	}
	return result
}

// ServeEmbeddedFile writes data with the given content type.
func ServeEmbeddedFile(data []byte, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
