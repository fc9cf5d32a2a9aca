// Package site serves the run artifacts and the root redirect.
package site

import (
	"context"
	"net/http"
	"path"
	"strings"
)

// ArtifactsPrefix is the URL prefix the data directory is mounted under.
const ArtifactsPrefix = "/artifacts/"

// published lists the file types exposed from the data directory. The
// SQLite history stays private.
var published = map[string]string{
	".csv": "text/csv; charset=utf-8",
	".png": "image/png",
}

// Register mounts the data directory at /artifacts/ and redirects / to the
// dashboard.
func Register(_ context.Context, mux *http.ServeMux, dataDir string) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle(ArtifactsPrefix, NewArtifactsHandler(dataDir))
	mux.Handle("/", NewRootHandler())
}

// ArtifactsHandler serves progress logs and plots from a directory.
type ArtifactsHandler struct {
	files http.Handler
}

// NewArtifactsHandler creates a handler rooted at dir.
func NewArtifactsHandler(dir string) *ArtifactsHandler {
	return &ArtifactsHandler{
		files: http.StripPrefix(strings.TrimSuffix(ArtifactsPrefix, "/"), http.FileServer(http.Dir(dir))),
	}
}

// ServeHTTP implements http.Handler.
func (h *ArtifactsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	name := path.Clean(strings.TrimPrefix(r.URL.Path, ArtifactsPrefix))
	ctype, ok := published[path.Ext(name)]
	if !ok || strings.Contains(name, "/") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", ctype)
	h.files.ServeHTTP(w, r)
}

// RootHandler handles root path requests.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// ServeHTTP redirects / to the dashboard and answers 404 for anything else.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}
