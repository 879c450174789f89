// Package web embeds the built frontend (dist/) and provides an HTTP handler
// that serves it as a single-page application (SPA).
package web

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

//go:embed all:dist
var distFS embed.FS

// pages maps clean URLs to their HTML documents.
var pages = map[string]string{
	"login":     "login.html",
	"dashboard": "dashboard.html",
}

// SPAHandler returns an http.Handler that serves the embedded frontend.
// It serves static files from dist/, maps the clean page URLs to their
// documents, and falls back to index.html for anything else.
func SPAHandler() http.Handler {
	subFS, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}

	fileServer := http.FileServer(http.FS(subFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.Trim(r.URL.Path, "/")
		if page, ok := pages[path]; ok {
			serveDocument(w, r, subFS, page)
			return
		}
		if path == "" || path == "index.html" {
			serveDocument(w, r, subFS, "index.html")
			return
		}

		// Check if file exists in the embedded FS.
		if f, err := subFS.Open(path); err == nil {
			if closeErr := f.Close(); closeErr != nil {
				slog.Debug("web: failed to close embedded file", "path", path, "error", closeErr)
			}
			fileServer.ServeHTTP(w, r)
			return
		}

		// Not found: serve index.html for SPA routing.
		serveDocument(w, r, subFS, "index.html")
	})
}

// serveDocument writes an HTML file directly; http.FileServer would
// redirect requests for index.html back to the directory.
func serveDocument(w http.ResponseWriter, r *http.Request, fsys fs.FS, name string) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		slog.Debug("web: failed to write document", "name", name, "error", err)
	}
}
