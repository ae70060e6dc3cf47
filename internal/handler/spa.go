package handler

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SPAHandler serves the built React dashboard.
//
// Real files (JS bundles, CSS, images) are served as-is. Any other path is a
// client-side route, so it gets index.html and the browser router takes over.
type SPAHandler struct {
	root   fs.FS
	files  http.Handler
	logger *slog.Logger
}

// NewSPAHandler checks that staticDir holds a build with an index.html.
func NewSPAHandler(staticDir string, logger *slog.Logger) (*SPAHandler, error) {
	abs, err := filepath.Abs(staticDir)
	if err != nil {
		return nil, fmt.Errorf("resolving static dir: %w", err)
	}
	root := os.DirFS(abs)
	if _, err := fs.Stat(root, "index.html"); err != nil {
		return nil, fmt.Errorf("static dir %s has no index.html: %w", abs, err)
	}

	return &SPAHandler{
		root:   root,
		files:  http.FileServerFS(root),
		logger: logger,
	}, nil
}

// ServeHTTP serves the file at the request path, or index.html.
func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

	if name != "" {
		info, err := fs.Stat(h.root, name)
		switch {
		case err == nil && !info.IsDir():
			h.files.ServeHTTP(w, r)
			return
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			h.logger.Warn("static lookup failed", slog.String("path", name), slog.String("error", err.Error()))
		}
	}

	// index.html must not be cached: it names the hashed bundles of the
	// current build.
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, h.root, "index.html")
}
