// Package page serves the start page shell. Workspace pages live at
// /{slug}, so any path that is not a file falls back to index.html.
package page

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

// Handler serves the page from dir when set, else from the embedded build.
func Handler(dir string) (http.Handler, error) {
	var root fs.FS
	switch {
	case dir != "":
		info, err := os.Stat(dir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, errors.New("page: static_dir is not a directory: " + dir)
		}
		root = os.DirFS(dir)
	case distFS != nil:
		sub, err := fs.Sub(distFS, "dist")
		if err != nil {
			return nil, err
		}
		root = sub
	default:
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "start page not available (dev build without static_dir)", http.StatusNotFound)
		}), nil
	}
	return spa(root), nil
}

func spa(root fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reserved(r.URL.Path) {
			http.NotFound(w, r)
			return
		}

		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == "" {
			name = "index.html"
		}
		if f, err := root.Open(name); err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}

		// Workspace slug: the page resolves its theme from the path.
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/"
		w.Header().Set("Cache-Control", "no-cache")
		fileServer.ServeHTTP(w, r2)
	})
}

func reserved(p string) bool {
	return strings.HasPrefix(p, "/api/") ||
		strings.HasPrefix(p, "/swagger/") ||
		p == "/healthz" ||
		p == "/readyz" ||
		p == "/metrics"
}
