package httpui

import (
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/mergington/activities/web"
)

var (
	staticFS     fs.FS
	staticFSInit sync.Once
	staticFSErr  error
)

func ensureStaticFS() error {
	staticFSInit.Do(func() {
		staticFS, staticFSErr = fs.Sub(web.StaticFS, "static")
	})
	return staticFSErr
}

func registerAssetRoutes(mux *http.ServeMux) error {
	if err := ensureStaticFS(); err != nil {
		return fmt.Errorf("embed static: %w", err)
	}
	mux.HandleFunc("GET /static/{path...}", func(w http.ResponseWriter, r *http.Request) {
		filePath := r.PathValue("path")
		if filePath == "" {
			filePath = "index.html"
		}
		if !serveStaticPath(w, r, filePath) {
			http.NotFound(w, r)
		}
	})
	return nil
}

// serveStaticPath writes one embedded file. Directories are never listed.
func serveStaticPath(w http.ResponseWriter, r *http.Request, filePath string) bool {
	if ensureStaticFS() != nil {
		return false
	}

	clean := strings.TrimPrefix(path.Clean("/"+filePath), "/")
	if clean == "." || clean == "" {
		return false
	}

	f, err := staticFS.Open(clean)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	content, ok := f.(io.ReadSeeker)
	if !ok {
		return false
	}

	// ServeContent, unlike ServeFileFS, does not redirect .../index.html.
	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
	return true
}
