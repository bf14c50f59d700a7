// Package httpui serves the browser frontend.
package httpui

import "net/http"

// IndexPath is where the root path redirects.
const IndexPath = "/static/index.html"

// Register mounts the root redirect and the embedded static assets. These
// routes are read-only and carry no origin check.
func Register(mux *http.ServeMux) error {
	if err := registerAssetRoutes(mux); err != nil {
		return err
	}
	mux.HandleFunc("GET /{$}", root)
	return nil
}

// root redirects to the static index. Query parameters are dropped.
func root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, IndexPath, http.StatusTemporaryRedirect)
}
