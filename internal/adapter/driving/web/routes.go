package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the GUI routes on the provided mux. The single
// page is served at /; assets are served from the embedded filesystem at
// /static/*.
func RegisterRoutes(mux *http.ServeMux) {
	staticFS, _ := fs.Sub(StaticFS, "static")

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, staticFS, "index.html")
	})
}
