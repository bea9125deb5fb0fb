package http

import (
	"io/fs"
	"net/http"
)

// ServeUploadPage serves the embedded single-page upload form at the root
// path. When no frontend is embedded it falls back to a plain-text notice
// so the API remains usable from curl.
func ServeUploadPage(frontend fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if frontend == nil {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte("scopustriage API is running. POST workbooks to /api/reviews.\n"))
			return
		}

		page, err := fs.ReadFile(frontend, "index.html")
		if err != nil {
			http.Error(w, "Upload page not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}

// StaticHandler serves the remaining embedded frontend assets.
func StaticHandler(frontend fs.FS) http.Handler {
	if frontend == nil {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(frontend))
}
