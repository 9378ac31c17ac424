package httpx

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// pages serves the exported frontend. Unknown paths fall back to index.html
// so client-side routing keeps working; the gate has already run by the
// time a request lands here.
func (r *Router) pages() http.Handler {
	dir := r.cfg.StaticDir
	fileServer := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		clean := filepath.Clean(strings.TrimPrefix(req.URL.Path, "/"))
		if clean != "." {
			if info, err := os.Stat(filepath.Join(dir, clean)); err == nil && !info.IsDir() {
				fileServer.ServeHTTP(w, req)
				return
			}
		}
		http.ServeFile(w, req, filepath.Join(dir, "index.html"))
	})
}
