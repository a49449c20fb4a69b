package contact

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var assetExt = regexp.MustCompile(`\.(js|css|png|jpg|jpeg|gif|ico|svg|woff2?|ttf|eot)$`)

// StaticHandler serves the built front end from dir. Unknown paths fall back
// to index.html so client-side anchors keep working.
type StaticHandler struct {
	dir        string
	indexPath  string
	production bool
	files      http.Handler
}

// NewStaticHandler returns nil when dir has no index.html.
func NewStaticHandler(dir string, production bool) http.Handler {
	indexPath := filepath.Join(dir, "index.html")
	info, err := os.Stat(indexPath)
	if err != nil || info.IsDir() {
		fallbackLogger.Warn("static index not found", "path", indexPath)
		return nil
	}
	return &StaticHandler{
		dir:        dir,
		indexPath:  indexPath,
		production: production,
		files:      http.FileServer(http.Dir(dir)),
	}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cleanPath := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if cleanPath == "" || cleanPath == "index.html" {
		h.serveIndex(w, r)
		return
	}

	candidate := filepath.Join(h.dir, filepath.FromSlash(cleanPath))
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		h.serveIndex(w, r)
		return
	}

	switch {
	case assetExt.MatchString(cleanPath):
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	case strings.HasSuffix(cleanPath, ".html"):
		h.setHTMLCache(w)
	}
	h.files.ServeHTTP(w, r)
}

func (h *StaticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	h.setHTMLCache(w)
	http.ServeFile(w, r, h.indexPath)
}

func (h *StaticHandler) setHTMLCache(w http.ResponseWriter) {
	if h.production {
		w.Header().Set("Cache-Control", "public, max-age=300")
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
}
