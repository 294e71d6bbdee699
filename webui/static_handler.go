package webui

import (
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"ruserwation/webui/static"
)

// StaticAssetHandler serves /static/* from a directory on disk, falling back
// to the assets embedded in the binary.
type StaticAssetHandler struct {
	layers      []fs.FS
	cacheMaxAge int
}

// StaticAssetConfig configures the StaticAssetHandler.
type StaticAssetConfig struct {
	// Dir is the directory searched first. Empty or missing means embedded only.
	Dir string

	// CacheMaxAge is the Cache-Control max-age in seconds; 0 disables caching.
	CacheMaxAge int
}

// DefaultStaticAssetConfig returns the configuration used by the server.
func DefaultStaticAssetConfig(dir string) StaticAssetConfig {
	return StaticAssetConfig{
		Dir:         dir,
		CacheMaxAge: 3600,
	}
}

// NewStaticAssetHandler creates the handler.
func NewStaticAssetHandler(config StaticAssetConfig) *StaticAssetHandler {
	var layers []fs.FS
	if config.Dir != "" {
		if info, err := os.Stat(config.Dir); err == nil && info.IsDir() {
			layers = append(layers, os.DirFS(config.Dir))
		}
	}
	layers = append(layers, static.GetFS())
	return &StaticAssetHandler{layers: layers, cacheMaxAge: config.CacheMaxAge}
}

// NewStaticAssetHandlerWithFS serves only fsys. Used in tests.
func NewStaticAssetHandlerWithFS(fsys fs.FS, cacheMaxAge int) *StaticAssetHandler {
	return &StaticAssetHandler{layers: []fs.FS{fsys}, cacheMaxAge: cacheMaxAge}
}

// cleanName turns a URL path into an fs.FS name, rejecting traversal.
func cleanName(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" || name == "." || !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

// Exists reports whether a regular file called name is available.
func (h *StaticAssetHandler) Exists(name string) bool {
	name, ok := cleanName(name)
	if !ok {
		return false
	}
	for _, layer := range h.layers {
		if info, err := fs.Stat(layer, name); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// ServeHTTP expects the /static prefix to be stripped already.
func (h *StaticAssetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	name, ok := cleanName(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	for _, layer := range h.layers {
		data, err := fs.ReadFile(layer, name)
		if err != nil {
			// missing, a directory, or unreadable: try the next layer
			continue
		}

		w.Header().Set("Content-Type", detectContentType(name))
		if h.cacheMaxAge > 0 {
			w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(h.cacheMaxAge))
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(data)
		}
		return
	}
	http.NotFound(w, r)
}

func detectContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
