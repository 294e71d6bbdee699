package webui

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestStaticAssetHandler_ServesFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"style.css":       {Data: []byte("body{}")},
		"img/poster.webp": {Data: []byte("RIFF")},
	}
	h := NewStaticAssetHandlerWithFS(fsys, 60)

	tests := []struct {
		path        string
		wantStatus  int
		contentType string
	}{
		{"/style.css", http.StatusOK, "text/css; charset=utf-8"},
		{"/img/poster.webp", http.StatusOK, "image/webp"},
		{"/missing.css", http.StatusNotFound, ""},
		{"/img", http.StatusNotFound, ""},
		{"/../../etc/passwd", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path = tt.path
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.contentType != "" && rec.Header().Get("Content-Type") != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", rec.Header().Get("Content-Type"), tt.contentType)
			}
			if tt.wantStatus == http.StatusOK && rec.Header().Get("Cache-Control") != "public, max-age=60" {
				t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestStaticAssetHandler_RejectsPost(t *testing.T) {
	h := NewStaticAssetHandlerWithFS(fstest.MapFS{}, 0)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/style.css", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestStaticAssetHandler_DirectoryOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "style.css"), []byte("/* custom */"), 0644); err != nil {
		t.Fatal(err)
	}
	h := NewStaticAssetHandler(DefaultStaticAssetConfig(dir))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/style.css", nil))
	if rec.Body.String() != "/* custom */" {
		t.Errorf("body = %q, want the on-disk file", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/poster.svg", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("embedded fallback status = %d, want 200", rec.Code)
	}

	if !h.Exists("poster.svg") || h.Exists("poster.webp") {
		t.Error("Exists() does not reflect the available files")
	}
}

func TestStaticAssetHandler_MissingDirectoryUsesEmbedded(t *testing.T) {
	h := NewStaticAssetHandler(DefaultStaticAssetConfig(filepath.Join(t.TempDir(), "nope")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/style.css", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 from embedded assets", rec.Code)
	}
}
