package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strings"
)

const indexPage = "index.html"

// StaticHandler serves the project tree. File lookup, content types, directory
// indexes and 404s are all left to http.FileServer.
type StaticHandler struct {
	root  http.FileSystem
	files http.Handler
}

// NewStaticHandler creates a StaticHandler rooted at root.
func NewStaticHandler(root string) *StaticHandler {
	fs := http.Dir(root)
	return &StaticHandler{root: fs, files: http.FileServer(fs)}
}

// Serve handles GET and HEAD for any path.
func (h *StaticHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/") {
		// A file addressed as a directory is not found; http.FileServer would redirect.
		if h.isFile(r.URL.Path) {
			http.NotFound(w, r)
			return
		}
	} else if path.Base(r.URL.Path) == indexPage {
		// http.FileServer redirects .../index.html to .../; serve it in place instead.
		h.serveIndex(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}

// Unsupported answers methods the file server has no semantics for.
func (h *StaticHandler) Unsupported(w http.ResponseWriter, r *http.Request) {
	http.Error(w, fmt.Sprintf("Unsupported method ('%s')", r.Method), http.StatusNotImplemented)
}

func (h *StaticHandler) isFile(name string) bool {
	f, err := h.root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	return err == nil && !info.IsDir()
}

func (h *StaticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := h.root.Open(r.URL.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		h.files.ServeHTTP(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
