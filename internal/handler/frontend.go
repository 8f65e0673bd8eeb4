package handler

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FrontendHandler serves the prebuilt single-page admin/directory UI.
//
// CLIENT-SIDE ROUTING:
// The SPA owns paths like /doctors or /admin/events. A request for a file
// that exists in the build (JS, CSS, images) gets that file; anything else
// gets index.html, and the SPA's router takes it from there. Unknown /api/
// paths are the exception: they get a JSON 404, never HTML.
type FrontendHandler struct {
	files http.Handler
	root  http.FileSystem
	index string
	log   *slog.Logger
}

// NewFrontendHandler serves dir. A missing build is not fatal: the API keeps
// working and UI paths answer 404 until the frontend is built.
func NewFrontendHandler(dir string, logger *slog.Logger) *FrontendHandler {
	h := &FrontendHandler{
		files: http.FileServer(http.Dir(dir)),
		root:  http.Dir(dir),
		log:   logger,
	}

	index := filepath.Join(dir, "index.html")
	if info, err := os.Stat(index); err == nil && !info.IsDir() {
		h.index = index
	} else {
		logger.Warn("frontend build not found; UI routes will return 404",
			slog.String("dir", dir),
		)
	}
	return h
}

func (h *FrontendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		NotFoundJSON(w, r)
		return
	}

	name := path.Clean("/" + r.URL.Path)
	if name != "/" && h.isFile(name) {
		h.files.ServeHTTP(w, r)
		return
	}

	if h.index == "" {
		http.NotFound(w, r)
		return
	}
	// index.html must not be cached: it names the hashed bundles of the
	// current build.
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, h.index)
}

func (h *FrontendHandler) isFile(name string) bool {
	f, err := h.root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	return err == nil && !info.IsDir()
}

// NotFoundJSON is the 404 for API paths no route matches.
func NotFoundJSON(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: "Not Found",
		Detail:  "Not Found",
	})
}

// MethodNotAllowedJSON is the 405 for API paths that exist under another method.
func MethodNotAllowedJSON(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:   "method_not_allowed",
		Message: "Method Not Allowed",
		Detail:  "Method Not Allowed",
	})
}
