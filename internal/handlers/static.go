package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

const msgRouteNotFound = "Route not found"

// StaticHandler serves the front-end bundle and falls back to index.html
// so client-side routes resolve.
type StaticHandler struct {
	dir string
}

func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

func (h *StaticHandler) Fallback(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		fail(c, http.StatusNotFound, msgRouteNotFound)
		return
	}

	rel := path.Clean("/" + c.Request.URL.Path)
	if rel != "/" {
		full := filepath.Join(h.dir, filepath.FromSlash(rel))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			c.File(full)
			return
		}
	}

	index := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		fail(c, http.StatusNotFound, msgRouteNotFound)
		return
	}
	c.File(index)
}
