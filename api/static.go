package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

const staticRoot = "web/static"

// registerStatic serves the dashboard bundle for every path the API does not
// claim. Unknown paths fall back to index.html so reloading a dashboard view
// works.
func (s *Server) registerStatic() {
	if s == nil || s.router == nil {
		return
	}
	s.router.NoRoute(serveStatic)
}

func serveStatic(c *gin.Context) {
	path := c.Request.URL.Path
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	full, status := resolveStaticFile(path)
	if status != http.StatusOK {
		c.Status(status)
		return
	}
	c.File(full)
}

// resolveStaticFile maps a URL path to a file under staticRoot. Paths that
// escape the root resolve to 403; anything unreadable falls back to
// index.html so client-side views survive a reload.
func resolveStaticFile(path string) (string, int) {
	rootAbs, err := filepath.Abs(staticRoot)
	if err != nil {
		return "", http.StatusInternalServerError
	}
	index := filepath.Join(rootAbs, "index.html")
	if path == "/" {
		return index, http.StatusOK
	}

	rel := filepath.Clean(strings.TrimPrefix(path, "/"))
	full, err := filepath.Abs(filepath.Join(staticRoot, rel))
	if err != nil {
		return "", http.StatusNotFound
	}
	if full != rootAbs && !strings.HasPrefix(full, rootAbs+string(os.PathSeparator)) {
		return "", http.StatusForbidden
	}
	if info, err := os.Stat(full); err == nil && !info.IsDir() {
		return full, http.StatusOK
	}
	return index, http.StatusOK
}
