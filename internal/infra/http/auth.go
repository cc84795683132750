package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const adminKeyHeader = "X-Admin-Key"

// requireAdmin guards parameter changes with ADMIN_API_KEY. Without a configured key
// the endpoints are open.
func (s *Server) requireAdmin(c *gin.Context) {
	if s.cfg.AdminAPIKey == "" {
		c.Next()
		return
	}
	key := strings.TrimSpace(c.GetHeader(adminKeyHeader))
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.AdminAPIKey)) != 1 {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
		c.Abort()
		return
	}
	c.Next()
}
