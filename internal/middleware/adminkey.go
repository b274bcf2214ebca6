package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aramartialarts/portal-backend/internal/config"
	"github.com/aramartialarts/portal-backend/internal/response"
)

// RequireAdminKey gates admin routes behind the static shared key, read
// from the X-Admin-Key header or the adminKey query parameter. When no
// key is configured the route is open; that fallback is deliberate and
// documented, and deployments must set ADMIN_PORTAL_KEY.
func RequireAdminKey(cfg *config.Config) gin.HandlerFunc {
	expected := []byte(cfg.AdminPortalKey)

	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}

		presented := c.GetHeader("X-Admin-Key")
		if presented == "" {
			presented = c.Query("adminKey")
		}

		if subtle.ConstantTimeCompare(expected, []byte(presented)) != 1 {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrAdminKeyInvalid)
			return
		}
		c.Next()
	}
}
