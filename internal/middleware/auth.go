package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aramartialarts/portal-backend/internal/model"
	"github.com/aramartialarts/portal-backend/internal/response"
	"github.com/aramartialarts/portal-backend/internal/service"
)

// ContextKeyClaims is the Gin context key for verified session claims.
const ContextKeyClaims = "claims"

// RequirePortalJWT validates a session token from the Authorization
// header ("Bearer <token>"). A missing or malformed header, an expired
// token and a structurally invalid token each answer 401 with distinct
// codes; on success the verified claims are attached to the context.
func RequirePortalJWT(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenExpired)
				return
			}
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the verified claims from the Gin context.
func GetClaims(c *gin.Context) *service.PortalClaims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.PortalClaims)
	if !ok {
		return nil
	}
	return claims
}

// SubjectMatches reports whether the token subject and a requested
// student id refer to the same identity, case-insensitively.
func SubjectMatches(claims *service.PortalClaims, studentID string) bool {
	if claims == nil {
		return false
	}
	return model.NormalizeStudentID(claims.Subject) == model.NormalizeStudentID(studentID)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
