package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dnoice/roachtrack/internal/auth"
	"github.com/dnoice/roachtrack/internal/models"
	"github.com/dnoice/roachtrack/internal/security"
	"github.com/dnoice/roachtrack/pkg/clientip"
)

// SessionKey is the gin context key holding the authenticated session.
const SessionKey = "session"

// SessionAuth requires a valid session token in the Authorization
// header ("Bearer <token>") or the X-Session-Token header.
func SessionAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Session-Token")
		if token == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}

		session, ok := svc.ValidateSession(token)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Valid session required",
			})
			c.Abort()
			return
		}

		c.Set(SessionKey, session)
		c.Next()
	}
}

// RequireRole restricts a route group to the given roles. Must run
// after SessionAuth. A denied request is recorded in the audit trail.
func RequireRole(auditor *security.Auditor, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		session := CurrentSession(c)
		if session == nil || !allowed[session.Role] {
			if session != nil {
				auditor.LogEvent(security.Event{
					Type:      models.EventUnauthorizedAccess,
					Username:  session.Username,
					UserID:    &session.UserID,
					Details:   c.Request.Method + " " + c.FullPath(),
					IPAddress: clientip.FromRequest(c.Request),
					Success:   false,
				})
			}
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "You do not have permission to access this resource",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session set by SessionAuth, or nil.
func CurrentSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*auth.Session)
	return session
}
