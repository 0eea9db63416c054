package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neurocare-patient-server/internal/domain"
	"github.com/neurocare-patient-server/internal/service"
)

// sessionKey is the gin context key holding the request session.
const sessionKey = "session"

// Auth resolves the caller to a session. Admin callers present an API
// key; patient portal callers present their patient ID and are scoped to
// their own records. With auth disabled every request runs as admin,
// matching single-operator deployments.
func Auth(config domain.AuthConfig) gin.HandlerFunc {
	adminKeys := make(map[string]struct{}, len(config.AdminKeys))
	for _, key := range config.AdminKeys {
		adminKeys[key] = struct{}{}
	}

	return func(c *gin.Context) {
		var session domain.Session

		switch {
		case !config.Enabled:
			session = domain.AdminSession{}
		default:
			if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
				if _, ok := adminKeys[apiKey]; !ok {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
						"message": "Invalid API key",
					})
					return
				}
				session = domain.AdminSession{}
			} else if patientID := c.GetHeader("X-Patient-ID"); patientID != "" {
				session = domain.PatientSession{PatientID: patientID}
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"message": "Authentication required",
				})
				return
			}
		}

		c.Set(sessionKey, session)
		c.Request = c.Request.WithContext(
			service.WithActor(c.Request.Context(), session.Role()))

		c.Next()
	}
}

// SessionFrom returns the session resolved by Auth. Requests that bypass
// the middleware get an admin session, which only happens in tests.
func SessionFrom(c *gin.Context) domain.Session {
	if value, exists := c.Get(sessionKey); exists {
		if session, ok := value.(domain.Session); ok {
			return session
		}
	}
	return domain.AdminSession{}
}
