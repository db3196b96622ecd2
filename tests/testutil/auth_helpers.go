package testutil

import (
	"net/http"
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/wineprocure/procurement-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, role, company string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  "https://test.auth0.com/",
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope:   strings.Join(scopes, " "),
			Role:    role,
			Company: company,
		},
	}
}

// SetMockAuthContext sets the context values EnsureValidToken would set
func SetMockAuthContext(c *gin.Context, subject, role, company string, scopes []string) {
	c.Set("user_id", subject)
	c.Set("validated_claims", MockValidatedClaims(subject, role, company, scopes))
	c.Set("access_token", "test-token-"+subject)
}

// MockAuthMiddleware stands in for EnsureValidToken. The caller is chosen
// per request by the X-Test-User header (the Auth0 subject); requests
// without it are rejected with 401 like an invalid token.
func MockAuthMiddleware(users map[string]MockIdentity) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := users[c.GetHeader("X-Test-User")]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Failed to validate JWT.",
				},
			})
			return
		}
		SetMockAuthContext(c, identity.Subject, identity.Role, identity.Company, identity.Scopes)
		c.Next()
	}
}

// MockIdentity is a signed-in caller for MockAuthMiddleware
type MockIdentity struct {
	Subject string
	Role    string
	Company string
	Scopes  []string
}
