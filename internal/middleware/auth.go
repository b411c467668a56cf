package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinicare-api/internal/handler"
	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	"github.com/jwalitptl/clinicare-api/pkg/auth"
)

// Authenticator resolves a bearer token into the calling actor.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Actor, *auth.Claims, error)
}

type AuthMiddleware struct {
	authenticator Authenticator
	policy        *rbac.Policy
}

func NewAuthMiddleware(authenticator Authenticator, policy *rbac.Policy) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		policy:        policy,
	}
}

// Authenticate verifies the bearer token and stores the actor and claims.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			return
		}

		actor, claims, err := m.authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			handler.RespondError(c, err)
			return
		}

		c.Set(handler.ActorKey, actor)
		c.Set(handler.ClaimsKey, claims)
		c.Next()
	}
}

// RequirePermission rejects callers whose role lacks perm. It has the shape
// of handler.Guard so route tables can take it directly.
func (m *AuthMiddleware) RequirePermission(perm rbac.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := handler.CurrentActor(c)
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			return
		}
		if !m.policy.Allows(actor.Role, perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
			return
		}
		c.Next()
	}
}
