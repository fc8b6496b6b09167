package auth

import (
	"context"
	"net/http"
	"slices"

	"github.com/fekuna/omnipos-parts-service/internal/model"
	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the acting user's id. There is no session or token;
// the role stored in the directory is the only authorization signal.
const HeaderUserID = "X-User-ID"

const actorKey = "actor"

type userIDKey struct{}

type UserResolver interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey{}).(string); ok {
		return val
	}
	return ""
}

// Middleware resolves the X-User-ID header to a directory user and stores it
// on the gin context. Unknown or missing users are rejected with 401.
func Middleware(users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + HeaderUserID + " header"})
			return
		}
		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		c.Set(actorKey, user)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// Actor returns the user stored by Middleware, or nil.
func Actor(c *gin.Context) *model.User {
	if val, ok := c.Get(actorKey); ok {
		if u, ok := val.(*model.User); ok {
			return u
		}
	}
	return nil
}

// RequireRoles must run after Middleware.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor(c)
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}
		if !slices.Contains(roles, actor.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role " + string(actor.Role) + " may not perform this action"})
			return
		}
		c.Next()
	}
}
