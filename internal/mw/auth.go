package mw

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
)

const userKey = "user"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user in the context.
func RequireAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			AbortWithError(c, errs.New(errs.KindUnauthorized, "an access token is required"))
			return
		}

		user, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireAuth.
func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}
