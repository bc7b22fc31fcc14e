package middlewares

import (
	"context"
	"net/http"
	"strings"

	"mealplanner/logging"
	"mealplanner/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID   = "userID"
	CtxUsername = "username"
)

// AccountChecker confirms the account a token was issued for still exists.
type AccountChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// AuthMiddleware accepts an access token from "Authorization: Bearer" or, for
// websocket upgrades that cannot set headers, the "token" query parameter.
// A nil accounts skips the existence check.
func AuthMiddleware(tokens *utils.TokenIssuer, accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenString = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		} else if c.IsWebsocket() {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := tokens.Parse(tokenString, utils.TokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if accounts != nil {
			ok, err := accounts.Exists(c.Request.Context(), claims.UserID)
			if err != nil {
				logging.Ctx(c.Request.Context()).Error().Err(err).Uint("user_id", claims.UserID).Msg("account lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			if !ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)

		l := logging.Ctx(c.Request.Context()).With().Uint("user_id", claims.UserID).Logger()
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), l))
		c.Next()
	}
}
