package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KokopelliMusic/Tawa-3/internal/errs"
	"github.com/KokopelliMusic/Tawa-3/internal/service"
)

// Context keys set by Auth.
const (
	CtxUser        = "user"
	CtxAccessToken = "accessToken"
)

// ClientTypeHeader must accompany every API request.
const ClientTypeHeader = "X-Kokopelli-Client-Type"

// Auth resolves the opaque bearer token to a user and stores both on the
// request context. Requests without a valid token are rejected before any
// mutation happens.
func Auth(catalog *service.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		user, token, err := catalog.UserByToken(parts[1])
		if err != nil {
			if errors.Is(err, errs.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
			return
		}
		c.Set(CtxUser, user)
		c.Set(CtxAccessToken, token)
		c.Next()
	}
}

// RequireStaff gates privileged endpoints; must run after Auth.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := User(c)
		if user == nil || !user.Staff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff access required"})
			return
		}
		c.Next()
	}
}

// RequireClientType rejects API requests without the client-type header.
func RequireClientType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(ClientTypeHeader) == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ClientTypeHeader + " header not specified"})
			return
		}
		c.Next()
	}
}
