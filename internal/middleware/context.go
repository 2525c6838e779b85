package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/KokopelliMusic/Tawa-3/internal/model"
)

// User returns the authenticated user from the request context, or nil.
func User(c *gin.Context) *model.User {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

// AccessToken returns the bearer token record from the request context.
func AccessToken(c *gin.Context) *model.AccessToken {
	v, ok := c.Get(CtxAccessToken)
	if !ok {
		return nil
	}
	token, _ := v.(*model.AccessToken)
	return token
}
