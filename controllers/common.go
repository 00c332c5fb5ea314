package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/restobar/pos/models"
)

// currentUser rebuilds the caller identity from the token claims set by the
// auth middleware. The identity is enough for attribution; handlers that
// need fresh user state reload it from the store.
func currentUser(c *gin.Context) *models.User {
	user := &models.User{}
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(uint); ok {
			user.ID = id
		}
	}
	if v, ok := c.Get("userName"); ok {
		if name, ok := v.(string); ok {
			user.Name = name
		}
	}
	if v, ok := c.Get("role"); ok {
		if role, ok := v.(string); ok {
			user.Role = role
		}
	}
	return user
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
