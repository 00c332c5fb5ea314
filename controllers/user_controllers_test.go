package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/restobar/pos/models"
	"github.com/restobar/pos/utils"
)

func setupUserTestEnv(t *testing.T) (*gorm.DB, *gin.Engine) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.UserActivity{}, &models.LoginEntry{}, &models.Table{},
	))

	ctrl := NewUserController(db)
	r := gin.Default()
	r.Use(func(c *gin.Context) {
		c.Set("userID", uint(1))
		c.Set("userName", "admin")
		c.Set("role", models.RoleAdmin)
		c.Next()
	})
	r.POST("/users", ctrl.Register)
	r.POST("/login", ctrl.Login)
	r.GET("/users", ctrl.GetUsers)
	r.DELETE("/users/:id", ctrl.DeleteUser)
	return db, r
}

func registerPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":     "Bob Cashier",
		"email":    "bob@example.com",
		"username": "bob",
		"pin":      "1234",
		"pin2":     "1234",
		"phone":    "0990000000",
		"address":  "Goma",
		"role":     models.RoleCashier,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db, r := setupUserTestEnv(t)

	w := doJSON(t, r, "POST", "/users", registerPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	// The PIN is stored hashed, never in clear.
	var user models.User
	require.NoError(t, db.Where("username = ?", "bob").First(&user).Error)
	assert.NotEqual(t, "1234", user.Pin)
	assert.NotEmpty(t, user.Pin)

	w = doJSON(t, r, "POST", "/login", map[string]interface{}{
		"username": "bob", "pin": "1234",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")

	// The login is journaled.
	var entries int64
	db.Model(&models.LoginEntry{}).Where("user_id = ?", user.ID).Count(&entries)
	assert.Equal(t, int64(1), entries)

	// Wrong PIN.
	w = doJSON(t, r, "POST", "/login", map[string]interface{}{
		"username": "bob", "pin": "9999",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	_, r := setupUserTestEnv(t)

	p := registerPayload()
	p["pin"] = "12"
	p["pin2"] = "12"
	w := doJSON(t, r, "POST", "/users", p)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	p = registerPayload()
	p["pin2"] = "4321"
	w = doJSON(t, r, "POST", "/users", p)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	p = registerPayload()
	p["email"] = "not-an-email"
	w = doJSON(t, r, "POST", "/users", p)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeletedUserCannotLoginAndCanBeRestored(t *testing.T) {
	db, r := setupUserTestEnv(t)

	w := doJSON(t, r, "POST", "/users", registerPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var user models.User
	require.NoError(t, db.Where("username = ?", "bob").First(&user).Error)

	w = doJSON(t, r, "DELETE", fmt.Sprintf("/users/%d", user.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "POST", "/login", map[string]interface{}{
		"username": "bob", "pin": "1234",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Registering the same username again restores the account.
	w = doJSON(t, r, "POST", "/users", registerPayload())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "restauré")
}
