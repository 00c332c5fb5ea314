package controllers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/restobar/pos/models"
	"github.com/restobar/pos/utils"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
var pinRegex = regexp.MustCompile(`^\d{4}$`)

// Register -> create (or restore) a staff account
func (uc *UserController) Register(c *gin.Context) {
	var body struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Username string `json:"username" binding:"required"`
		Pin      string `json:"pin" binding:"required"`
		Pin2     string `json:"pin2" binding:"required"`
		Phone    string `json:"phone" binding:"required"`
		Address  string `json:"address" binding:"required"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("veuillez remplir tous les champs"))
		return
	}

	if !emailRegex.MatchString(body.Email) {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("adresse email invalide"))
		return
	}

	username := strings.ToLower(strings.TrimSpace(body.Username))
	email := strings.ToLower(strings.TrimSpace(body.Email))

	var existingEmail models.User
	if err := uc.DB.Where("email = ? AND is_deleted = ?", email, false).First(&existingEmail).Error; err == nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("cet email est déjà utilisé"))
		return
	}

	// A soft-deleted account with the same username is restored instead of
	// duplicated.
	var existing models.User
	if err := uc.DB.Where("username = ?", username).First(&existing).Error; err == nil {
		if existing.IsDeleted {
			existing.IsDeleted = false
			existing.Name = body.Name
			existing.Email = email
			existing.Phone = body.Phone
			existing.Address = body.Address
			existing.Role = body.Role
			existing.Status = "active"
			if err := uc.DB.Save(&existing).Error; err != nil {
				utils.RespondError(c, http.StatusInternalServerError, err)
				return
			}
			utils.RespondJSON(c, http.StatusOK, "Utilisateur restauré avec succès", existing)
			return
		}
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("le nom d'utilisateur est déjà pris"))
		return
	}

	if !pinRegex.MatchString(strings.TrimSpace(body.Pin)) {
		utils.RespondError(c, http.StatusUnprocessableEntity,
			fmt.Errorf("le code PIN doit contenir exactement 4 chiffres"))
		return
	}
	if body.Pin != body.Pin2 {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("les codes PIN ne correspondent pas"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Pin), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user := models.User{
		Name:     body.Name,
		Email:    email,
		Username: username,
		Pin:      string(hashed),
		Phone:    body.Phone,
		Address:  body.Address,
		Role:     body.Role,
		Status:   "active",
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("User %s registered with role %s", user.Username, user.Role)
	utils.RespondJSON(c, http.StatusCreated, "Utilisateur enregistré avec succès", user)
}

// Login -> username + 4-digit PIN, returns a signed token
func (uc *UserController) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Pin      string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("fill in all fields"))
		return
	}

	var user models.User
	err := uc.DB.Where("username = ? AND is_deleted = ?", strings.ToLower(body.Username), false).
		First(&user).Error
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("user not found, invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Pin), []byte(body.Pin)); err != nil {
		utils.RespondError(c, http.StatusBadRequest,
			fmt.Errorf("the pin is incorrect, please verify and try again"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	now := time.Now()
	uc.DB.Model(&user).Update("last_login", now)
	uc.DB.Create(&models.LoginEntry{
		UserID:    user.ID,
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"id":    user.ID,
		"name":  user.Name,
		"role":  user.Role,
	})
}

// GetUser -> one user with assigned tables
func (uc *UserController) GetUser(c *gin.Context) {
	var user models.User
	err := uc.DB.Preload("AssignedTables").Preload("ActivityLogs").
		First(&user, c.Param("id")).Error
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("user not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "User detail", user)
}

// GetUsers -> staff list
func (uc *UserController) GetUsers(c *gin.Context) {
	var users []models.User
	if err := uc.DB.Where("is_deleted = ?", false).Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of users", users)
}

// EditUser -> partial profile update; PIN change needs the old PIN, role
// change needs an admin caller
func (uc *UserController) EditUser(c *gin.Context) {
	var user models.User
	if err := uc.DB.First(&user, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("utilisateur non trouvé"))
		return
	}
	if user.IsDeleted {
		utils.RespondError(c, http.StatusGone, fmt.Errorf("cet utilisateur a été supprimé"))
		return
	}

	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
		Role     string `json:"role"`
		Status   string `json:"status"`
		Pin      string `json:"pin"`
		Pin2     string `json:"pin2"`
		OldPin   string `json:"old_pin"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	caller := currentUser(c)

	if body.Pin != "" {
		if body.Pin != body.Pin2 {
			utils.RespondError(c, http.StatusUnprocessableEntity,
				fmt.Errorf("les codes PIN ne correspondent pas"))
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Pin), []byte(body.OldPin)); err != nil {
			utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("ancien code PIN incorrect"))
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(body.Pin), bcrypt.DefaultCost)
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		user.Pin = string(hashed)
	}

	if body.Name != "" {
		user.Name = body.Name
	}
	if body.Email != "" {
		user.Email = strings.ToLower(body.Email)
	}
	if body.Username != "" {
		user.Username = strings.ToLower(body.Username)
	}
	if body.Phone != "" {
		user.Phone = body.Phone
	}
	if body.Address != "" {
		user.Address = body.Address
	}
	if body.Role != "" && caller.Role == models.RoleAdmin {
		user.Role = body.Role
	}
	if body.Status != "" {
		user.Status = body.Status
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	uc.DB.Create(&models.UserActivity{
		UserID:      user.ID,
		Action:      "user-updated",
		Description: fmt.Sprintf("l'utilisateur %s a été mis à jour par %s", user.Username, caller.Name),
	})

	utils.RespondJSON(c, http.StatusOK, "Utilisateur mis à jour", user)
}

// DeleteUser -> soft delete so the audit trail keeps its references
func (uc *UserController) DeleteUser(c *gin.Context) {
	var user models.User
	if err := uc.DB.First(&user, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("utilisateur non trouvé"))
		return
	}
	if user.IsDeleted {
		utils.RespondError(c, http.StatusGone, fmt.Errorf("cet utilisateur a déjà été supprimé"))
		return
	}

	user.IsDeleted = true
	user.Status = "inactive"
	if err := uc.DB.Save(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	uc.DB.Create(&models.UserActivity{
		UserID:      user.ID,
		Action:      "user-deleted",
		Description: fmt.Sprintf("l'utilisateur %s a été supprimé par %s", user.Username, currentUser(c).Name),
	})

	utils.RespondJSON(c, http.StatusOK, "Utilisateur supprimé avec succès", user)
}
