package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restobar/pos/models"
	"github.com/restobar/pos/utils"
)

type CompanyController struct {
	DB *gorm.DB
}

func NewCompanyController(db *gorm.DB) *CompanyController {
	return &CompanyController{DB: db}
}

// GetCompany -> the restaurant profile printed on tickets
func (cc *CompanyController) GetCompany(c *gin.Context) {
	var company models.Company
	if err := cc.DB.First(&company).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("profil de l'entreprise non configuré"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Company profile", company)
}

// UpdateCompany -> create or update the single profile row
func (cc *CompanyController) UpdateCompany(c *gin.Context) {
	var body struct {
		Name     string `json:"name" binding:"required"`
		Address  string `json:"address"`
		Phone    string `json:"phone"`
		LogoPath string `json:"logo_path"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("le nom de l'entreprise est requis"))
		return
	}

	var company models.Company
	err := cc.DB.First(&company).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	company.Name = body.Name
	company.Address = body.Address
	company.Phone = body.Phone
	company.LogoPath = body.LogoPath

	if err := cc.DB.Save(&company).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Company profile updated: %s", company.Name)
	utils.RespondJSON(c, http.StatusOK, "Profil de l'entreprise mis à jour", company)
}
