package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restobar/pos/models"
	"github.com/restobar/pos/utils"
)

type SupplierController struct {
	DB *gorm.DB
}

func NewSupplierController(db *gorm.DB) *SupplierController {
	return &SupplierController{DB: db}
}

func (sc *SupplierController) AddSupplier(c *gin.Context) {
	var body struct {
		Name    string `json:"name" binding:"required"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("fill in all fields"))
		return
	}

	var existing models.Supplier
	if err := sc.DB.Where("name = ?", body.Name).First(&existing).Error; err == nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("le fournisseur existe déjà"))
		return
	}

	supplier := models.Supplier{Name: body.Name, Phone: body.Phone, Address: body.Address}
	if err := sc.DB.Create(&supplier).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Supplier created", supplier)
}

func (sc *SupplierController) GetSuppliers(c *gin.Context) {
	var suppliers []models.Supplier
	if err := sc.DB.Find(&suppliers).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of suppliers", suppliers)
}

func (sc *SupplierController) GetSupplierByID(c *gin.Context) {
	var supplier models.Supplier
	if err := sc.DB.First(&supplier, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("supplier not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Supplier detail", supplier)
}

func (sc *SupplierController) UpdateSupplier(c *gin.Context) {
	var supplier models.Supplier
	if err := sc.DB.First(&supplier, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("supplier not found"))
		return
	}

	var body struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.Name != "" {
		supplier.Name = body.Name
	}
	if body.Phone != "" {
		supplier.Phone = body.Phone
	}
	if body.Address != "" {
		supplier.Address = body.Address
	}

	if err := sc.DB.Save(&supplier).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Supplier updated", supplier)
}

func (sc *SupplierController) DeleteSupplier(c *gin.Context) {
	res := sc.DB.Delete(&models.Supplier{}, c.Param("id"))
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("supplier not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Supplier deleted", gin.H{"id": c.Param("id")})
}
