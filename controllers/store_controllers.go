package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restobar/pos/models"
	"github.com/restobar/pos/utils"
)

type StoreController struct {
	DB *gorm.DB
}

func NewStoreController(db *gorm.DB) *StoreController {
	return &StoreController{DB: db}
}

// AddStore -> a store needs an existing printer before it can be created
func (sc *StoreController) AddStore(c *gin.Context) {
	var body struct {
		Name      string `json:"name" binding:"required"`
		PrinterID uint   `json:"printer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("remplissez tous les champs"))
		return
	}

	var printer models.Printer
	if err := sc.DB.First(&printer, body.PrinterID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("aucune imprimante trouvée"))
		return
	}

	var existing models.Store
	if err := sc.DB.Where("name = ?", body.Name).First(&existing).Error; err == nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("un store avec ce nom existe déjà"))
		return
	}

	store := models.Store{Name: body.Name, PrinterID: printer.ID}
	if err := sc.DB.Create(&store).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Store created", store)
}

// GetStores
func (sc *StoreController) GetStores(c *gin.Context) {
	var stores []models.Store
	if err := sc.DB.Preload("Printer").Find(&stores).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of stores", stores)
}

// GetStoreByID
func (sc *StoreController) GetStoreByID(c *gin.Context) {
	var store models.Store
	if err := sc.DB.Preload("Printer").First(&store, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("store not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Store detail", store)
}

// UpdateStore
func (sc *StoreController) UpdateStore(c *gin.Context) {
	var store models.Store
	if err := sc.DB.First(&store, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("store not found"))
		return
	}

	var body struct {
		Name      string `json:"name"`
		PrinterID uint   `json:"printer_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.Name != "" {
		store.Name = body.Name
	}
	if body.PrinterID != 0 {
		var printer models.Printer
		if err := sc.DB.First(&printer, body.PrinterID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, fmt.Errorf("aucune imprimante trouvée"))
			return
		}
		store.PrinterID = printer.ID
	}

	if err := sc.DB.Save(&store).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Store updated", store)
}

// DeleteStore
func (sc *StoreController) DeleteStore(c *gin.Context) {
	res := sc.DB.Delete(&models.Store{}, c.Param("id"))
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("store not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Store deleted successfully", gin.H{"id": c.Param("id")})
}
