package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restobar/pos/events"
	"github.com/restobar/pos/models"
	"github.com/restobar/pos/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// AddTables -> bulk-create numbered tables
func (tc *TableController) AddTables(c *gin.Context) {
	var body struct {
		NumberOfTables int `json:"number_of_tables" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.NumberOfTables <= 0 {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("please add the number of tables"))
		return
	}

	var start int64
	tc.DB.Model(&models.Table{}).Count(&start)

	tables := make([]models.Table, 0, body.NumberOfTables)
	for i := 1; i <= body.NumberOfTables; i++ {
		tables = append(tables, models.Table{
			Number: fmt.Sprintf("%d", int(start)+i),
			Status: models.TableAvailable,
		})
	}

	if err := tc.DB.Create(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("%d tables created", body.NumberOfTables)
	utils.RespondJSON(c, http.StatusCreated, fmt.Sprintf("%d tables were created", body.NumberOfTables), tables)
}

// GetAllTables -> every table with its current binding
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Preload("Attendant").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID
func (tc *TableController) GetTableByID(c *gin.Context) {
	var table models.Table
	if err := tc.DB.Preload("Attendant").First(&table, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// GetUserTables -> tables currently staffed by an attendant
func (tc *TableController) GetUserTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Where("attendant_id = ?", c.Param("id")).Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables of the user", tables)
}

// GetTableByOrder -> the table an active order is bound to
func (tc *TableController) GetTableByOrder(c *gin.Context) {
	orderID, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.Preload("Attendant").
		Where("order_id = ?", orderID).First(&table).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("aucune table pour cette commande"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// FreeTable -> manual release, e.g. after a walk-out. Idempotent.
func (tc *TableController) FreeTable(c *gin.Context) {
	tableID, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	// A table with a live order is released by paying or emptying the order.
	if table.OrderID != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("la table a une commande en cours"))
		return
	}

	if err := tc.DB.Model(&table).Updates(map[string]interface{}{
		"status":       models.TableAvailable,
		"order_id":     nil,
		"attendant_id": nil,
	}).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	table.Status = models.TableAvailable
	table.OrderID = nil
	table.AttendantID = nil
	events.BroadcastTableUpdate(table)

	utils.RespondJSON(c, http.StatusOK, "Table released", table)
}
