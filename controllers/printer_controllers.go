package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restobar/pos/models"
	"github.com/restobar/pos/printing"
	"github.com/restobar/pos/utils"
)

type PrinterController struct {
	DB   *gorm.DB
	Sink printing.Sink
}

func NewPrinterController(db *gorm.DB, sink printing.Sink) *PrinterController {
	return &PrinterController{DB: db, Sink: sink}
}

// AddPrinter
func (pc *PrinterController) AddPrinter(c *gin.Context) {
	var body struct {
		Name      string `json:"name" binding:"required"`
		IPAddress string `json:"ip_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("fill in all fields"))
		return
	}

	var existing models.Printer
	if err := pc.DB.Where("ip_address = ?", body.IPAddress).First(&existing).Error; err == nil {
		utils.RespondError(c, http.StatusUnprocessableEntity,
			fmt.Errorf("a printer with the given IP already exists"))
		return
	}

	printer := models.Printer{Name: body.Name, IPAddress: body.IPAddress}
	if err := pc.DB.Create(&printer).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Printer created", printer)
}

// GetPrinters
func (pc *PrinterController) GetPrinters(c *gin.Context) {
	var printers []models.Printer
	if err := pc.DB.Find(&printers).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of printers", printers)
}

// GetPrinterByID
func (pc *PrinterController) GetPrinterByID(c *gin.Context) {
	var printer models.Printer
	if err := pc.DB.First(&printer, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("printer not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Printer detail", printer)
}

// UpdatePrinter
func (pc *PrinterController) UpdatePrinter(c *gin.Context) {
	var printer models.Printer
	if err := pc.DB.First(&printer, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("printer not found"))
		return
	}

	var body struct {
		Name      string `json:"name"`
		IPAddress string `json:"ip_address"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.Name != "" {
		printer.Name = body.Name
	}
	if body.IPAddress != "" {
		printer.IPAddress = body.IPAddress
	}

	if err := pc.DB.Save(&printer).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Printer updated", printer)
}

// DeletePrinter
func (pc *PrinterController) DeletePrinter(c *gin.Context) {
	res := pc.DB.Delete(&models.Printer{}, c.Param("id"))
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("printer not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Printer deleted successfully", gin.H{"id": c.Param("id")})
}

// TestPrinter -> sends a short test ticket straight to the sink
func (pc *PrinterController) TestPrinter(c *gin.Context) {
	var body struct {
		Name      string `json:"name"`
		IPAddress string `json:"ip_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("fill in all fields"))
		return
	}

	ticket := printing.Ticket{Store: body.Name}
	ticket.Directives = []printing.Directive{
		{Op: printing.OpAlign, N: 1},
		{Op: printing.OpBold, N: 1},
		{Op: printing.OpText, Text: "Test Print " + body.Name},
		{Op: printing.OpBold, N: 0},
		{Op: printing.OpText, Text: time.Now().Format("02/01/2006 15:04")},
		{Op: printing.OpCut},
	}

	if err := pc.Sink.Print(body.IPAddress, ticket); err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("l'impression de test a échoué"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Test réussi, l'imprimante fonctionne", nil)
}
