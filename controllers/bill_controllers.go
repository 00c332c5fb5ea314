package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
	"gorm.io/gorm"

	"github.com/restobar/pos/models"
	"github.com/restobar/pos/utils"
)

type BillController struct {
	DB *gorm.DB
}

func NewBillController(db *gorm.DB) *BillController {
	return &BillController{DB: db}
}

// billRange reads optional ?from=YYYY-MM-DD&to=YYYY-MM-DD filters.
// The to-date is inclusive.
func billRange(c *gin.Context) (from, to time.Time, err error) {
	const layout = "2006-01-02"
	if v := c.Query("from"); v != "" {
		from, err = time.Parse(layout, v)
		if err != nil {
			return from, to, fmt.Errorf("date 'from' invalide")
		}
	}
	if v := c.Query("to"); v != "" {
		to, err = time.Parse(layout, v)
		if err != nil {
			return from, to, fmt.Errorf("date 'to' invalide")
		}
		to = to.Add(24 * time.Hour)
	}
	return from, to, nil
}

func (bc *BillController) query(c *gin.Context) (*gorm.DB, error) {
	from, to, err := billRange(c)
	if err != nil {
		return nil, err
	}
	q := bc.DB.Model(&models.ClosedBill{})
	if !from.IsZero() {
		q = q.Where("payment_date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("payment_date < ?", to)
	}
	return q, nil
}

// GetAllBills -> closed bills, newest first, optional date range
func (bc *BillController) GetAllBills(c *gin.Context) {
	q, err := bc.query(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}

	var bills []models.ClosedBill
	if err := q.Preload("Items").Preload("Cashier").
		Order("payment_date desc").Find(&bills).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of closed bills", bills)
}

// GetBillByID -> one closed bill with its line snapshot
func (bc *BillController) GetBillByID(c *gin.Context) {
	var bill models.ClosedBill
	err := bc.DB.Preload("Items").Preload("Cashier").First(&bill, c.Param("id")).Error
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("facture non trouvée"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill detail", bill)
}

// GetSalesSummary -> revenue aggregated per payment method over the range
func (bc *BillController) GetSalesSummary(c *gin.Context) {
	q, err := bc.query(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}

	type methodTotal struct {
		PaymentMethod string  `json:"payment_method"`
		Count         int64   `json:"count"`
		Total         float64 `json:"total"`
	}
	var perMethod []methodTotal
	err = q.Select("payment_method, count(*) as count, sum(total_price) as total").
		Group("payment_method").Scan(&perMethod).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var grand float64
	var bills int64
	for _, m := range perMethod {
		grand += m.Total
		bills += m.Count
	}

	utils.RespondJSON(c, http.StatusOK, "Sales summary", gin.H{
		"bills":      bills,
		"total":      grand,
		"per_method": perMethod,
	})
}

// ExportBillsPDF -> sales report over the range as a downloadable PDF
func (bc *BillController) ExportBillsPDF(c *gin.Context) {
	q, err := bc.query(c)
	if err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}

	var bills []models.ClosedBill
	if err := q.Preload("Cashier").Order("payment_date").Find(&bills).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var company models.Company
	bc.DB.First(&company)
	name := company.Name
	if name == "" {
		name = "RESTAURANT/BAR"
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Rapport des ventes", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, name, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, "Rapport des ventes", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, time.Now().Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	headers := []struct {
		label string
		width float64
	}{
		{"Facture", 35},
		{"Date", 35},
		{"Caissier", 40},
		{"Paiement", 35},
		{"Montant", 45},
	}
	for _, h := range headers {
		pdf.CellFormat(h.width, 8, h.label, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	var total float64
	for _, b := range bills {
		pdf.CellFormat(35, 7, b.InvoiceNumber, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, b.PaymentDate.Format("02/01/2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, b.Cashier.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, b.PaymentMethod, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 7, utils.FormatCurrency(b.TotalPrice), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		total += b.TotalPrice
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(145, 8, "TOTAL", "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 8, utils.FormatCurrency(total), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("ventes-%s.pdf", time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
