package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/restobar/pos/models"
	"github.com/restobar/pos/services"
	"github.com/restobar/pos/utils"
)

type ItemController struct {
	DB *gorm.DB
}

func NewItemController(db *gorm.DB) *ItemController {
	return &ItemController{DB: db}
}

type itemRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description" binding:"required"`
	BarCode       string  `json:"bar_code" binding:"required"`
	CategoryID    uint    `json:"category_id" binding:"required"`
	StoreID       uint    `json:"store_id" binding:"required"`
	SupplierID    uint    `json:"supplier_id" binding:"required"`
	PurchasePrice float64 `json:"purchase_price" binding:"required"`
	SellingPrice  float64 `json:"selling_price" binding:"required"`
	PackageSize   int     `json:"package_size" binding:"required"`
	Stock         int     `json:"stock" binding:"required"`
	Tax           float64 `json:"tax"`
	MinStock      int     `json:"min_stock"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
}

// AddItem -> create a product; the opening stock is logged as "added"
func (ic *ItemController) AddItem(c *gin.Context) {
	var body itemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("veuillez remplir tous les champs"))
		return
	}

	if body.SellingPrice < body.PurchasePrice {
		utils.RespondError(c, http.StatusUnprocessableEntity,
			fmt.Errorf("le prix de vente doit être supérieur ou égal au prix d'achat"))
		return
	}

	var existing models.Item
	if err := ic.DB.Where("bar_code = ?", body.BarCode).First(&existing).Error; err == nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("le produit existe déjà"))
		return
	}

	item := models.Item{
		Name:          body.Name,
		Description:   body.Description,
		BarCode:       body.BarCode,
		CategoryID:    body.CategoryID,
		StoreID:       body.StoreID,
		SupplierID:    body.SupplierID,
		PurchasePrice: body.PurchasePrice,
		SellingPrice:  body.SellingPrice,
		PackageSize:   body.PackageSize,
		Stock:         body.Stock,
		Tax:           body.Tax,
	}
	if body.MinStock > 0 {
		item.MinStock = body.MinStock
	} else {
		item.MinStock = 5
	}
	if body.Currency != "" {
		item.Currency = body.Currency
	} else {
		item.Currency = "FC"
	}
	if body.Status != "" {
		item.Status = body.Status
	} else {
		item.Status = "active"
	}

	user := currentUser(c)
	item.ActivityLogs = []models.ItemActivity{{
		Action:   models.ActivityAdded,
		Quantity: body.Stock,
		UserID:   user.ID,
	}}

	if err := ic.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Produit ajouté", item)
}

// GetItems -> full catalog with references resolved
func (ic *ItemController) GetItems(c *gin.Context) {
	var items []models.Item
	if err := ic.DB.Preload("Category").Preload("Supplier").
		Preload("Store").Preload("Store.Printer").
		Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of items", items)
}

// GetItemByID
func (ic *ItemController) GetItemByID(c *gin.Context) {
	var item models.Item
	err := ic.DB.Preload("Category").Preload("Supplier").Preload("Store").
		Preload("ActivityLogs").First(&item, c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("item not found"))
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item detail", item)
}

// UpdateItem -> partial update; any change is logged as "edited"
func (ic *ItemController) UpdateItem(c *gin.Context) {
	var item models.Item
	if err := ic.DB.First(&item, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("item not found"))
		return
	}

	var body struct {
		Name          *string  `json:"name"`
		Description   *string  `json:"description"`
		BarCode       *string  `json:"bar_code"`
		CategoryID    *uint    `json:"category_id"`
		StoreID       *uint    `json:"store_id"`
		SupplierID    *uint    `json:"supplier_id"`
		PurchasePrice *float64 `json:"purchase_price"`
		SellingPrice  *float64 `json:"selling_price"`
		PackageSize   *int     `json:"package_size"`
		Tax           *float64 `json:"tax"`
		MinStock      *int     `json:"min_stock"`
		Currency      *string  `json:"currency"`
		Status        *string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	changed := false
	apply := func(cond bool, set func()) {
		if cond {
			set()
			changed = true
		}
	}
	apply(body.Name != nil, func() { item.Name = *body.Name })
	apply(body.Description != nil, func() { item.Description = *body.Description })
	apply(body.BarCode != nil, func() { item.BarCode = *body.BarCode })
	apply(body.CategoryID != nil, func() { item.CategoryID = *body.CategoryID })
	apply(body.StoreID != nil, func() { item.StoreID = *body.StoreID })
	apply(body.SupplierID != nil, func() { item.SupplierID = *body.SupplierID })
	apply(body.PurchasePrice != nil, func() { item.PurchasePrice = *body.PurchasePrice })
	apply(body.SellingPrice != nil, func() { item.SellingPrice = *body.SellingPrice })
	apply(body.PackageSize != nil, func() { item.PackageSize = *body.PackageSize })
	apply(body.Tax != nil, func() { item.Tax = *body.Tax })
	apply(body.MinStock != nil, func() { item.MinStock = *body.MinStock })
	apply(body.Currency != nil, func() { item.Currency = *body.Currency })
	apply(body.Status != nil, func() { item.Status = *body.Status })

	if item.SellingPrice < item.PurchasePrice {
		utils.RespondError(c, http.StatusUnprocessableEntity,
			fmt.Errorf("le prix de vente doit être supérieur ou égal au prix d'achat"))
		return
	}

	if err := ic.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if changed {
		ic.DB.Create(&models.ItemActivity{
			ItemID:   item.ID,
			Action:   models.ActivityEdited,
			Quantity: item.Stock,
			UserID:   currentUser(c).ID,
		})
	}

	utils.RespondJSON(c, http.StatusOK, "Produit mis à jour", item)
}

// RestockItem -> manager/admin add stock, logged as "restocked"
func (ic *ItemController) RestockItem(c *gin.Context) {
	var body struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Quantity <= 0 {
		utils.RespondError(c, http.StatusUnprocessableEntity, fmt.Errorf("quantité invalide"))
		return
	}

	var item models.Item
	if err := ic.DB.First(&item, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("item not found"))
		return
	}

	err := ic.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&item).Update("stock", item.Stock+body.Quantity).Error; err != nil {
			return err
		}
		return tx.Create(&models.ItemActivity{
			ItemID:   item.ID,
			Action:   models.ActivityRestocked,
			Quantity: body.Quantity,
			UserID:   currentUser(c).ID,
		}).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	item.Stock += body.Quantity
	utils.RespondJSON(c, http.StatusOK, "Stock réapprovisionné", item)
}

// DeleteItem
func (ic *ItemController) DeleteItem(c *gin.Context) {
	res := ic.DB.Delete(&models.Item{}, c.Param("id"))
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("item not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "The item has been deleted", gin.H{"id": c.Param("id")})
}

// GetItemsByCategory
func (ic *ItemController) GetItemsByCategory(c *gin.Context) {
	var items []models.Item
	if err := ic.DB.Where("category_id = ?", c.Param("id")).
		Preload("Category").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Items by category", items)
}

// GetItemsByStore
func (ic *ItemController) GetItemsByStore(c *gin.Context) {
	var items []models.Item
	if err := ic.DB.Where("store_id = ?", c.Param("id")).
		Preload("Store").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Items by store", items)
}

// GetItemsBySupplier
func (ic *ItemController) GetItemsBySupplier(c *gin.Context) {
	var items []models.Item
	if err := ic.DB.Where("supplier_id = ?", c.Param("id")).
		Preload("Supplier").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Items by supplier", items)
}

// GetLowStockItems -> items under their restock threshold
func (ic *ItemController) GetLowStockItems(c *gin.Context) {
	var items []models.Item
	if err := ic.DB.Where("stock < min_stock").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Low stock items", items)
}

// CheckAvailability -> whether ?qty= units of the product are in stock
func (ic *ItemController) CheckAvailability(c *gin.Context) {
	itemID, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	qty, err := strconv.Atoi(c.DefaultQuery("qty", "1"))
	if err != nil || qty <= 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("quantité invalide"))
		return
	}

	available, err := services.CheckAvailability(ic.DB, itemID, qty)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Availability", gin.H{
		"item_id":   itemID,
		"quantity":  qty,
		"available": available,
	})
}

// GetItemsCount
func (ic *ItemController) GetItemsCount(c *gin.Context) {
	var count int64
	if err := ic.DB.Model(&models.Item{}).Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Items count", gin.H{"count": count})
}
