package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/restobar/pos/apperr"
	"github.com/restobar/pos/models"
)

// CheckAvailability reports whether the product has at least qty in stock.
func CheckAvailability(db *gorm.DB, itemID uint, qty int) (bool, error) {
	var item models.Item
	err := db.First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperr.NotFound("item")
	}
	if err != nil {
		return false, err
	}
	return item.Stock >= qty, nil
}

// adjustStock applies one signed delta to an item and appends the matching
// activity-log entry. The ledger never clamps: a delta that would drive
// stock negative is rejected, callers are expected to have validated first.
func adjustStock(tx *gorm.DB, item *models.Item, delta int, action string, actorID uint) error {
	if delta == 0 {
		return nil
	}

	newStock := item.Stock + delta
	if newStock < 0 {
		return apperr.Validation("stock insuffisant pour le produit: %s", item.Name)
	}

	qty := delta
	if qty < 0 {
		qty = -qty
	}

	if err := tx.Model(item).Update("stock", newStock).Error; err != nil {
		return err
	}
	item.Stock = newStock

	return tx.Create(&models.ItemActivity{
		ItemID:   item.ID,
		Action:   action,
		Quantity: qty,
		UserID:   actorID,
	}).Error
}
