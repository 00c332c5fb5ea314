package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/restobar/pos/apperr"
	"github.com/restobar/pos/models"
)

// assignTable claims a free table for an order with a guarded conditional
// update, so two concurrent creations can never both take the same table.
func assignTable(tx *gorm.DB, tableID, orderID, attendantID uint) error {
	res := tx.Model(&models.Table{}).
		Where("id = ? AND status = ?", tableID, models.TableAvailable).
		Updates(map[string]interface{}{
			"status":       models.TableOccupied,
			"order_id":     orderID,
			"attendant_id": attendantID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Validation("la table est déjà occupée")
	}
	return nil
}

// releaseTable clears the order and attendant binding. Idempotent: releasing
// a free table changes nothing. Clearing attendant_id also removes the table
// from the attendant's assigned set, which is the same column.
func releaseTable(tx *gorm.DB, tableID uint) error {
	return tx.Model(&models.Table{}).
		Where("id = ?", tableID).
		Updates(map[string]interface{}{
			"status":       models.TableAvailable,
			"order_id":     nil,
			"attendant_id": nil,
		}).Error
}

// lookupTable fetches a table or reports it missing.
func lookupTable(tx *gorm.DB, tableID uint) (*models.Table, error) {
	var table models.Table
	err := tx.First(&table, tableID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Validation("table non trouvée")
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}
