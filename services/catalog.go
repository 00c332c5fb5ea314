package services

import (
	"errors"
	"math"

	"gorm.io/gorm"

	"github.com/restobar/pos/apperr"
	"github.com/restobar/pos/models"
	"github.com/restobar/pos/printing"
)

// ItemRequest is one (product, quantity) pair from an order mutation.
type ItemRequest struct {
	ItemID   uint `json:"product" binding:"required"`
	Quantity int  `json:"quantity" binding:"required"`
}

type pricedLine struct {
	Item     models.Item
	Quantity int
}

// validateAndPrice checks a requested item list against catalog and
// inventory and computes the incremental total. It mutates nothing: the
// whole list must pass before any stock is touched, so a failure mid-list
// cannot leave partial decrements behind. Repeated entries for the same
// product are merged first, so the stock check sees the summed quantity
// and the ledger gets one delta per product.
func validateAndPrice(tx *gorm.DB, reqs []ItemRequest) ([]pricedLine, float64, error) {
	if len(reqs) == 0 {
		return nil, 0, apperr.Validation("veuillez ajouter des articles")
	}

	merged := make([]ItemRequest, 0, len(reqs))
	index := make(map[uint]int, len(reqs))
	for _, req := range reqs {
		if req.Quantity <= 0 {
			return nil, 0, apperr.Validation("quantité invalide")
		}
		if i, ok := index[req.ItemID]; ok {
			merged[i].Quantity += req.Quantity
			continue
		}
		index[req.ItemID] = len(merged)
		merged = append(merged, req)
	}

	var (
		lines []pricedLine
		total float64
	)
	for _, req := range merged {
		var item models.Item
		err := tx.Preload("Store").Preload("Store.Printer").
			First(&item, req.ItemID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperr.Validation("produit non trouvé")
		}
		if err != nil {
			return nil, 0, err
		}

		if math.IsNaN(item.SellingPrice) || item.SellingPrice <= 0 {
			return nil, 0, apperr.Validation("prix invalide pour le produit: %s", item.Name)
		}
		if item.Stock < req.Quantity {
			return nil, 0, apperr.Validation("stock insuffisant pour le produit: %s", item.Name)
		}

		total += item.SellingPrice * float64(req.Quantity)
		lines = append(lines, pricedLine{Item: item, Quantity: req.Quantity})
	}

	if math.IsNaN(total) || total <= 0 {
		return nil, 0, apperr.Computation("erreur de calcul du total")
	}
	return lines, total, nil
}

// printLine resolves one persisted order line into a routed print line.
// An item whose store has no printer yields an empty address; the
// dispatcher reports it as a skipped destination.
func printLine(oi models.OrderItem, item models.Item) printing.Line {
	l := printing.Line{
		LineID:    oi.ID,
		ItemID:    item.ID,
		Name:      item.Name,
		Quantity:  oi.Quantity,
		UnitPrice: oi.Price,
		StoreID:   item.StoreID,
		StoreName: item.Store.Name,
	}
	if item.Store.Printer.IPAddress != "" {
		l.PrinterName = item.Store.Printer.Name
		l.PrinterAddr = item.Store.Printer.IPAddress
	}
	return l
}
