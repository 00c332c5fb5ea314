package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/restobar/pos/apperr"
	"github.com/restobar/pos/events"
	"github.com/restobar/pos/models"
	"github.com/restobar/pos/printing"
	"github.com/restobar/pos/utils"
)

// TicketDispatcher sends one print job to its destinations and reports
// per-destination outcomes. Dispatch is best effort and never returns an
// error to the order flow.
type TicketDispatcher interface {
	Dispatch(job printing.Job) []printing.Result
}

// OrderService owns the order lifecycle: creation, item add/removal,
// discount, bill printing and payment close-out. Every mutation runs in one
// transaction; ticket dispatch happens after commit and cannot fail it.
type OrderService struct {
	DB      *gorm.DB
	Printer TicketDispatcher
	Logo    [][]bool
}

func NewOrderService(db *gorm.DB, printer TicketDispatcher) *OrderService {
	return &OrderService{DB: db, Printer: printer}
}

// Discount percentages accepted by ApplyDiscount.
var allowedDiscounts = map[int]bool{5: true, 10: true, 20: true, 50: true, 75: true, 100: true}

// RemovalRequest asks to take quantity units of a product off an order.
type RemovalRequest struct {
	ItemID   uint `json:"product" binding:"required"`
	Quantity int  `json:"quantity" binding:"required"`
}

// CreateOrder validates the full item list against catalog and inventory,
// then creates the order, decrements stock, claims the table and logs the
// attendant activity in one transaction. Tickets go out after commit.
func (s *OrderService) CreateOrder(tableID uint, reqs []ItemRequest, attendant *models.User) (*models.Order, error) {
	var (
		order models.Order
		lines []pricedLine
	)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		table, err := lookupTable(tx, tableID)
		if err != nil {
			return err
		}
		if table.Status == models.TableOccupied || table.OrderID != nil {
			return apperr.Validation("la table est déjà occupée")
		}

		var total float64
		lines, total, err = validateAndPrice(tx, reqs)
		if err != nil {
			return err
		}

		order = models.Order{
			TableID:     tableID,
			AttendantID: attendant.ID,
			Status:      models.OrderPending,
			TotalPrice:  total,
		}
		for _, l := range lines {
			order.Items = append(order.Items, models.OrderItem{
				ItemID:   l.Item.ID,
				Quantity: l.Quantity,
				Price:    l.Item.SellingPrice,
				Status:   models.OrderPending,
			})
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range lines {
			if err := adjustStock(tx, &lines[i].Item, -lines[i].Quantity, models.ActivitySold, attendant.ID); err != nil {
				return err
			}
		}

		if err := assignTable(tx, tableID, order.ID, attendant.ID); err != nil {
			return err
		}

		return logUserActivity(tx, attendant.ID, "order-created",
			fmt.Sprintf("commande %s créée sur la table %d", order.Reference(), tableID))
	})
	if err != nil {
		return nil, err
	}

	printLines := make([]printing.Line, 0, len(lines))
	for i, l := range lines {
		printLines = append(printLines, printLine(order.Items[i], l.Item))
	}
	s.dispatchAndMark(printing.Job{
		Kind:   printing.KindOrder,
		Header: s.header(&order, attendant.Name),
		Lines:  printLines,
	}, true)

	s.notifyLowStock(lines)
	events.BroadcastOrderCreate(order)
	return &order, nil
}

// AddItems appends validated lines to a live order and dispatches a ticket
// covering only the new lines; previously printed lines are never resent.
func (s *OrderService) AddItems(orderID uint, reqs []ItemRequest, actor *models.User) (*models.Order, error) {
	var (
		order    models.Order
		lines    []pricedLine
		newItems []models.OrderItem
	)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Status == models.OrderPaid {
			return apperr.Validation("la commande est déjà payée")
		}

		var inc float64
		var err error
		lines, inc, err = validateAndPrice(tx, reqs)
		if err != nil {
			return err
		}

		for _, l := range lines {
			item := models.OrderItem{
				OrderID:  order.ID,
				ItemID:   l.Item.ID,
				Quantity: l.Quantity,
				Price:    l.Item.SellingPrice,
				Status:   models.OrderPending,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			newItems = append(newItems, item)
		}

		for i := range lines {
			if err := adjustStock(tx, &lines[i].Item, -lines[i].Quantity, models.ActivitySold, actor.ID); err != nil {
				return err
			}
		}

		order.TotalPrice += inc
		return tx.Model(&order).Update("total_price", order.TotalPrice).Error
	})
	if err != nil {
		return nil, err
	}

	printLines := make([]printing.Line, 0, len(newItems))
	for i, oi := range newItems {
		printLines = append(printLines, printLine(oi, lines[i].Item))
	}
	s.dispatchAndMark(printing.Job{
		Kind:   printing.KindAddition,
		Header: s.header(&order, order.Attendant.Name),
		Lines:  printLines,
	}, true)

	s.notifyLowStock(lines)
	events.BroadcastOrderUpdate(order)
	return &order, nil
}

// RemoveItems takes quantities off matching lines, restocks the inventory,
// records the removals and recomputes the total from the remaining lines.
// When nothing is left the order is deleted and its table released; the
// second return value reports that case.
func (s *OrderService) RemoveItems(orderID uint, removals []RemovalRequest, actor *models.User) (*models.Order, bool, error) {
	if len(removals) == 0 {
		return nil, false, apperr.Validation("aucun article à retirer")
	}

	var (
		order        models.Order
		removedLines []printing.Line
		deleted      bool
	)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadOrder(tx, orderID, &order); err != nil {
			return err
		}

		remaining := make([]models.OrderItem, 0, len(order.Items))
		remaining = append(remaining, order.Items...)

		for _, rm := range removals {
			if rm.Quantity <= 0 {
				return apperr.Validation("quantité invalide")
			}

			idx := -1
			for i := range remaining {
				if remaining[i].ItemID == rm.ItemID {
					idx = i
					break
				}
			}
			if idx == -1 {
				return apperr.Validation("article absent de la commande")
			}
			line := &remaining[idx]
			if rm.Quantity > line.Quantity {
				return apperr.Validation("quantité à retirer supérieure à la quantité commandée")
			}

			line.Quantity -= rm.Quantity
			if line.Quantity == 0 {
				if err := tx.Delete(&models.OrderItem{}, line.ID).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Model(&models.OrderItem{}).Where("id = ?", line.ID).
					Update("quantity", line.Quantity).Error; err != nil {
					return err
				}
			}

			if err := tx.Create(&models.RemovedItem{
				OrderID:  order.ID,
				ItemID:   rm.ItemID,
				Quantity: rm.Quantity,
			}).Error; err != nil {
				return err
			}

			item := line.Item
			if err := adjustStock(tx, &item, rm.Quantity, models.ActivityRestocked, actor.ID); err != nil {
				return err
			}
			line.Item.Stock = item.Stock

			rl := printLine(*line, line.Item)
			rl.Quantity = rm.Quantity
			removedLines = append(removedLines, rl)

			if line.Quantity == 0 {
				remaining = append(remaining[:idx], remaining[idx+1:]...)
			}
		}

		// Recompute from the remaining lines rather than subtracting, so the
		// stored total cannot drift.
		var total float64
		for _, line := range remaining {
			total += float64(line.Quantity) * line.Price
		}
		order.Items = remaining
		order.TotalPrice = total

		if len(remaining) == 0 {
			deleted = true
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
				return err
			}
			if err := releaseTable(tx, order.TableID); err != nil {
				return err
			}
			return tx.Delete(&models.Order{}, order.ID).Error
		}

		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("total_price", total).Error
	})
	if err != nil {
		return nil, false, err
	}

	if len(removedLines) > 0 {
		s.dispatchAndMark(printing.Job{
			Kind:   printing.KindRemoval,
			Header: s.header(&order, order.Attendant.Name),
			Lines:  removedLines,
		}, false)
	}

	if deleted {
		events.BroadcastOrderDelete(order.ID)
		return nil, true, nil
	}
	events.BroadcastOrderUpdate(order)
	return &order, false, nil
}

// ApplyDiscount reduces the current total by one of the allowed
// percentages. Repeated discounts compound; no base price is kept.
func (s *OrderService) ApplyDiscount(orderID uint, percentage int) (*models.Order, error) {
	if !allowedDiscounts[percentage] {
		return nil, apperr.Validation("remise non autorisée: %d%%", percentage)
	}

	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadOrder(tx, orderID, &order); err != nil {
			return err
		}
		order.TotalPrice -= order.TotalPrice * float64(percentage) / 100
		return tx.Model(&order).Update("total_price", order.TotalPrice).Error
	})
	if err != nil {
		return nil, err
	}

	events.BroadcastOrderUpdate(order)
	return &order, nil
}

// Facture prints the itemized bill and moves the order to bill-printed.
// Each user has a role-bounded number of bill prints; past the ceiling the
// call fails without touching the counter.
func (s *OrderService) Facture(orderID uint, caller *models.User) (*models.Order, error) {
	var order models.Order

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadOrder(tx, orderID, &order); err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, caller.ID).Error; err != nil {
			return err
		}
		if user.BillPrintCount >= models.BillPrintLimit(user.Role) {
			return apperr.Permission("limite d'impression de facture atteinte")
		}

		if err := tx.Model(&order).Update("status", models.OrderBillPrinted).Error; err != nil {
			return err
		}
		order.Status = models.OrderBillPrinted

		return tx.Model(&user).Update("bill_print_count", user.BillPrintCount+1).Error
	})
	if err != nil {
		return nil, err
	}

	s.dispatchAndMark(printing.Job{
		Kind:          printing.KindInvoice,
		Header:        s.header(&order, order.Attendant.Name),
		Lines:         s.orderPrintLines(&order),
		Total:         order.TotalPrice,
		InvoiceNumber: printing.InvoiceNumber(time.Now()),
		Logo:          s.Logo,
	}, false)

	events.BroadcastOrderUpdate(order)
	return &order, nil
}

// Pay closes the order: it writes the immutable bill snapshot, releases the
// table, deletes the order and dispatches the receipt.
func (s *OrderService) Pay(orderID uint, method string, amountReceived float64, cashier *models.User) (*models.ClosedBill, error) {
	if !models.ValidPaymentMethod(method) {
		return nil, apperr.Validation("mode de paiement invalide: %s", method)
	}

	var (
		order models.Order
		bill  models.ClosedBill
	)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadOrder(tx, orderID, &order); err != nil {
			return err
		}
		if order.Status == models.OrderPaid {
			return apperr.Validation("la commande est déjà payée")
		}
		if amountReceived < order.TotalPrice {
			return apperr.Validation("montant reçu insuffisant")
		}

		now := time.Now()
		bill = models.ClosedBill{
			OrderRef:       order.ID,
			InvoiceNumber:  printing.InvoiceNumber(now),
			TotalPrice:     order.TotalPrice,
			PaymentMethod:  method,
			AmountReceived: amountReceived,
			Change:         amountReceived - order.TotalPrice,
			CashierID:      cashier.ID,
			PaymentDate:    now,
		}
		for _, line := range order.Items {
			bill.Items = append(bill.Items, models.ClosedBillItem{
				ItemID:   line.ItemID,
				Name:     line.Item.Name,
				Quantity: line.Quantity,
				Price:    line.Item.SellingPrice,
			})
		}
		if err := tx.Create(&bill).Error; err != nil {
			return err
		}

		if err := releaseTable(tx, order.TableID); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Order{}, order.ID).Error; err != nil {
			return err
		}

		return logUserActivity(tx, cashier.ID, "order-paid",
			fmt.Sprintf("commande %s encaissée (%s)", order.Reference(), method))
	})
	if err != nil {
		return nil, err
	}

	s.dispatchAndMark(printing.Job{
		Kind:   printing.KindReceipt,
		Header: s.header(&order, order.Attendant.Name),
		Lines:  s.orderPrintLines(&order),
		Total:  bill.TotalPrice,
		Payment: &printing.PaymentInfo{
			Method:         method,
			AmountReceived: amountReceived,
			Change:         bill.Change,
		},
		InvoiceNumber: bill.InvoiceNumber,
	}, false)

	events.BroadcastOrderPaid(bill)
	return &bill, nil
}

// GetOrder returns one order with its lines and references resolved.
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := loadOrder(s.DB, orderID, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns all live orders.
func (s *OrderService) ListOrders() ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.Preload("Items").Preload("Items.Item").
		Preload("Table").Preload("Attendant").
		Find(&orders).Error
	return orders, err
}

// OrderByTable returns the active order bound to a table.
func (s *OrderService) OrderByTable(tableID uint) (*models.Order, error) {
	var table models.Table
	if err := s.DB.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("table")
		}
		return nil, err
	}
	if table.OrderID == nil {
		return nil, apperr.NotFound("order")
	}
	return s.GetOrder(*table.OrderID)
}

func loadOrder(tx *gorm.DB, orderID uint, order *models.Order) error {
	err := tx.Preload("Items").Preload("Items.Item").
		Preload("Items.Item.Store").Preload("Items.Item.Store.Printer").
		Preload("Attendant").
		First(order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("order")
	}
	return err
}

func logUserActivity(tx *gorm.DB, userID uint, action, description string) error {
	return tx.Create(&models.UserActivity{
		UserID:      userID,
		Action:      action,
		Description: description,
	}).Error
}

// dispatchAndMark sends the job and, for order/addition tickets, flips the
// printed flag on every line whose destination confirmed the print. Failed
// destinations leave their lines unprinted so a retry can pick them up.
func (s *OrderService) dispatchAndMark(job printing.Job, mark bool) {
	if s.Printer == nil || len(job.Lines) == 0 {
		return
	}
	results := s.Printer.Dispatch(job)
	if !mark {
		return
	}

	var printed []uint
	for _, r := range results {
		if r.OK {
			printed = append(printed, r.LineIDs...)
		}
	}
	if len(printed) == 0 {
		return
	}
	if err := s.DB.Model(&models.OrderItem{}).Where("id IN ?", printed).
		Update("printed", true).Error; err != nil {
		utils.ErrorLogger.Printf("failed to mark %d line(s) printed: %v", len(printed), err)
	}
}

func (s *OrderService) orderPrintLines(order *models.Order) []printing.Line {
	lines := make([]printing.Line, 0, len(order.Items))
	for _, oi := range order.Items {
		lines = append(lines, printLine(oi, oi.Item))
	}
	return lines
}

func (s *OrderService) header(order *models.Order, attendantName string) printing.Header {
	name := "RESTAURANT/BAR"
	var company models.Company
	if err := s.DB.First(&company).Error; err == nil && company.Name != "" {
		name = company.Name
	}
	return printing.Header{
		Company:   name,
		OrderRef:  order.Reference(),
		Attendant: attendantName,
		At:        time.Now(),
	}
}

func (s *OrderService) notifyLowStock(lines []pricedLine) {
	for _, l := range lines {
		if l.Item.IsLowStock() {
			events.BroadcastLowStock(l.Item)
		}
	}
}
