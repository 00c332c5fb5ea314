package models

import (
	"fmt"
	"time"
)

// Order lifecycle: pending -> bill-printed -> paid. A paid order is
// snapshotted into a ClosedBill and deleted; an order whose lines are all
// removed is deleted without a bill.
const (
	OrderPending     = "pending"
	OrderBillPrinted = "bill-printed"
	OrderPaid        = "paid"
)

type Order struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	TableID      uint          `gorm:"not null;index" json:"table_id"`
	Table        Table         `gorm:"foreignKey:TableID" json:"table"`
	AttendantID  uint          `gorm:"not null;index" json:"attendant_id"`
	Attendant    User          `gorm:"foreignKey:AttendantID" json:"attendant"`
	Items        []OrderItem   `gorm:"foreignKey:OrderID" json:"items"`
	RemovedItems []RemovedItem `gorm:"foreignKey:OrderID" json:"removed_items"`
	Status       string        `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TotalPrice   float64       `gorm:"type:decimal(12,2);not null;default:0" json:"total_price"`
	CreatedAt    time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null" json:"updated_at"`
}

// Reference is the short order identifier printed on tickets.
func (o *Order) Reference() string {
	return fmt.Sprintf("%06d", o.ID)
}
