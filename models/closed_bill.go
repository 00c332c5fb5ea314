package models

import "time"

// Accepted payment methods.
const (
	PaymentCash        = "cash"
	PaymentMobileMoney = "mobile money"
	PaymentBank        = "bank payment"
)

// ClosedBill is the immutable record written once money is collected.
// The order it came from no longer exists, only its id is kept.
type ClosedBill struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	OrderRef       uint    `gorm:"not null;index" json:"order_ref"`
	InvoiceNumber  string  `gorm:"type:varchar(20);not null" json:"invoice_number"`
	TotalPrice     float64 `gorm:"type:decimal(12,2);not null" json:"total_price"`
	PaymentMethod  string  `gorm:"type:varchar(20);not null" json:"payment_method"`
	AmountReceived float64 `gorm:"type:decimal(12,2);not null" json:"amount_received"`
	Change         float64 `gorm:"type:decimal(12,2);not null;default:0" json:"change"`
	CashierID      uint    `gorm:"not null" json:"cashier_id"`
	Cashier        User    `gorm:"foreignKey:CashierID" json:"cashier"`

	Items []ClosedBillItem `gorm:"foreignKey:ClosedBillID" json:"items"`

	PaymentDate time.Time `gorm:"not null" json:"payment_date"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

type ClosedBillItem struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	ClosedBillID uint    `gorm:"not null;index" json:"closed_bill_id"`
	ItemID       uint    `gorm:"not null" json:"item_id"`
	Name         string  `gorm:"type:varchar(255);not null" json:"name"`
	Quantity     int     `gorm:"not null" json:"quantity"`
	Price        float64 `gorm:"type:decimal(12,2);not null" json:"price"` // unit price at sale

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentMobileMoney, PaymentBank:
		return true
	}
	return false
}
