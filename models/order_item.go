package models

import "time"

type OrderItem struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	OrderID uint  `gorm:"not null;index" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ItemID  uint  `gorm:"not null" json:"item_id"`
	Item    Item  `gorm:"foreignKey:ItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"item"`

	Quantity int     `gorm:"not null" json:"quantity"`
	Price    float64 `gorm:"type:decimal(12,2);not null" json:"price"` // selling price at the time the line was added
	Status   string  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	// Printed marks lines already dispatched to their department printer.
	// Incremental tickets only pick up unprinted lines.
	Printed bool `gorm:"not null;default:false" json:"printed"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// RemovedItem records a partial or total removal from an order.
type RemovedItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ItemID    uint      `gorm:"not null" json:"item_id"`
	Item      Item      `gorm:"foreignKey:ItemID" json:"item"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
