package models

import "time"

// Actions recorded in the item activity log.
const (
	ActivityAdded     = "added"
	ActivitySold      = "sold"
	ActivityRestocked = "restocked"
	ActivityEdited    = "edited"
)

type Item struct {
	ID            uint     `gorm:"primaryKey" json:"id"`
	Name          string   `gorm:"type:varchar(255);not null" json:"name"`
	Description   string   `gorm:"type:text;not null" json:"description"`
	BarCode       string   `gorm:"type:varchar(100);unique;not null" json:"bar_code"`
	CategoryID    uint     `gorm:"not null" json:"category_id"`
	Category      Category `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	StoreID       uint     `gorm:"not null" json:"store_id"`
	Store         Store    `gorm:"foreignKey:StoreID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"store"`
	SupplierID    uint     `gorm:"not null" json:"supplier_id"`
	Supplier      Supplier `gorm:"foreignKey:SupplierID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"supplier"`
	PurchasePrice float64  `gorm:"type:decimal(12,2);not null" json:"purchase_price"`
	SellingPrice  float64  `gorm:"type:decimal(12,2);not null" json:"selling_price"`
	Tax           float64  `gorm:"type:decimal(12,2);not null;default:0" json:"tax"`
	PackageSize   int      `gorm:"not null;default:1" json:"package_size"`
	Stock         int      `gorm:"not null;default:0" json:"stock"`
	MinStock      int      `gorm:"not null;default:5" json:"min_stock"`
	Currency      string   `gorm:"type:varchar(10);not null;default:'FC'" json:"currency"`
	Status        string   `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	ActivityLogs []ItemActivity `gorm:"foreignKey:ItemID" json:"activity_logs,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// IsLowStock reports whether the current stock fell under the threshold.
func (i *Item) IsLowStock() bool {
	return i.Stock < i.MinStock
}

// ItemActivity is one append-only audit entry. The log is advisory: the
// current stock value is maintained directly on the item row.
type ItemActivity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ItemID    uint      `gorm:"not null;index" json:"item_id"`
	Action    string    `gorm:"type:varchar(20);not null" json:"action"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
