package models

import "time"

const (
	TableAvailable = "disponible"
	TableOccupied  = "occupe"
)

type Table struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Number      string    `gorm:"type:varchar(50);unique;not null" json:"number"`
	Status      string    `gorm:"type:varchar(20);not null;default:'disponible'" json:"status"`
	OrderID     *uint     `gorm:"index" json:"order_id,omitempty"`
	AttendantID *uint     `gorm:"index" json:"attendant_id,omitempty"`
	Attendant   *User     `gorm:"foreignKey:AttendantID" json:"attendant,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
