package models

import "time"

// Store is a sales point (bar, kitchen, terrace...) inside the venue.
// Every store is bound to exactly one printer, which is where tickets for
// its items are dispatched.
type Store struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);unique;not null" json:"name"`
	PrinterID uint      `gorm:"not null" json:"printer_id"`
	Printer   Printer   `gorm:"foreignKey:PrinterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"printer"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
