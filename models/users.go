package models

import "time"

// Roles recognized by the POS. The role set is fixed, single restaurant.
const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleCashier   = "cashier"
	RoleAttendant = "attendant"
)

type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"type:varchar(255);not null" json:"name"`
	Email          string     `gorm:"type:varchar(255);unique;not null" json:"email"`
	Username       string     `gorm:"type:varchar(100);unique;not null" json:"username"`
	Pin            string     `gorm:"type:varchar(255);not null" json:"-"`
	Phone          string     `gorm:"type:varchar(50);not null" json:"phone"`
	Address        string     `gorm:"type:varchar(255);not null" json:"address"`
	Avatar         string     `gorm:"type:varchar(255)" json:"avatar,omitempty"`
	Role           string     `gorm:"type:varchar(20);not null;default:'attendant'" json:"role"`
	Status         string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	BillPrintCount int        `gorm:"not null;default:0" json:"bill_print_count"`
	IsDeleted      bool       `gorm:"not null;default:false" json:"is_deleted"`
	LastLogin      *time.Time `json:"last_login,omitempty"`

	// Tables currently staffed by this attendant.
	AssignedTables []Table `gorm:"foreignKey:AttendantID" json:"assigned_tables,omitempty"`

	ActivityLogs []UserActivity `gorm:"foreignKey:UserID" json:"activity_logs,omitempty"`
	LoginHistory []LoginEntry   `gorm:"foreignKey:UserID" json:"login_history,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

type UserActivity struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Action      string    `gorm:"type:varchar(100);not null" json:"action"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

type LoginEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	IP        string    `gorm:"type:varchar(64)" json:"ip"`
	UserAgent string    `gorm:"type:varchar(255)" json:"user_agent"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// BillPrintLimit is the number of facture prints a role is allowed per user.
func BillPrintLimit(role string) int {
	switch role {
	case RoleAdmin:
		return 3
	case RoleManager:
		return 2
	default:
		return 1
	}
}
