package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User holds the account identity and the denormalized wallet balance.
// Balance is a cache of SUM(amount) over the user's ACTIVE transactions;
// it is mutated only by the ledger writer, inside the same database
// transaction as the ledger row it reflects.
type User struct {
	gorm.Model
	Email    string          `gorm:"uniqueIndex;not null" json:"email"`
	Password string          `gorm:"not null" json:"-"`
	Name     string          `gorm:"not null" json:"name"`
	Role     string          `gorm:"default:'user'" json:"role"`
	Balance  decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
