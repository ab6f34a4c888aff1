package models

import "time"

const (
	AccountTypeSavings = "savings"
	AccountTypeLoan    = "LOAN"

	AccountStatusActive = "active"
)

// Account balances are integer minor currency units. A customer has at most
// one LOAN-type account, created lazily on the first loan request; the unique
// (customer_id, type) index is what makes that get-or-create race-free.
type Account struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CustomerID uint   `gorm:"uniqueIndex:idx_accounts_customer_type,priority:1;not null" json:"customerId"`
	Balance    int64  `gorm:"not null;default:0" json:"balance"`
	Status     string `gorm:"not null;default:'active'" json:"status"`
	Type       string `gorm:"uniqueIndex:idx_accounts_customer_type,priority:2;not null" json:"type"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
