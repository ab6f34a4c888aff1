package models

import "time"

type Loan struct {
	ID         uint  `gorm:"primaryKey" json:"id"`
	CustomerID uint  `gorm:"index;not null" json:"customerId"`
	Amount     int64 `gorm:"not null" json:"amount"`
	BranchID   int   `gorm:"not null" json:"branchId"`

	CreatedAt time.Time `json:"createdAt"`
}
