package models

import "time"

const (
	TransactionTypeInitialDeposit   = "initial_deposit"
	TransactionTypeTransfer         = "transfer"
	TransactionTypeLoanDisbursement = "loan_disbursement"
	TransactionTypeDeleteAdjustment = "delete_adjustment"
)

// Transaction is an append-only ledger entry. FromID and ToID are nullable:
// deposits have no source account and withdrawals no destination. Rows are
// never updated, and deleted only by a customer cascade delete.
type Transaction struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Type      string `gorm:"not null" json:"type"`
	FromID    *uint  `gorm:"index" json:"fromId"`
	ToID      *uint  `gorm:"index" json:"toId"`
	Amount    int64  `gorm:"not null" json:"amount"`
	Reference string `json:"reference"`

	CreatedAt time.Time `json:"createdAt"`
}
