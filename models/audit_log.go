package models

import "time"

// AuditLog records one run of the nightly ledger audit.
type AuditLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Status          string    `gorm:"not null" json:"status"` // "clean" or "drift"
	AccountsChecked int       `json:"accountsChecked"`
	Drift           int64     `json:"drift"`
	Details         string    `json:"details"`
	RanAt           time.Time `gorm:"not null" json:"ranAt"`

	CreatedAt time.Time `json:"createdAt"`
}
