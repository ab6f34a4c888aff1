package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthIdentity is the authentication-subsystem record a Customer links to by
// uid. It is created and deleted only together with its Customer.
type AuthIdentity struct {
	UID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"uid"`
	CreatedAt time.Time `json:"createdAt"`
}
