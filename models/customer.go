package models

import (
	"time"

	"onlinebank-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"not null" json:"firstName"`
	LastName  string    `gorm:"not null" json:"lastName"`
	Phone     string    `gorm:"uniqueIndex;not null" json:"phone"`
	UID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"-"`
	Password  string    `gorm:"not null" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Passwords are stored as bcrypt hashes only.
func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	hashed, err := utils.HashPassword(c.Password)
	if err != nil {
		return err
	}
	c.Password = hashed
	return
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
