package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Represents a checkout session handed off to the payment processor.
// This is an attempt record, not a ledger - completion is only ever
// signalled through the success redirect in this design.
type Purchase struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	VisitorID   string    `gorm:"index" json:"visitor_id"`
	Plan        string    `gorm:"index" json:"plan"`
	Mode        string    `json:"mode"` // "payment" or "subscription"
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `gorm:"default:'usd'" json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Purchase) TableName() string {
	return "purchases"
}
