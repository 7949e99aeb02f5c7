package models

import (
	"time"

	"github.com/lib/pq"
)

// OrderStatusRecord is the persisted lifecycle of an order hash
type OrderStatusRecord struct {
	OrderHash   string `json:"order_hash" gorm:"primaryKey;size:66"`
	IsValidated bool   `json:"is_validated" gorm:"not null;default:false"`
	IsCancelled bool   `json:"is_cancelled" gorm:"not null;default:false;index"`

	// Fill fraction numerator and denominator, decimal strings
	TotalFilled string `json:"total_filled" gorm:"type:numeric(78,0);not null;default:0"`
	TotalSize   string `json:"total_size" gorm:"type:numeric(78,0);not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OrderStatusRecord) TableName() string {
	return "order_statuses"
}

// OffererNonce is the current nonce of an offerer
type OffererNonce struct {
	Offerer   string    `json:"offerer" gorm:"primaryKey;size:42"`
	Nonce     string    `json:"nonce" gorm:"type:numeric(78,0);not null;default:0"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OffererNonce) TableName() string {
	return "offerer_nonces"
}

// FulfillmentRecord is one fill of one order
type FulfillmentRecord struct {
	ID        string `json:"id" gorm:"primaryKey"` // UUID
	ReceiptID string `json:"receipt_id" gorm:"not null;index"`
	OrderHash string `json:"order_hash" gorm:"not null;size:66;index"`
	Offerer   string `json:"offerer" gorm:"not null;size:42;index"`
	Fulfiller string `json:"fulfiller" gorm:"not null;size:42;index"`

	Numerator   string `json:"numerator" gorm:"type:numeric(78,0);not null"`
	Denominator string `json:"denominator" gorm:"type:numeric(78,0);not null"`

	// Block timestamp the fill was executed at
	Timestamp uint64    `json:"timestamp" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (FulfillmentRecord) TableName() string {
	return "fulfillment_records"
}

// EventRecord is an emitted engine event, kept for replay to late subscribers
type EventRecord struct {
	ID        string         `json:"id" gorm:"primaryKey"` // UUID
	Name      string         `json:"name" gorm:"not null;size:32;index"`
	OrderHash string         `json:"order_hash" gorm:"size:66;index"`
	Parties   pq.StringArray `json:"parties" gorm:"type:text[];index:idx_event_parties,type:gin"`
	Payload   string         `json:"payload" gorm:"type:text"` // JSON
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}

func (EventRecord) TableName() string {
	return "event_records"
}
