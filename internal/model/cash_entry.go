package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EntryKind represents the direction of a cash movement.
type EntryKind string

const (
	EntryKindInflow  EntryKind = "inflow"
	EntryKindOutflow EntryKind = "outflow"
)

// CashEntry is one immutable row of the cash ledger. The table is keyed by
// the auto-increment sequence number, which is the authoritative ordering
// for balance computation; the timestamp is informational only.
type CashEntry struct {
	Sequence     uint64          `json:"sequence" gorm:"primaryKey;autoIncrement"`
	ID           uuid.UUID       `json:"id" gorm:"type:char(36);uniqueIndex;not null"`
	Kind         EntryKind       `json:"kind" gorm:"type:varchar(10);not null;index"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Description  string          `json:"description" gorm:"size:200;not null"`
	OrderID      *uint           `json:"order_id,omitempty" gorm:"index"`
	RecordedByID uint            `json:"recorded_by_id" gorm:"not null;index"`
	CreatedAt    time.Time       `json:"created_at"`

	// Relations
	Order      *Order `json:"-" gorm:"foreignKey:OrderID"`
	RecordedBy User   `json:"-" gorm:"foreignKey:RecordedByID"`
}

// BeforeCreate sets the entry identifier before inserting the record.
func (e *CashEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Signed returns the amount with its ledger sign: inflows add, outflows subtract.
func (e *CashEntry) Signed() decimal.Decimal {
	if e.Kind == EntryKindOutflow {
		return e.Amount.Neg()
	}
	return e.Amount
}
