package model

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents a repair order workflow state.
type OrderStatus string

const (
	OrderStatusReceived      OrderStatus = "received"
	OrderStatusDiagnosing    OrderStatus = "diagnosing"
	OrderStatusInProgress    OrderStatus = "in_progress"
	OrderStatusAwaitingParts OrderStatus = "awaiting_parts"
	OrderStatusReady         OrderStatus = "ready"
	OrderStatusDelivered     OrderStatus = "delivered"
	OrderStatusCancelled     OrderStatus = "cancelled"
)

// OrderStatuses lists every valid workflow state.
var OrderStatuses = []OrderStatus{
	OrderStatusReceived,
	OrderStatusDiagnosing,
	OrderStatusInProgress,
	OrderStatusAwaitingParts,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ValidOrderStatus reports whether s is a known workflow state.
func ValidOrderStatus(s OrderStatus) bool {
	for _, st := range OrderStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Order represents a repair order for a client's device.
type Order struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	ClientID      uint            `json:"client_id" gorm:"not null;index"`
	Brand         string          `json:"brand" gorm:"size:80;not null"`
	Model         string          `json:"model" gorm:"size:120;not null"`
	IMEI          string          `json:"imei" gorm:"size:40"`
	Accessories   string          `json:"accessories" gorm:"size:200"`
	UnlockCode    string          `json:"unlock_code" gorm:"size:120"`
	ReportedIssue string          `json:"reported_issue" gorm:"type:text;not null"`
	Diagnosis     string          `json:"diagnosis" gorm:"type:text"`
	EstimatedCost decimal.Decimal `json:"estimated_cost" gorm:"type:decimal(20,2);not null;default:0"`
	Deposit       decimal.Decimal `json:"deposit" gorm:"type:decimal(20,2);not null;default:0"`
	Status        OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'received';index"`
	PublicToken   string          `json:"public_token" gorm:"size:16;uniqueIndex"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relations
	Client  Client          `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Parts   []Part          `json:"parts,omitempty" gorm:"foreignKey:OrderID"`
	History []StatusHistory `json:"history,omitempty" gorm:"foreignKey:OrderID"`
}

// BeforeCreate assigns the public tracking token.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.PublicToken == "" {
		token, err := GenPublicToken(10)
		if err != nil {
			return err
		}
		o.PublicToken = token
	}
	return nil
}

// Part is an internal part line on an order. Parts are visible to
// technician and admin roles only and never appear in the public view.
type Part struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	Name      string          `json:"name" gorm:"size:200;not null"`
	Cost      decimal.Decimal `json:"cost" gorm:"type:decimal(20,2);not null;default:0"`
	Quantity  int             `json:"quantity" gorm:"not null;default:1"`
	CreatedAt time.Time       `json:"created_at"`
}

// StatusHistory records every workflow transition of an order.
type StatusHistory struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	OrderID   uint        `json:"order_id" gorm:"not null;index"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(20);not null"`
	Note      string      `json:"note" gorm:"type:text"`
	CreatedAt time.Time   `json:"created_at"`
}

// tokenAlphabet omits ambiguous characters (0/O, 1/I) so tokens survive
// being read over the phone.
const tokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenPublicToken returns a random order tracking token of length n.
func GenPublicToken(n int) (string, error) {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tokenAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
