package model

import "time"

// Client represents a customer bringing devices in for repair.
type Client struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:120;not null;index"`
	Phone     string    `json:"phone" gorm:"size:50"`
	Email     string    `json:"email" gorm:"size:120"`
	Address   string    `json:"address" gorm:"size:200"`
	TaxID     string    `json:"tax_id" gorm:"size:20;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
