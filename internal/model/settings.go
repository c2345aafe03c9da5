package model

import "time"

// SettingsID is the primary key of the single settings row.
const SettingsID uint = 1

// Settings holds company branding shown on receipts and the public view.
type Settings struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CompanyName   string    `json:"company_name" gorm:"size:120"`
	Address       string    `json:"address" gorm:"size:200"`
	Phone         string    `json:"phone" gorm:"size:50"`
	Email         string    `json:"email" gorm:"size:120"`
	LogoFilename  string    `json:"logo_filename" gorm:"size:200"`
	WarrantyTerms string    `json:"warranty_terms" gorm:"type:text"`
	UpdatedAt     time.Time `json:"updated_at"`
}
