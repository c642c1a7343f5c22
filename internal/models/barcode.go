package models

import "time"

// Barcode is one row of the per-vendor scan ledger. Rows are appended when
// a scan resolves against the HMIS and flipped to Uploaded after the vendor
// confirms the upload; they are never deleted except by an explicit user
// action.
type Barcode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Vendor    string    `gorm:"index:idx_vendor_barcode" json:"vendor"`
	Barcode   string    `gorm:"index:idx_vendor_barcode" json:"barCode"`
	AxleID    string    `json:"zh"`
	ScannedAt time.Time `json:"date"`
	Uploaded  bool      `json:"isUploaded"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
