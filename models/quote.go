package models

import "time"

// Quote is a supplier's priced response to an RFQ. It has no lifecycle of
// its own; its outcome is read from the parent RFQ's DecidedQuoteID.
// A supplier holds at most one quote per RFQ.
type Quote struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RFQID           string    `gorm:"column:rfq_id;type:varchar(36);not null;index;uniqueIndex:idx_quote_rfq_supplier" json:"rfq_id"`
	SupplierCompany string    `gorm:"not null;index;uniqueIndex:idx_quote_rfq_supplier" json:"supplier_company"`
	SupplierEmail   string    `gorm:"not null" json:"supplier_email"`
	Price           float64   `gorm:"not null" json:"price"`
	Currency        string    `gorm:"not null;default:'ZAR'" json:"currency"`
	LeadTimeDays    int       `json:"lead_time_days"`
	Terms           string    `gorm:"type:text" json:"terms"`
	Notes           string    `gorm:"type:text" json:"notes"`
	SubmittedAt     time.Time `gorm:"not null" json:"submitted_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Quote model
func (Quote) TableName() string {
	return "quotes"
}
