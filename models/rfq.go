package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RFQStatus is the lifecycle state of a request for quote
type RFQStatus string

const (
	RFQStatusPending   RFQStatus = "Pending"
	RFQStatusResponded RFQStatus = "Responded"
	RFQStatusAccepted  RFQStatus = "Accepted"
	RFQStatusRejected  RFQStatus = "Rejected"
)

// OpenRFQStatuses are the statuses in which suppliers may still quote
var OpenRFQStatuses = []string{string(RFQStatusPending), string(RFQStatusResponded)}

// IsOpen reports whether suppliers may still quote
func (s RFQStatus) IsOpen() bool {
	return s == RFQStatusPending || s == RFQStatusResponded
}

// IsDecided reports whether the producer has accepted or rejected a quote
func (s RFQStatus) IsDecided() bool {
	return s == RFQStatusAccepted || s == RFQStatusRejected
}

// Decision is the producer's verdict on a specific quote
type Decision string

const (
	DecisionAccept Decision = "Accept"
	DecisionReject Decision = "Reject"
)

// IsValid reports whether d is Accept or Reject
func (d Decision) IsValid() bool {
	return d == DecisionAccept || d == DecisionReject
}

// Status returns the RFQ status a decision moves to
func (d Decision) Status() RFQStatus {
	if d == DecisionAccept {
		return RFQStatusAccepted
	}
	return RFQStatusRejected
}

// RFQ is a producer's request for quote. Quotes are kept in submission order.
type RFQ struct {
	ID              string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title           string         `gorm:"not null" json:"title"`
	Category        string         `gorm:"not null;index" json:"category"`
	Description     string         `gorm:"type:text" json:"description"`
	Quantity        *int           `json:"quantity,omitempty"`
	ProducerCompany string         `gorm:"not null" json:"producer_company"`
	ProducerEmail   string         `gorm:"not null;index" json:"producer_email"`
	Status          RFQStatus      `gorm:"not null;default:'Pending';index" json:"status"`
	DecidedQuoteID  *uint          `gorm:"column:decided_quote_id" json:"decided_quote_id,omitempty"`
	AttachmentS3Key *string        `gorm:"column:attachment_s3_key;index" json:"attachment_s3_key,omitempty"`
	AttachmentURL   *string        `gorm:"-" json:"attachment_url,omitempty"` // computed, presigned when stored in S3
	ViewerStatus    RFQStatus      `gorm:"-" json:"viewer_status,omitempty"`  // computed for the viewing supplier
	Quotes          []Quote        `gorm:"foreignKey:RFQID" json:"quotes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the RFQ model
func (RFQ) TableName() string {
	return "rfqs"
}

// BeforeCreate assigns a UUID when the caller did not supply an ID
func (r *RFQ) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// QuoteFrom returns the quote submitted by supplierCompany, if any
func (r *RFQ) QuoteFrom(supplierCompany string) (*Quote, bool) {
	for i := range r.Quotes {
		if r.Quotes[i].SupplierCompany == supplierCompany {
			return &r.Quotes[i], true
		}
	}
	return nil, false
}

// StatusFor is the status a supplier sees on this RFQ: Responded once the
// supplier has quoted on an open RFQ, otherwise the stored status.
func (r *RFQ) StatusFor(supplierCompany string) RFQStatus {
	if r.Status.IsOpen() {
		if _, ok := r.QuoteFrom(supplierCompany); ok {
			return RFQStatusResponded
		}
	}
	return r.Status
}

// ForSupplier returns a copy of the RFQ as supplierCompany may see it:
// only its own quote, with ViewerStatus filled in.
func (r RFQ) ForSupplier(supplierCompany string) RFQ {
	view := r
	view.Quotes = []Quote{}
	if q, ok := r.QuoteFrom(supplierCompany); ok {
		view.Quotes = append(view.Quotes, *q)
	}
	view.ViewerStatus = r.StatusFor(supplierCompany)
	return view
}
