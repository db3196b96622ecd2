package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wineprocure/procurement-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultCurrency = "ZAR"

// Party identifies one side of an RFQ, taken from the verified session
type Party struct {
	Email   string
	Company string
}

// CreateRFQInput carries the producer-supplied fields of a new RFQ
type CreateRFQInput struct {
	Title       string
	Category    string
	Description string
	Quantity    *int
}

// QuoteInput is the supplier's priced response
type QuoteInput struct {
	Price        float64
	Currency     string
	LeadTimeDays int
	Terms        string
	Notes        string
}

// RFQService runs the RFQ lifecycle: Pending until the first quote,
// Responded until the producer decides, then Accepted or Rejected for good.
type RFQService struct {
	db       *gorm.DB
	notifier Notifier
	cache    ListingCache
	now      func() time.Time
}

var rfqServiceInstance *RFQService

// NewRFQService creates an RFQ service. A nil notifier or cache disables
// that side effect.
func NewRFQService(db *gorm.DB, notifier Notifier, cache ListingCache) *RFQService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if cache == nil {
		cache = NoopListingCache{}
	}
	return &RFQService{
		db:       db,
		notifier: notifier,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// InitRFQService creates the shared RFQ service instance
func InitRFQService(db *gorm.DB, notifier Notifier, cache ListingCache) *RFQService {
	rfqServiceInstance = NewRFQService(db, notifier, cache)
	return rfqServiceInstance
}

// GetRFQService returns the shared RFQ service instance
func GetRFQService() *RFQService {
	return rfqServiceInstance
}

// SetRFQService sets the shared RFQ service instance (primarily for testing)
func SetRFQService(service *RFQService) {
	rfqServiceInstance = service
}

// SetClock overrides the time source (primarily for testing)
func (s *RFQService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateRFQ opens a new RFQ for producer with status Pending and no quotes
func (s *RFQService) CreateRFQ(ctx context.Context, producer Party, input CreateRFQInput) (*models.RFQ, error) {
	title := strings.TrimSpace(input.Title)
	category := strings.TrimSpace(input.Category)

	if title == "" {
		return nil, &ValidationError{Code: "MISSING_TITLE", Message: "Title is required"}
	}
	if category == "" {
		return nil, &ValidationError{Code: "MISSING_CATEGORY", Message: "Category is required"}
	}
	if producer.Email == "" {
		return nil, &ValidationError{Code: "MISSING_PRODUCER", Message: "Producer email is required"}
	}
	if input.Quantity != nil && *input.Quantity <= 0 {
		return nil, &ValidationError{Code: "INVALID_QUANTITY", Message: "Quantity must be greater than zero"}
	}

	rfq := models.RFQ{
		Title:           title,
		Category:        category,
		Description:     strings.TrimSpace(input.Description),
		Quantity:        input.Quantity,
		ProducerCompany: producer.Company,
		ProducerEmail:   producer.Email,
		Status:          models.RFQStatusPending,
		CreatedAt:       s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&rfq).Error; err != nil {
		return nil, fmt.Errorf("failed to create rfq: %w", err)
	}
	rfq.Quotes = []models.Quote{}

	s.invalidate(ctx, rfq.ProducerEmail)
	return &rfq, nil
}

// GetRFQ loads an RFQ with its quotes in submission order
func (s *RFQService) GetRFQ(ctx context.Context, rfqID string) (*models.RFQ, error) {
	var rfq models.RFQ
	err := s.withQuotes(s.db.WithContext(ctx)).Where("id = ?", rfqID).First(&rfq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Code: "RFQ_NOT_FOUND", Message: "RFQ not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rfq: %w", err)
	}
	return &rfq, nil
}

// SubmitQuote records supplier's quote on an open RFQ and moves a Pending
// RFQ to Responded. A supplier that quotes again replaces its earlier quote
// in place, so repeated submissions never duplicate entries.
func (s *RFQService) SubmitQuote(ctx context.Context, rfqID string, supplier Party, input QuoteInput) (*models.RFQ, error) {
	if supplier.Company == "" {
		return nil, &ValidationError{Code: "MISSING_SUPPLIER", Message: "Supplier company is required"}
	}
	if input.Price <= 0 {
		return nil, &ValidationError{Code: "INVALID_PRICE", Message: "Price must be greater than zero"}
	}
	if input.LeadTimeDays < 0 {
		return nil, &ValidationError{Code: "INVALID_LEAD_TIME", Message: "Lead time cannot be negative"}
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The row lock holds off a racing decision until the quote is in,
		// and serialises submissions on the same RFQ.
		var rfq models.RFQ
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", rfqID).First(&rfq).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Code: "RFQ_NOT_FOUND", Message: "RFQ not found"}
			}
			return fmt.Errorf("failed to load rfq: %w", err)
		}
		if rfq.Status.IsDecided() {
			return &ConflictError{
				Code:    "RFQ_CLOSED",
				Message: fmt.Sprintf("RFQ has already been %s and no longer accepts quotes", strings.ToLower(string(rfq.Status))),
			}
		}

		now := s.now()
		var existing models.Quote
		err := tx.Where("rfq_id = ? AND supplier_company = ?", rfq.ID, supplier.Company).First(&existing).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"supplier_email": supplier.Email,
				"price":          input.Price,
				"currency":       currency,
				"lead_time_days": input.LeadTimeDays,
				"terms":          input.Terms,
				"notes":          input.Notes,
				"submitted_at":   now,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to replace quote: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			quote := models.Quote{
				RFQID:           rfq.ID,
				SupplierCompany: supplier.Company,
				SupplierEmail:   supplier.Email,
				Price:           input.Price,
				Currency:        currency,
				LeadTimeDays:    input.LeadTimeDays,
				Terms:           input.Terms,
				Notes:           input.Notes,
				SubmittedAt:     now,
			}
			if err := tx.Create(&quote).Error; err != nil {
				return fmt.Errorf("failed to create quote: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up existing quote: %w", err)
		}

		// Only Pending moves; Responded stays as is.
		if err := tx.Model(&models.RFQ{}).
			Where("id = ? AND status = ?", rfq.ID, string(models.RFQStatusPending)).
			Update("status", models.RFQStatusResponded).Error; err != nil {
			return fmt.Errorf("failed to update rfq status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rfq, err := s.GetRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, rfq.ProducerEmail)
	s.notify(ctx, Notification{
		Template: TemplateQuoteSubmitted,
		To:       rfq.ProducerEmail,
		RFQID:    rfq.ID,
		RFQTitle: rfq.Title,
		Producer: rfq.ProducerCompany,
		Supplier: supplier.Company,
		Status:   string(rfq.Status),
	})
	return rfq, nil
}

// DecideRFQ accepts or rejects the quote at quoteIndex (submission order)
// on behalf of the RFQ's producer. The decision is final.
func (s *RFQService) DecideRFQ(ctx context.Context, rfqID string, producer Party, quoteIndex int, decision models.Decision) (*models.RFQ, error) {
	if !decision.IsValid() {
		return nil, &ValidationError{Code: "INVALID_DECISION", Message: "Decision must be either 'Accept' or 'Reject'"}
	}

	rfq, err := s.GetRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.ProducerEmail != producer.Email {
		return nil, &ForbiddenError{Code: "FORBIDDEN", Message: "Only the producer who created this RFQ can decide on it"}
	}
	if rfq.Status.IsDecided() {
		return nil, &ConflictError{Code: "RFQ_ALREADY_DECIDED", Message: "A decision has already been made on this RFQ"}
	}
	if quoteIndex < 0 || quoteIndex >= len(rfq.Quotes) {
		return nil, &NotFoundError{Code: "QUOTE_NOT_FOUND", Message: fmt.Sprintf("Quote %d not found on this RFQ", quoteIndex)}
	}
	quote := rfq.Quotes[quoteIndex]

	result := s.db.WithContext(ctx).Model(&models.RFQ{}).
		Where("id = ? AND status IN ?", rfq.ID, models.OpenRFQStatuses).
		Updates(map[string]interface{}{
			"status":           decision.Status(),
			"decided_quote_id": quote.ID,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to record decision: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Another decision landed between the read and the write.
		return nil, &ConflictError{Code: "RFQ_ALREADY_DECIDED", Message: "A decision has already been made on this RFQ"}
	}

	decided, err := s.GetRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, decided.ProducerEmail)
	s.notify(ctx, Notification{
		Template: TemplateQuoteDecided,
		To:       quote.SupplierEmail,
		RFQID:    decided.ID,
		RFQTitle: decided.Title,
		Producer: decided.ProducerCompany,
		Supplier: quote.SupplierCompany,
		Status:   strings.ToLower(string(decided.Status)),
	})
	return decided, nil
}

// ListForProducer returns every RFQ created by producerEmail, newest first
func (s *RFQService) ListForProducer(ctx context.Context, producerEmail string) ([]models.RFQ, error) {
	key := producerRFQsKey(producerEmail)
	cached, generation, ok := s.cache.GetRFQs(ctx, key)
	if ok {
		return cached, nil
	}

	rfqs := []models.RFQ{}
	if err := s.withQuotes(s.db.WithContext(ctx)).
		Where("producer_email = ?", producerEmail).
		Order("created_at DESC").
		Find(&rfqs).Error; err != nil {
		return nil, fmt.Errorf("failed to list rfqs: %w", err)
	}

	s.cache.SetRFQs(ctx, key, generation, rfqs)
	return rfqs, nil
}

// ListForSupplier returns the open pool (Pending and Responded RFQs),
// newest first, as supplierCompany may see it.
func (s *RFQService) ListForSupplier(ctx context.Context, supplierCompany string) ([]models.RFQ, error) {
	open, generation, ok := s.cache.GetRFQs(ctx, openRFQsKey)
	if !ok {
		open = []models.RFQ{}
		if err := s.withQuotes(s.db.WithContext(ctx)).
			Where("status IN ?", models.OpenRFQStatuses).
			Order("created_at DESC").
			Find(&open).Error; err != nil {
			return nil, fmt.Errorf("failed to list open rfqs: %w", err)
		}
		s.cache.SetRFQs(ctx, openRFQsKey, generation, open)
	}

	views := make([]models.RFQ, 0, len(open))
	for _, rfq := range open {
		if !rfq.Status.IsOpen() {
			continue
		}
		views = append(views, rfq.ForSupplier(supplierCompany))
	}
	return views, nil
}

// SetAttachment records the storage key of the RFQ's spec sheet
func (s *RFQService) SetAttachment(ctx context.Context, rfqID string, producer Party, key string) (*models.RFQ, error) {
	rfq, err := s.GetRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.ProducerEmail != producer.Email {
		return nil, &ForbiddenError{Code: "FORBIDDEN", Message: "Only the producer who created this RFQ can attach files"}
	}

	if err := s.db.WithContext(ctx).Model(&models.RFQ{}).
		Where("id = ?", rfq.ID).
		Update("attachment_s3_key", key).Error; err != nil {
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}
	rfq.AttachmentS3Key = &key

	s.invalidate(ctx, rfq.ProducerEmail)
	return rfq, nil
}

// FindByAttachment returns the RFQ whose spec sheet is stored under key
func (s *RFQService) FindByAttachment(ctx context.Context, key string) (*models.RFQ, error) {
	var rfq models.RFQ
	err := s.withQuotes(s.db.WithContext(ctx)).Where("attachment_s3_key = ?", key).First(&rfq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Code: "FILE_NOT_FOUND", Message: "File not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up attachment: %w", err)
	}
	return &rfq, nil
}

func (s *RFQService) withQuotes(db *gorm.DB) *gorm.DB {
	return db.Preload("Quotes", func(db *gorm.DB) *gorm.DB {
		return db.Order("quotes.id ASC")
	})
}

func (s *RFQService) invalidate(ctx context.Context, producerEmail string) {
	s.cache.Invalidate(ctx, openRFQsKey, producerRFQsKey(producerEmail))
}

func (s *RFQService) notify(ctx context.Context, n Notification) {
	if n.To == "" {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.Printf("Failed to send %s notification for rfq %s: %v", n.Template, n.RFQID, err)
	}
}
