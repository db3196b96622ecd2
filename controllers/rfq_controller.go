package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wineprocure/procurement-api/models"
	"github.com/wineprocure/procurement-api/services"
)

// CreateRFQRequest represents the request body for creating an RFQ
type CreateRFQRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Quantity    *int   `json:"quantity"`
}

// SubmitQuoteRequest represents the request body for quoting on an RFQ
type SubmitQuoteRequest struct {
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	LeadTimeDays int     `json:"lead_time_days"`
	Terms        string  `json:"terms"`
	Notes        string  `json:"notes"`
}

// DecideRFQRequest represents the producer's accept/reject of one quote
type DecideRFQRequest struct {
	QuoteIndex *int   `json:"quote_index" binding:"required"`
	Decision   string `json:"decision" binding:"required"`
}

// CreateRFQ handles POST /api/v1/rfqs - opens a new RFQ (producers only)
func CreateRFQ(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != models.RoleProducer {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only producers can create RFQs")
		return
	}

	var req CreateRFQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	rfq, err := services.GetRFQService().CreateRFQ(c.Request.Context(), partyOf(user), services.CreateRFQInput{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		Quantity:    req.Quantity,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create RFQ")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    rfq,
	})
}

// ListRFQs handles GET /api/v1/rfqs - a producer's own RFQs, or the open
// pool for suppliers
func ListRFQs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	rfqService := services.GetRFQService()
	var (
		rfqs []models.RFQ
		err  error
	)
	switch user.Role {
	case models.RoleProducer:
		rfqs, err = rfqService.ListForProducer(c.Request.Context(), user.Email)
	case models.RoleSupplier:
		rfqs, err = rfqService.ListForSupplier(c.Request.Context(), user.Company)
	default:
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only producers and suppliers can list RFQs")
		return
	}
	if err != nil {
		respondServiceError(c, err, "Failed to fetch RFQs")
		return
	}

	for i := range rfqs {
		attachURL(c, &rfqs[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rfqs,
	})
}

// GetRFQ handles GET /api/v1/rfqs/:id - gets one RFQ as the caller may see it
func GetRFQ(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	rfq, err := services.GetRFQService().GetRFQ(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch RFQ")
		return
	}

	view, err := rfqViewFor(user, rfq)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch RFQ")
		return
	}

	attachURL(c, &view)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    view,
	})
}

// SubmitQuote handles POST /api/v1/rfqs/:id/quotes - quotes on an open RFQ (suppliers only)
func SubmitQuote(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != models.RoleSupplier {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only suppliers can submit quotes")
		return
	}

	var req SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	rfq, err := services.GetRFQService().SubmitQuote(c.Request.Context(), c.Param("id"), partyOf(user), services.QuoteInput{
		Price:        req.Price,
		Currency:     req.Currency,
		LeadTimeDays: req.LeadTimeDays,
		Terms:        req.Terms,
		Notes:        req.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to submit quote")
		return
	}

	view := rfq.ForSupplier(user.Company)
	attachURL(c, &view)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    view,
	})
}

// DecideRFQ handles POST /api/v1/rfqs/:id/decision - accepts or rejects a quote (owning producer only)
func DecideRFQ(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != models.RoleProducer {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only producers can decide on quotes")
		return
	}

	var req DecideRFQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	rfq, err := services.GetRFQService().DecideRFQ(c.Request.Context(), c.Param("id"), partyOf(user), *req.QuoteIndex, models.Decision(req.Decision))
	if err != nil {
		respondServiceError(c, err, "Failed to record decision")
		return
	}

	attachURL(c, rfq)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rfq,
	})
}

// UploadRFQAttachment handles POST /api/v1/rfqs/:id/attachment - attaches a
// PDF or PNG spec sheet (owning producer only)
func UploadRFQAttachment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != models.RoleProducer {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only producers can attach files to RFQs")
		return
	}

	rfqService := services.GetRFQService()
	rfq, err := rfqService.GetRFQ(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch RFQ")
		return
	}
	if rfq.ProducerEmail != user.Email {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only the producer who created this RFQ can attach files")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "A file must be uploaded in the 'file' field")
		return
	}

	attachments := services.GetAttachmentService()
	key, err := attachments.Upload(c.Request.Context(), fileHeader)
	if err != nil {
		respondServiceError(c, err, "Failed to upload attachment")
		return
	}

	previous := rfq.AttachmentS3Key
	updated, err := rfqService.SetAttachment(c.Request.Context(), rfq.ID, partyOf(user), key)
	if err != nil {
		respondServiceError(c, err, "Failed to save attachment")
		return
	}
	if previous != nil && *previous != key {
		if err := attachments.Delete(c.Request.Context(), *previous); err != nil {
			log.Printf("Failed to delete replaced attachment %s: %v", *previous, err)
		}
	}

	attachURL(c, updated)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// rfqViewFor returns rfq as user may see it. Producers see their own RFQs
// in full; suppliers see open RFQs and any RFQ they quoted on, with only
// their own quote.
func rfqViewFor(user *models.User, rfq *models.RFQ) (models.RFQ, error) {
	switch user.Role {
	case models.RoleAdmin:
		return *rfq, nil
	case models.RoleProducer:
		if rfq.ProducerEmail == user.Email {
			return *rfq, nil
		}
	case models.RoleSupplier:
		if _, quoted := rfq.QuoteFrom(user.Company); quoted || rfq.Status.IsOpen() {
			return rfq.ForSupplier(user.Company), nil
		}
		return models.RFQ{}, &services.ForbiddenError{Code: "FORBIDDEN", Message: "This RFQ is closed"}
	}
	return models.RFQ{}, &services.ForbiddenError{Code: "FORBIDDEN", Message: "You do not have permission to view this RFQ"}
}

// attachURL fills in the computed attachment link
func attachURL(c *gin.Context, rfq *models.RFQ) {
	attachments := services.GetAttachmentService()
	if attachments == nil || rfq.AttachmentS3Key == nil {
		return
	}

	url, err := attachments.URL(c.Request.Context(), *rfq.AttachmentS3Key)
	if err != nil {
		log.Printf("Failed to build attachment URL for rfq %s: %v", rfq.ID, err)
		return
	}
	rfq.AttachmentURL = &url
}
