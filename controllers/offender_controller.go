package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wineprocure/procurement-api/config"
	"github.com/wineprocure/procurement-api/models"
)

// CreateOffenderRequest represents the request body for reporting an offender
type CreateOffenderRequest struct {
	Name      string `json:"name" binding:"required"`
	Company   string `json:"company" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	Telephone string `json:"telephone"`
	Reason    string `json:"reason" binding:"required"`
}

// CreateOffender handles POST /api/v1/offenders - adds an entry to the Red Flag Zone
func CreateOffender(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateOffenderRequest
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

	// The reporter is always the verified caller, never a request field
	offender := models.Offender{
		Name:       strings.TrimSpace(req.Name),
		Company:    strings.TrimSpace(req.Company),
		Email:      strings.TrimSpace(req.Email),
		Telephone:  strings.TrimSpace(req.Telephone),
		Reason:     strings.TrimSpace(req.Reason),
		ReportedBy: user.Email,
		DateAdded:  time.Now().UTC(),
	}

	if err := config.GetDB().Create(&offender).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to add offender")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    offender,
	})
}

// ListOffenders handles GET /api/v1/offenders - lists the Red Flag Zone, newest first
func ListOffenders(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	query := config.GetDB().Order("date_added DESC")
	if company := strings.TrimSpace(c.Query("company")); company != "" {
		query = query.Where("LOWER(company) LIKE ?", "%"+strings.ToLower(company)+"%")
	}

	offenders := []models.Offender{}
	if err := query.Find(&offenders).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch offenders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    offenders,
	})
}

// DeleteOffender handles DELETE /api/v1/offenders/:id - removes an entry (reporter or admin)
func DeleteOffender(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var offender models.Offender
	if err := db.First(&offender, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "OFFENDER_NOT_FOUND", "Offender not found")
		return
	}

	if user.Role != models.RoleAdmin && offender.ReportedBy != user.Email {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only the reporter or an admin can remove this entry")
		return
	}

	if err := db.Delete(&offender).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to remove offender")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"id": offender.ID},
	})
}
