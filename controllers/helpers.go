package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wineprocure/procurement-api/config"
	"github.com/wineprocure/procurement-api/middleware"
	"github.com/wineprocure/procurement-api/models"
	"github.com/wineprocure/procurement-api/services"
	"github.com/wineprocure/procurement-api/utils"
)

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps service errors onto HTTP status codes
func respondServiceError(c *gin.Context, err error, fallback string) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		conflictErr   *services.ConflictError
		forbiddenErr  *services.ForbiddenError
		uploadErr     *utils.FileUploadError
	)

	switch {
	case errors.As(err, &validationErr):
		respondError(c, http.StatusBadRequest, validationErr.Code, validationErr.Message)
	case errors.As(err, &notFoundErr):
		respondError(c, http.StatusNotFound, notFoundErr.Code, notFoundErr.Message)
	case errors.As(err, &conflictErr):
		respondError(c, http.StatusConflict, conflictErr.Code, conflictErr.Message)
	case errors.As(err, &forbiddenErr):
		respondError(c, http.StatusForbidden, forbiddenErr.Code, forbiddenErr.Message)
	case errors.As(err, &uploadErr):
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
	default:
		log.Printf("%s: %v", fallback, err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

// currentUser loads the caller's profile, writing the error response and
// returning false when it cannot.
func currentUser(c *gin.Context) (*models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}

	var user models.User
	if err := config.GetDB().Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
		return nil, false
	}

	return &user, true
}

func partyOf(user *models.User) services.Party {
	return services.Party{Email: user.Email, Company: user.Company}
}
