package controllers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wineprocure/procurement-api/services"
	"github.com/wineprocure/procurement-api/utils"
)

// GetUploadedFile handles GET /api/v1/uploads/:filename - serves a locally
// stored attachment to callers who may see the RFQ it belongs to
func GetUploadedFile(c *gin.Context) {
	filename := c.Param("filename")

	if filename == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Filename is required")
		return
	}

	// Prevent directory traversal
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	if !utils.IsAllowedAttachment(filename) {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only PDF and PNG files are supported")
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	rfq, err := services.GetRFQService().FindByAttachment(c.Request.Context(), filename)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch file")
		return
	}
	if _, err := rfqViewFor(user, rfq); err != nil {
		respondServiceError(c, err, "Failed to fetch file")
		return
	}

	filePath, ok := services.GetAttachmentService().LocalPath(filename)
	if !ok {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
		return
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
		return
	}

	c.Header("Content-Type", utils.AttachmentContentType(filename))
	c.Header("Cache-Control", "private, max-age=3600")
	c.File(filePath)
}
