package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wineprocure/procurement-api/config"
	"github.com/wineprocure/procurement-api/middleware"
	"github.com/wineprocure/procurement-api/models"
	"github.com/wineprocure/procurement-api/services"
)

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Name    string `json:"name" binding:"omitempty"`
	Email   string `json:"email" binding:"omitempty,email"`
	Company string `json:"company" binding:"omitempty"`
}

// UpdateUserRoleRequest represents an admin's role change for another user
type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreateUser handles POST /api/v1/users - creates a new user from Auth0 userinfo
// This endpoint requires authentication and fetches user data from Auth0's /userinfo endpoint
func CreateUser(c *gin.Context) {
	// Get the Auth0 user ID from the validated JWT
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	// Get the access token to call Auth0's /userinfo endpoint
	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	auth0Service := services.NewAuth0Service(config.GetConfig())
	userInfo, err := auth0Service.GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	if userInfo.Email == "" {
		respondError(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}

	if userInfo.DisplayName() == "" {
		respondError(c, http.StatusBadRequest, "MISSING_NAME", "Name not provided by Auth0")
		return
	}

	// Role and company come from the signed token
	role := models.RoleProducer
	company := ""
	if claims, err := middleware.GetCustomClaims(c); err == nil {
		if claims.Role != "" {
			role = claims.Role
		}
		company = strings.TrimSpace(claims.Company)
	}

	if !models.IsValidRole(role) {
		respondError(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be producer, supplier or admin")
		return
	}

	if role == models.RoleSupplier && company == "" {
		respondError(c, http.StatusBadRequest, "MISSING_COMPANY", "Suppliers must belong to a company")
		return
	}

	user := models.User{
		Auth0ID: auth0ID,
		Name:    userInfo.DisplayName(),
		Email:   userInfo.Email,
		Company: company,
		Role:    role,
	}

	db := config.GetDB()
	if err := db.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID or email already exists")
			return
		}

		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    user,
	})
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// UpdateMyProfile handles PUT /api/v1/users/me - updates current user's profile
func UpdateMyProfile(c *gin.Context) {
	var req UpdateUserRequest
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

	user, ok := currentUser(c)
	if !ok {
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if company := strings.TrimSpace(req.Company); company != "" {
		updates["company"] = company
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    user,
		})
		return
	}

	db := config.GetDB()
	if err := db.Model(user).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
			return
		}

		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user profile")
		return
	}

	if err := db.First(user, user.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch updated profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// ListUsers handles GET /api/v1/admin/users - lists every account (admins only)
func ListUsers(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	query := config.GetDB().Order("created_at DESC")
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	users := []models.User{}
	if err := query.Find(&users).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
	})
}

// UpdateUserRole handles PUT /api/v1/admin/users/:id/role - changes a user's role (admins only)
func UpdateUserRole(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	var req UpdateUserRoleRequest
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

	if !models.IsValidRole(req.Role) {
		respondError(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be producer, supplier or admin")
		return
	}

	db := config.GetDB()
	var target models.User
	if err := db.First(&target, c.Param("id")).Error; err != nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	if err := db.Model(&target).Update("role", req.Role).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update role")
		return
	}
	target.Role = req.Role

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    target,
	})
}

func requireAdmin(c *gin.Context) (*models.User, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	if user.Role != models.RoleAdmin {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
		return nil, false
	}
	return user, true
}

// isUniqueViolation matches duplicate-key errors from both PostgreSQL and SQLite
func isUniqueViolation(err error) bool {
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique")
}
