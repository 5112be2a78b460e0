package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/authline/authline/internal/transport/http/middleware"
	"github.com/authline/authline/internal/usecase"
)

// UserHandler serves the authenticated profile endpoints.
type UserHandler struct {
	users *usecase.UserService
	log   *zap.Logger
}

// NewUserHandler builds the handler.
func NewUserHandler(users *usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// Profile handles GET /api/user/profile.
func (h *UserHandler) Profile(c *gin.Context) {
	account, err := h.users.Profile(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(account)})
}

// UpdatePassword handles PUT /api/user/update-password.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c)
		return
	}

	if err := h.users.UpdatePassword(c.Request.Context(), middleware.AccountID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// UpdateProfile handles PUT /api/user/update-profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c)
		return
	}

	account, err := h.users.UpdateProfile(c.Request.Context(), middleware.AccountID(c), usecase.ProfilePatch{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "profile updated",
		"user":    toUserResponse(account),
	})
}
