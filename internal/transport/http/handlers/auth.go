package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/authline/authline/internal/usecase"
)

// AuthHandler serves the signup and login endpoints.
type AuthHandler struct {
	signup *usecase.SignupService
	auth   *usecase.AuthService
	log    *zap.Logger
}

// NewAuthHandler builds the handler.
func NewAuthHandler(signup *usecase.SignupService, auth *usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{signup: signup, auth: auth, log: log}
}

// SendOTP handles POST /api/auth/send-otp.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c)
		return
	}

	if err := h.signup.SendOTP(c.Request.Context(), req.Email, req.FirstName); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

// VerifyOTP handles POST /api/auth/verify-otp.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c)
		return
	}

	result, err := h.signup.VerifyOTP(c.Request.Context(), usecase.Registration{
		Email:        req.Email,
		Code:         req.OTP,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MobileNumber: req.MobileNumber,
		Password:     req.Password,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{
		Message:   "account created",
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      toUserResponse(result.Account),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		Message:   "login successful",
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      toUserResponse(result.Account),
	})
}
