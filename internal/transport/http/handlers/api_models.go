// Package handlers maps HTTP requests onto the signup, auth, and user services.
package handlers

import (
	"time"

	"github.com/authline/authline/internal/core/domain"
)

type sendOTPRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"required,min=2,max=50"`
}

type verifyOTPRequest struct {
	Email        string `json:"email" binding:"required,email"`
	OTP          string `json:"otp" binding:"required,len=6,numeric"`
	FirstName    string `json:"firstName" binding:"required,min=2,max=50"`
	LastName     string `json:"lastName" binding:"required,min=2,max=50"`
	MobileNumber string `json:"mobileNumber" binding:"required,min=10,max=15"`
	Password     string `json:"password" binding:"required,min=6,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=128"`
}

type updateProfileRequest struct {
	FirstName    *string `json:"firstName" binding:"omitempty,min=2,max=50"`
	LastName     *string `json:"lastName" binding:"omitempty,min=2,max=50"`
	MobileNumber *string `json:"mobileNumber" binding:"omitempty,min=10,max=15"`
}

type userResponse struct {
	UserID          string `json:"userId"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	MobileNumber    string `json:"mobileNumber"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

type sessionResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func toUserResponse(account *domain.Account) userResponse {
	return userResponse{
		UserID:          account.ID,
		FirstName:       account.FirstName,
		LastName:        account.LastName,
		Email:           account.Email,
		MobileNumber:    account.MobileNumber,
		IsEmailVerified: account.EmailVerified,
	}
}
