package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/authline/authline/internal/infra/security"
	"github.com/authline/authline/internal/usecase"
)

type errorCase struct {
	Err     error
	Status  int
	Message string
}

// Business-rule rejections and their caller-facing shape. Anything not in
// this table is an infrastructure failure and maps to a generic 500.
var errorCases = []errorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusBadRequest, Message: "invalid email or password"},
	{Err: usecase.ErrEmailNotVerified, Status: http.StatusBadRequest, Message: "please verify your email before logging in"},
	{Err: usecase.ErrAccountLocked, Status: http.StatusForbidden, Message: "account temporarily locked due to multiple failed login attempts, try again later"},
	{Err: usecase.ErrLockoutTriggered, Status: http.StatusForbidden, Message: "too many failed attempts, account locked for 3 hours"},
	{Err: usecase.ErrEmailAlreadyRegistered, Status: http.StatusBadRequest, Message: "an account with this email already exists"},
	{Err: usecase.ErrOTPInvalid, Status: http.StatusBadRequest, Message: "invalid verification code"},
	{Err: usecase.ErrOTPExpired, Status: http.StatusBadRequest, Message: "verification code expired, request a new one"},
	{Err: usecase.ErrOTPUsed, Status: http.StatusBadRequest, Message: "verification code already used, request a new one"},
	{Err: usecase.ErrCurrentPasswordInvalid, Status: http.StatusBadRequest, Message: "current password is incorrect"},
	{Err: usecase.ErrSamePassword, Status: http.StatusBadRequest, Message: "new password must be different from the current password"},
	{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
	{Err: security.ErrWeakPassword, Status: http.StatusBadRequest, Message: "password is too weak, choose a longer or less predictable one"},
	{Err: usecase.ErrMailDelivery, Status: http.StatusBadGateway, Message: "could not send the verification email, try again"},
}

func respondError(c *gin.Context, log *zap.Logger, err error) {
	for _, ec := range errorCases {
		if errors.Is(err, ec.Err) {
			c.JSON(ec.Status, gin.H{"message": messageFor(err, ec)})
			return
		}
	}

	log.Error("unhandled request error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong"})
}

// messageFor lets a login rejection carry its remaining-attempts counter
// through to the caller; every other case uses the table message as-is.
func messageFor(err error, ec errorCase) string {
	var rejection *usecase.LoginRejection
	if errors.As(err, &rejection) && errors.Is(rejection.Err, usecase.ErrInvalidCredentials) && rejection.Remaining >= 0 {
		return rejection.Error()
	}
	return ec.Message
}

func respondValidationError(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request payload"})
}
