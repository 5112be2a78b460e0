package port

import (
	"context"
	"time"
)

// Mailer delivers account notifications out-of-band.
type Mailer interface {
	// SendOTP delivers a signup verification code to the recipient.
	SendOTP(ctx context.Context, email, firstName, code string, expiresAt time.Time) error
	// SendPasswordReset delivers a password reset link. No route issues these
	// yet; the method exists because the mail template does.
	SendPasswordReset(ctx context.Context, email, firstName, resetURL string) error
}
