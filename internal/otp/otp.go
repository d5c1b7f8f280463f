// Package otp runs the guest phone-verification flow: send a code, count
// down until resend is allowed, verify the code the shopper typed.
package otp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/evergreenmart/storefront/internal/backend"
)

// ResendWindow is how many seconds a shopper must wait before requesting
// another code.
const ResendWindow = 60

// Sender delivers and checks codes. The backend client implements it.
type Sender interface {
	SendOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, otp string) error
}

// Snapshot is the controller state as exposed to the client UI.
type Snapshot struct {
	OtpSent      bool   `json:"otp_sent"`
	OtpVerified  bool   `json:"otp_verified"`
	SendingOtp   bool   `json:"sending_otp"`
	VerifyingOtp bool   `json:"verifying_otp"`
	OtpError     string `json:"otp_error,omitempty"`
	ResendTimer  int    `json:"resend_timer"`
}

// Controller owns the verification state for one checkout session.
// Every transport or backend failure is converted into a user-facing
// error string; nothing escalates, the shopper can always retry.
type Controller struct {
	mu     sync.Mutex
	sender Sender

	sent      bool
	verified  bool
	sending   bool
	verifying bool
	lastErr   string

	resendLeft int
	stop       chan struct{}
}

func NewController(sender Sender) *Controller {
	return &Controller{sender: sender}
}

// Send requests a code for the phone number. Calls are ignored while a
// send is already in flight or while the resend countdown is running.
func (c *Controller) Send(ctx context.Context, phone string) {
	c.mu.Lock()
	if phone == "" {
		c.lastErr = "Please enter your phone number first."
		c.mu.Unlock()
		return
	}
	if c.sending || (c.sent && c.resendLeft > 0) {
		c.mu.Unlock()
		return
	}
	c.sending = true
	c.lastErr = ""
	c.mu.Unlock()

	err := c.sender.SendOTP(ctx, phone)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if err != nil {
		// A previously delivered code stays usable, so sent is untouched.
		slog.Warn("OTP send failed", "error", err)
		c.lastErr = userMessage(err, "Failed to send OTP. Please try again.")
		return
	}
	c.sent = true
	c.startCountdownLocked()
}

// Verify checks the code. Anything that is not exactly 6 digits is
// rejected locally without a network call.
func (c *Controller) Verify(ctx context.Context, phone, code string) {
	c.mu.Lock()
	if c.verifying || c.verified {
		c.mu.Unlock()
		return
	}
	if !isSixDigits(code) {
		c.lastErr = "Please enter the 6-digit code."
		c.mu.Unlock()
		return
	}
	c.verifying = true
	c.lastErr = ""
	c.mu.Unlock()

	err := c.sender.VerifyOTP(ctx, phone, code)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifying = false
	if err != nil {
		slog.Warn("OTP verify failed", "error", err)
		c.lastErr = userMessage(err, "Invalid OTP. Please try again.")
		return
	}
	c.verified = true
	c.stopCountdownLocked()
}

// Verified reports whether the phone number has been proven.
func (c *Controller) Verified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verified
}

// CanResend reports whether another send would be accepted.
func (c *Controller) CanResend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.sending && (!c.sent || c.resendLeft == 0)
}

func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		OtpSent:      c.sent,
		OtpVerified:  c.verified,
		SendingOtp:   c.sending,
		VerifyingOtp: c.verifying,
		OtpError:     c.lastErr,
		ResendTimer:  c.resendLeft,
	}
}

// Close releases the countdown ticker. Safe to call more than once; the
// checkout session registry calls it when a session is evicted.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopCountdownLocked()
}

// startCountdownLocked restarts the 1 Hz resend countdown. Caller holds mu.
func (c *Controller) startCountdownLocked() {
	c.stopCountdownLocked()
	c.resendLeft = ResendWindow
	stop := make(chan struct{})
	c.stop = stop
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if c.tick() == 0 {
					return
				}
			}
		}
	}()
}

func (c *Controller) stopCountdownLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	// A stopped countdown reads as expired, never frozen mid-count.
	c.resendLeft = 0
}

// tick decrements the countdown by one second and returns the remainder.
func (c *Controller) tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resendLeft > 0 {
		c.resendLeft--
	}
	return c.resendLeft
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// userMessage prefers the backend-reported message when there is one.
func userMessage(err error, fallback string) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
