// internal/customer/payment-session/models.go
package paymentsession

import (
	"context"
	"fmt"

	"franchise-portal/internal/models"
)

const DefaultWindow = 180

const (
	msgPaid              = "Payment notification sent successfully!"
	msgNoCustomerSession = "Customer session not found"
	msgNetworkError      = "An error occurred. Please try again."
	QRPlaceholder        = "QR code will appear here"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading" // bank details in flight, no countdown yet
	StateActive  State = "active"
)

// Outcome records how the most recent session ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeCancelled Outcome = "cancelled"
	OutcomePaid      Outcome = "paid"
	OutcomeExpired   Outcome = "expired"
)

// Backend is the slice of the portal API a payment attempt needs.
type Backend interface {
	GetBankDetails(ctx context.Context) (*models.BankDetails, error)
	NotifyPayment(ctx context.Context, req models.PaymentNotificationRequest) error
}

// Notifier surfaces user-visible messages.
type Notifier interface {
	Show(message string, severity models.Severity) models.Notification
}

// Snapshot is the payment window as the dashboard renders it.
type Snapshot struct {
	ID         string  `json:"id,omitempty"`
	State      State   `json:"state"`
	Remaining  int     `json:"remaining"`
	Timer      string  `json:"timer"`
	QRCodePath string  `json:"qrCodePath,omitempty"`
	Amount     string  `json:"amount"`
	Confirming bool    `json:"confirming"`
	Outcome    Outcome `json:"outcome,omitempty"`
}

// Open reports whether the payment window is showing.
func (s Snapshot) Open() bool {
	return s.State == StateActive
}

// QR returns the QR path or the placeholder text.
func (s Snapshot) QR() string {
	if s.QRCodePath == "" {
		return QRPlaceholder
	}
	return s.QRCodePath
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
