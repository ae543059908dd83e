// internal/customer/dashboard/models.go
package dashboard

import (
	"context"
	"time"

	paymentsession "franchise-portal/internal/customer/payment-session"
	"franchise-portal/internal/models"
)

// Backend is the portal API surface the dashboard's components call.
type Backend interface {
	GetCustomerApplication(ctx context.Context, customerID string) (*models.ApplicationRecord, error)
	GetBankDetails(ctx context.Context) (*models.BankDetails, error)
	NotifyPayment(ctx context.Context, req models.PaymentNotificationRequest) error
}

// Guard resolves and destroys the persisted customer session. Reset drops any
// answer cached by an earlier activation.
type Guard interface {
	Reset()
	Resolve(ctx context.Context) (*models.CustomerSession, error)
	Destroy(ctx context.Context) error
	LoginPath() string
}

// StatusView is the tracker section rendered from the application record.
type StatusView struct {
	Status      models.ApplicationStatus `json:"status"`
	Progress    int                      `json:"progress"`
	Description string                   `json:"description"`
	Steps       []models.TrackingStep    `json:"steps"`
}

// View is everything the customer screen shows at one instant.
type View struct {
	Active       bool                      `json:"active"`
	CustomerID   string                    `json:"customerId,omitempty"`
	CustomerName string                    `json:"customerName,omitempty"`
	Initial      string                    `json:"initial,omitempty"`
	Application  *models.ApplicationRecord `json:"application,omitempty"`
	Status       *StatusView               `json:"statusView,omitempty"`
	Loading      bool                      `json:"loading"`
	Stale        bool                      `json:"stale"`
	FetchedAt    time.Time                 `json:"fetchedAt,omitempty"`
	Notification *models.Notification      `json:"notification,omitempty"`
	Payment      paymentsession.Snapshot   `json:"payment"`
	StreamOpen   bool                      `json:"streamOpen"`
}

func newStatusView(rec *models.ApplicationRecord) *StatusView {
	if rec == nil {
		return nil
	}
	status := rec.ApplicationStatus()
	return &StatusView{
		Status:      status,
		Progress:    status.Progress(),
		Description: status.Description(),
		Steps:       status.TrackingSteps(),
	}
}
