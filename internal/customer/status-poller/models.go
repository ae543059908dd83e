// internal/customer/status-poller/models.go
package statuspoller

import (
	"context"
	"time"

	"franchise-portal/internal/models"
)

const DefaultTimeout = 10 * time.Second

// Fetcher loads the application owned by a customer.
type Fetcher interface {
	GetCustomerApplication(ctx context.Context, customerID string) (*models.ApplicationRecord, error)
}

// State is what the dashboard renders from. Record is the last successful
// fetch and is kept when a later refresh fails; Stale marks that case.
type State struct {
	Record    *models.ApplicationRecord
	Loaded    bool
	Loading   bool
	Stale     bool
	LastError error
	FetchedAt time.Time
}

// Available reports whether there is anything to render besides a loading
// or empty placeholder.
func (s State) Available() bool {
	return s.Record != nil
}
