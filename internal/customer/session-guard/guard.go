// internal/customer/session-guard/guard.go
package sessionguard

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"franchise-portal/internal/common/errors"
	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/models"
)

// Guard resolves the customer identity for one dashboard activation. The
// persisted blob is read at most once; later calls return the same answer
// until Reset. A Guard is not safe for concurrent use.
type Guard struct {
	config *Config
	store  Store
	logger logger.Logger

	resolved bool
	session  *models.CustomerSession
	err      error
}

func NewGuard(cfg *Config, store Store, log logger.Logger) *Guard {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	return &Guard{
		config: cfg,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "session-guard"}),
	}
}

// Resolve returns the current session. Missing or unusable session state
// yields an error for which errors.IsUnauthenticated is true: the caller must
// redirect to LoginPath and do nothing else. Absence is never retried.
func (g *Guard) Resolve(ctx context.Context) (*models.CustomerSession, error) {
	if g.resolved {
		return g.session, g.err
	}
	g.session, g.err = g.load(ctx)
	// Store outages are not absence; allow the next call to try again.
	g.resolved = g.err == nil || errors.IsUnauthenticated(g.err)

	if g.err != nil {
		g.logger.Warn("customer session unavailable", map[string]interface{}{
			"key":   g.config.Key,
			"error": g.err,
		})
	}
	return g.session, g.err
}

func (g *Guard) load(ctx context.Context) (*models.CustomerSession, error) {
	blob, err := g.store.Load(ctx, g.config.Key)
	if stderrors.Is(err, ErrNotFound) {
		return nil, errors.NewAuthSessionMissingError(g.config.Key)
	}
	if err != nil {
		return nil, errors.NewSessionStoreFailedError("load", err)
	}

	var s models.CustomerSession
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, errors.NewSessionDecodeFailedError(err)
	}
	if strings.TrimSpace(s.CustomerID) == "" {
		return nil, errors.NewSessionDecodeFailedError(fmt.Errorf("customerId is empty"))
	}
	return &s, nil
}

// Establish persists a new session (the login step) and makes it current.
func (g *Guard) Establish(ctx context.Context, s *models.CustomerSession) error {
	if s == nil || strings.TrimSpace(s.CustomerID) == "" {
		return errors.NewSessionDecodeFailedError(fmt.Errorf("customerId is required"))
	}
	blob, err := json.Marshal(s)
	if err != nil {
		return errors.NewSessionDecodeFailedError(err)
	}
	if err := g.store.Save(ctx, g.config.Key, blob); err != nil {
		return errors.NewSessionStoreFailedError("save", err)
	}

	g.resolved, g.session, g.err = true, s, nil
	g.logger.Info("customer session established", map[string]interface{}{"customerId": s.CustomerID})
	return nil
}

// Destroy removes the persisted session (logout or expiry redirect).
func (g *Guard) Destroy(ctx context.Context) error {
	if err := g.store.Delete(ctx, g.config.Key); err != nil {
		return errors.NewSessionStoreFailedError("delete", err)
	}
	customerID := ""
	if g.session != nil {
		customerID = g.session.CustomerID
	}
	g.resolved, g.session = true, nil
	g.err = errors.NewAuthSessionMissingError(g.config.Key)
	g.logger.Info("customer session destroyed", map[string]interface{}{"customerId": customerID})
	return nil
}

// Reset starts a new activation; the next Resolve reads the store again.
func (g *Guard) Reset() {
	g.resolved, g.session, g.err = false, nil, nil
}

// LoginPath is where an unauthenticated caller must redirect.
func (g *Guard) LoginPath() string {
	return g.config.LoginPath
}
