// internal/customer/update-dispatcher/dispatcher.go
package updatedispatcher

import (
	"context"

	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/observability"
	"franchise-portal/internal/models"
)

// Dispatcher maps pushed events to effects. It holds no state; the only side
// effects are logging and metrics.
type Dispatcher struct {
	config *Config
	logger logger.Logger
	obs    *observability.Observability
}

func NewDispatcher(cfg *Config, log logger.Logger, obs *observability.Observability) *Dispatcher {
	if cfg.ResyncDelay <= 0 {
		cfg.ResyncDelay = DefaultResyncDelay
	}
	return &Dispatcher{
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "update-dispatcher"}),
		obs:    obs,
	}
}

func (d *Dispatcher) Dispatch(ev models.RealtimeEvent) Effect {
	var eff Effect

	switch ev.Type {
	case models.EventStatusUpdate:
		severity := models.SeverityError
		if ev.Status == string(models.StatusApproved) {
			severity = models.SeveritySuccess
		}
		msg := ev.Message
		if msg == "" {
			msg = models.ParseStatus(ev.Status).Description()
		}
		eff = Effect{
			Notify:      &Notice{Message: msg, Severity: severity},
			Resync:      true,
			ResyncDelay: d.config.ResyncDelay,
		}

	case models.EventAppointment:
		msg := ev.Message
		if msg == "" {
			msg = fallbackAppointmentMessage
		}
		eff = Effect{Notify: &Notice{Message: msg, Severity: models.SeverityInfo}}

	default:
		d.logger.Info("unknown update type", map[string]interface{}{"type": string(ev.Type)})
	}

	d.obs.RecordDispatch(context.Background(), string(ev.Type), eff.Name())
	return eff
}
