package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"caregate/internal/audit"
	"caregate/internal/guard/store/window"
	id "caregate/pkg/domain"
)

// EscalationConfig sizes the denial-rate heuristic. Values are configuration,
// not constants, but the defaults below are the contract the tests pin down.
type EscalationConfig struct {
	Window            time.Duration
	WarningThreshold  int
	CriticalThreshold int
}

// DefaultEscalationConfig returns the standard 60s/5/10 configuration.
func DefaultEscalationConfig() EscalationConfig {
	return EscalationConfig{
		Window:            60 * time.Second,
		WarningThreshold:  5,
		CriticalThreshold: 10,
	}
}

// escalator watches the denial rate per user and emits a security event when
// a threshold is crossed. An event fires exactly on the crossing, so five
// denials yield one Warning and the tenth yields one Critical, not a second
// Warning.
type escalator struct {
	windows window.Store
	log     *audit.Log
	logger  *slog.Logger
	cfg     EscalationConfig
}

func newEscalator(windows window.Store, log *audit.Log, logger *slog.Logger, cfg EscalationConfig) *escalator {
	return &escalator{windows: windows, log: log, logger: logger, cfg: cfg}
}

// onDenial records a denial and escalates when a threshold is crossed.
// Escalation is best-effort: a window-store failure must never turn a
// denial into an error visible to the caller.
func (e *escalator) onDenial(ctx context.Context, userID id.UserID, at time.Time) {
	count, err := e.windows.RecordDenial(ctx, userID, at, e.cfg.Window)
	if err != nil {
		if e.logger != nil {
			e.logger.ErrorContext(ctx, "denial window update failed", "user_id", userID, "error", err)
		}
		return
	}

	var severity audit.Severity
	switch count {
	case e.cfg.CriticalThreshold:
		severity = audit.SeverityCritical
	case e.cfg.WarningThreshold:
		severity = audit.SeverityWarning
	default:
		return
	}

	event := audit.SecurityEvent{
		Timestamp: at,
		UserID:    userID,
		Type:      audit.EventRepeatedDenial,
		Severity:  severity,
		Detail:    fmt.Sprintf("%d denials within %s", count, e.cfg.Window),
	}
	if err := e.log.AppendSecurity(ctx, event); err != nil && e.logger != nil {
		e.logger.ErrorContext(ctx, "failed to record denial escalation", "user_id", userID, "error", err)
	}
}
