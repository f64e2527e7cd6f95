package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/screenmode/internal/logging"
	"github.com/1broseidon/screenmode/internal/settings"
)

// ScreenRefresher re-enumerates screens.
type ScreenRefresher interface {
	Refresh(ctx context.Context) (settings.RefreshResult, error)
}

// RefresherConfig holds configuration for the refresher.
type RefresherConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
	// OnChange runs after a pass that added or removed screens.
	OnChange func(settings.RefreshResult)
}

// Refresher periodically re-enumerates screens so hot-plugged displays and
// mode changes are picked up.
type Refresher struct {
	interval time.Duration
	screens  ScreenRefresher
	onChange func(settings.RefreshResult)
	logger   *slog.Logger
	trigger  chan struct{}
}

// NewRefresher creates a new refresher with the given configuration.
func NewRefresher(cfg RefresherConfig, screens ScreenRefresher) *Refresher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Refresher{
		interval: interval,
		screens:  screens,
		onChange: cfg.OnChange,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Run starts the refresh loop. Blocks until context is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("refresher started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		case <-r.trigger:
			r.refresh(ctx)
		}
	}
}

// Trigger requests an out-of-band refresh pass. Requests made while one is
// already pending are coalesced.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// RefreshNow performs a single refresh pass synchronously.
func (r *Refresher) RefreshNow(ctx context.Context) {
	r.refresh(ctx)
}

func (r *Refresher) refresh(ctx context.Context) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("refresher panic recovered", "error", err)
		}
	}()

	result, err := r.screens.Refresh(ctx)
	if err != nil {
		r.logger.Error("refresher: failed to enumerate screens", "error", err)
		return
	}
	if result.Changed() && r.onChange != nil {
		r.onChange(result)
	}
}
