package courses

import (
	"context"

	"github.com/robfig/cron/v3"

	appLog "studycal/internal/log"
)

const fallbackRefreshSpec = "@every 6h"

// Refresher reloads a Catalog on a cron schedule.
type Refresher struct {
	catalog *Catalog
	spec    string

	cron   *cron.Cron
	runCtx context.Context
	cancel context.CancelFunc
}

func NewRefresher(catalog *Catalog, spec string) *Refresher {
	return &Refresher{catalog: catalog, spec: spec}
}

// Start schedules refreshes. An invalid spec falls back to every six hours.
func (r *Refresher) Start(ctx context.Context) {
	r.runCtx, r.cancel = context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(r.spec, r.runOnce); err != nil {
		appLog.Warn("catalog refresher: invalid cron spec; falling back", "spec", r.spec, "fallback", fallbackRefreshSpec, "error", err.Error())
		c = cron.New()
		_, _ = c.AddFunc(fallbackRefreshSpec, r.runOnce)
	}
	c.Start()
	r.cron = c
	appLog.Info("catalog refresher started", "spec", r.spec)
}

// Stop cancels in-flight refreshes and waits for them to return.
func (r *Refresher) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.cron != nil {
		done := r.cron.Stop()
		<-done.Done()
	}
}

func (r *Refresher) runOnce() {
	// Refresh logs its own failures and keeps the previous snapshot.
	_ = r.catalog.Refresh(r.runCtx)
}
