package monitoring

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/violation-portal/internal/model"
)

// Source runs one load cycle.
type Source interface {
	Load(ctx context.Context) ([]model.Violation, error)
}

// Checker wraps a Source, summarizing every load cycle it runs and alerting
// on the result. It returns the wrapped source's records and error unchanged.
type Checker struct {
	src        Source
	alerter    *Alerter
	collection string

	mu   sync.Mutex
	last *LoadSnapshot
}

// NewChecker creates a checker around src.
func NewChecker(src Source, alerter *Alerter, collection string) *Checker {
	return &Checker{src: src, alerter: alerter, collection: collection}
}

// Load runs the wrapped load cycle and evaluates its outcome.
func (c *Checker) Load(ctx context.Context) ([]model.Violation, error) {
	start := time.Now()
	records, err := c.src.Load(ctx)
	snap := Collect(c.collection, records, err, time.Since(start))

	c.mu.Lock()
	c.last = snap
	c.mu.Unlock()

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("monitoring: load cycle summary",
		zap.String("collection", snap.Collection),
		zap.Bool("failed", snap.Failed),
		zap.Int("records", snap.Records),
		zap.Int("resolved", snap.Resolved),
		zap.Int("not_found", snap.NotFound),
		zap.Int("lookup_errors", snap.LookupErrors),
		zap.Int("malformed", snap.Malformed),
		zap.Duration("duration", snap.Duration),
	)

	if alerts := c.alerter.Evaluate(snap); len(alerts) > 0 {
		// Deliver even when ctx is already canceled.
		sent := c.alerter.SendAlerts(context.WithoutCancel(ctx), alerts)
		log.Info("monitoring: alert check complete",
			zap.Int("alerts_triggered", len(alerts)),
			zap.Int("alerts_sent", sent),
		)
	}

	return records, err
}

// Last returns the most recent snapshot, or nil before the first cycle.
func (c *Checker) Last() *LoadSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
