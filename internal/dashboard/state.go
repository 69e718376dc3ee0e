// Package dashboard serves the violation table as HTML, JSON, GeoJSON and
// xlsx from a shared load state.
package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/violation-portal/internal/model"
)

// Phase is the load state shown to viewers.
type Phase int

const (
	// PhaseLoading is shown until the first load completes.
	PhaseLoading Phase = iota
	// PhaseFailed means the bulk fetch failed; State.Err holds the cause.
	PhaseFailed
	// PhaseReady means State.Records is a complete, sorted list.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseFailed:
		return "failed"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// State is an immutable view of the holder at one instant.
type State struct {
	Phase    Phase
	Records  []model.Violation
	Err      error
	LoadedAt time.Time
}

// Source produces a complete, ordered record list.
type Source interface {
	Load(ctx context.Context) ([]model.Violation, error)
}

// Holder owns the current State. One writer publishes complete record lists
// and any number of readers take snapshots. Published slices are never
// mutated afterwards.
type Holder struct {
	mu    sync.RWMutex
	state State
	now   func() time.Time
}

// NewHolder returns a holder in the loading phase.
func NewHolder() *Holder {
	return &Holder{now: time.Now}
}

// Begin marks a load cycle as in progress.
func (h *Holder) Begin() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = State{Phase: PhaseLoading}
}

// Succeed publishes records as the ready table.
func (h *Holder) Succeed(records []model.Violation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = State{Phase: PhaseReady, Records: records, LoadedAt: h.now()}
}

// Fail records a failed load cycle.
func (h *Holder) Fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = State{Phase: PhaseFailed, Err: err, LoadedAt: h.now()}
}

// Snapshot returns the current state.
func (h *Holder) Snapshot() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Load runs one load cycle from src and publishes its outcome.
func (h *Holder) Load(ctx context.Context, src Source) {
	h.Begin()
	records, err := src.Load(ctx)
	if err != nil {
		zap.L().Error("dashboard: load failed", zap.Error(err))
		h.Fail(err)
		return
	}
	h.Succeed(records)
}
