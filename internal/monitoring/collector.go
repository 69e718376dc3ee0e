// Package monitoring summarizes load cycles and raises webhook alerts when a
// load fails or geocoding degrades.
package monitoring

import (
	"time"

	"github.com/sells-group/violation-portal/internal/model"
	"github.com/sells-group/violation-portal/pkg/geocode"
)

// LoadSnapshot summarizes one load cycle.
type LoadSnapshot struct {
	Collection string `json:"collection"`
	Failed     bool   `json:"failed"`
	Error      string `json:"error,omitempty"`

	Records      int `json:"records"`
	WithLocation int `json:"with_location"`
	Resolved     int `json:"resolved"`
	NotFound     int `json:"not_found"`
	LookupErrors int `json:"lookup_errors"`
	Malformed    int `json:"malformed"`

	// GeocodeErrorRate is LookupErrors over the lookups attempted
	// (records with a well-formed location).
	GeocodeErrorRate float64 `json:"geocode_error_rate"`

	Duration    time.Duration `json:"duration"`
	CollectedAt time.Time     `json:"collected_at"`
}

// Lookups returns the number of geocoding lookups the cycle attempted.
func (s *LoadSnapshot) Lookups() int {
	return s.WithLocation - s.Malformed
}

// Collect builds the snapshot for a finished load cycle.
func Collect(collection string, records []model.Violation, loadErr error, elapsed time.Duration) *LoadSnapshot {
	snap := &LoadSnapshot{
		Collection:  collection,
		Duration:    elapsed,
		CollectedAt: time.Now().UTC(),
	}
	if loadErr != nil {
		snap.Failed = true
		snap.Error = loadErr.Error()
		return snap
	}

	snap.Records = len(records)
	for _, v := range records {
		loc := v.Location
		if loc == nil {
			continue
		}
		snap.WithLocation++
		switch {
		case loc.Malformed:
			snap.Malformed++
		case loc.Resolved:
			snap.Resolved++
		case loc.Address == geocode.PlaceholderNotFound:
			snap.NotFound++
		default:
			snap.LookupErrors++
		}
	}

	if n := snap.Lookups(); n > 0 {
		snap.GeocodeErrorRate = float64(snap.LookupErrors) / float64(n)
	}
	return snap
}
