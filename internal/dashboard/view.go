package dashboard

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"

	"github.com/sells-group/violation-portal/internal/model"
)

// LocationUnavailable is shown for records stored without a location.
const LocationUnavailable = "Location unavailable"

const timeLayout = "02 Jan 2006, 03:04 PM"

var upper = cases.Upper(language.Und)

// Row is one table row with every display value computed.
type Row struct {
	DocumentID    string   `json:"document_id"`
	CaseNumber    int64    `json:"case_number"`
	VehicleNumber string   `json:"vehicle_number"`
	ImageURL      string   `json:"image_url"`
	Address       string   `json:"address"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
	Resolved      bool     `json:"resolved"`
	MapURL        string   `json:"map_url,omitempty"`
	Timestamp     string   `json:"timestamp"`
	DateTime      string   `json:"date_time"`
	DaysRemaining int      `json:"days_remaining"`
}

// VehicleDisplay normalizes a plate for display: full-width characters are
// folded to ASCII, the text is upper-cased and inner whitespace collapsed.
func VehicleDisplay(s string) string {
	s = width.Fold.String(s)
	s = upper.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// FormatTime renders ts in loc, or "-" for the zero time.
func FormatTime(ts time.Time, loc *time.Location) string {
	if ts.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.Local
	}
	return ts.In(loc).Format(timeLayout)
}

func isoTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

// NewRow builds the display row for v as of now.
func NewRow(v model.Violation, now time.Time, loc *time.Location) Row {
	row := Row{
		DocumentID:    v.DocumentID,
		CaseNumber:    v.CaseNumber,
		VehicleNumber: VehicleDisplay(v.VehicleNumber),
		ImageURL:      v.ImageURL,
		Address:       LocationUnavailable,
		Timestamp:     isoTime(v.Timestamp),
		DateTime:      FormatTime(v.Timestamp, loc),
		DaysRemaining: DaysRemaining(v.Timestamp, now),
	}

	if rl := v.Location; rl != nil {
		row.Address = rl.Address
		row.Resolved = rl.Resolved
		if !rl.Malformed {
			lat, lng := rl.Lat, rl.Lng
			row.Lat, row.Lng = &lat, &lng
			row.MapURL = MapURL(lat, lng)
		}
	}
	return row
}

// NewRows builds display rows for records, preserving order.
func NewRows(records []model.Violation, now time.Time, loc *time.Location) []Row {
	rows := make([]Row, len(records))
	for i, v := range records {
		rows[i] = NewRow(v, now, loc)
	}
	return rows
}
