package loader

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/violation-portal/internal/config"
	"github.com/sells-group/violation-portal/internal/model"
)

// ErrMalformedLocation is returned by ParseLocation for strings that are not
// two in-range numbers separated by a comma.
var ErrMalformedLocation = eris.New("loader: malformed location")

// Fields names the stored document fields read into a violation.
type Fields struct {
	CaseNumber    string
	VehicleNumber string
	ImageURL      string
	Location      string
	Timestamp     string
}

// DefaultFields returns the field names used by the mobile reporting app.
func DefaultFields() Fields {
	return Fields{
		CaseNumber:    "srNo",
		VehicleNumber: "vehicleNumber",
		ImageURL:      "imageUrl",
		Location:      "lastTracedLocation",
		Timestamp:     "timestamp",
	}
}

// FieldsFromConfig overlays configured names on the defaults.
func FieldsFromConfig(c config.FieldsConfig) Fields {
	f := DefaultFields()
	if c.CaseNumber != "" {
		f.CaseNumber = c.CaseNumber
	}
	if c.VehicleNumber != "" {
		f.VehicleNumber = c.VehicleNumber
	}
	if c.ImageURL != "" {
		f.ImageURL = c.ImageURL
	}
	if c.Location != "" {
		f.Location = c.Location
	}
	if c.Timestamp != "" {
		f.Timestamp = c.Timestamp
	}
	return f
}

// normalize maps a raw document onto a violation without enrichment.
// Unparseable case numbers and timestamps are logged and left zero.
func normalize(doc model.Document, f Fields, log *zap.Logger) model.Violation {
	v := model.Violation{
		DocumentID:    doc.ID,
		VehicleNumber: stringField(doc.Fields[f.VehicleNumber]),
		ImageURL:      stringField(doc.Fields[f.ImageURL]),
		RawLocation:   strings.TrimSpace(stringField(doc.Fields[f.Location])),
	}

	n, err := CaseNumber(doc.Fields[f.CaseNumber])
	if err != nil {
		log.Warn("loader: invalid case number", zap.String("document_id", doc.ID), zap.Error(err))
	}
	v.CaseNumber = n

	ts, err := NormalizeTimestamp(doc.Fields[f.Timestamp])
	if err != nil {
		log.Warn("loader: invalid timestamp", zap.String("document_id", doc.ID), zap.Error(err))
	}
	v.Timestamp = ts

	return v
}

func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// CaseNumber converts a stored case number (integer, integral float, or
// numeric string) to int64.
func CaseNumber(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, eris.New("loader: case number missing")
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, eris.Errorf("loader: case number %d overflows", n)
		}
		return int64(n), nil
	case float64:
		return integral(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, eris.Wrapf(err, "loader: case number %q", n)
		}
		return integral(f)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, eris.Errorf("loader: case number %q is not numeric", n)
		}
		return integral(f)
	default:
		return 0, eris.Errorf("loader: unsupported case number type %T", v)
	}
}

func integral(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, eris.Errorf("loader: case number %v is not an integer", f)
	}
	return int64(f), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeTimestamp converts the stored timestamp representations into a
// time.Time: native times, Firestore {seconds, nanoseconds} maps, formatted
// strings, and unix seconds or milliseconds.
func NormalizeTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, eris.New("loader: timestamp missing")
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, eris.New("loader: timestamp missing")
		}
		return *t, nil
	case map[string]any:
		return fromSecondsMap(t)
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, nil
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromUnix(f), nil
		}
		return time.Time{}, eris.Errorf("loader: unrecognized timestamp %q", t)
	default:
		f, ok := toFloat(v)
		if !ok {
			return time.Time{}, eris.Errorf("loader: unsupported timestamp type %T", v)
		}
		return fromUnix(f), nil
	}
}

func fromSecondsMap(m map[string]any) (time.Time, error) {
	secV, ok := m["seconds"]
	if !ok {
		secV, ok = m["_seconds"]
	}
	if !ok {
		return time.Time{}, eris.New("loader: timestamp map has no seconds")
	}
	sec, ok := toFloat(secV)
	if !ok {
		return time.Time{}, eris.Errorf("loader: timestamp seconds has type %T", secV)
	}

	nsV, ok := m["nanoseconds"]
	if !ok {
		nsV = m["_nanoseconds"]
	}
	ns, _ := toFloat(nsV)

	return time.Unix(int64(sec), int64(ns)).UTC(), nil
}

// fromUnix treats values below 1e11 as seconds and larger ones as
// milliseconds; 1e11 seconds is in the year 5138.
func fromUnix(f float64) time.Time {
	if math.Abs(f) < 1e11 {
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	return time.UnixMilli(int64(f)).UTC()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ParseLocation parses a "lat,lng" string. Both parts must be finite
// numbers within latitude and longitude bounds.
func ParseLocation(raw string) (lat, lng float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, eris.Wrapf(ErrMalformedLocation, "%q", raw)
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return 0, 0, eris.Wrapf(ErrMalformedLocation, "latitude in %q", raw)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return 0, 0, eris.Wrapf(ErrMalformedLocation, "longitude in %q", raw)
	}
	return lat, lng, nil
}
