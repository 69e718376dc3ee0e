package dashboard

import (
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/violation-portal/internal/model"
)

var exportHeader = []string{
	"Case No.",
	"Vehicle Number",
	"Image URL",
	"Last Tracked Location",
	"Latitude",
	"Longitude",
	"Date Time",
	"Days Remaining",
}

// FeatureCollection converts records with usable coordinates into GeoJSON
// point features. Records without a location or with a malformed one are
// left out.
func FeatureCollection(records []model.Violation, now time.Time) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, v := range records {
		loc := v.Location
		if loc == nil || loc.Malformed {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       v.DocumentID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{loc.Lng, loc.Lat}),
			Properties: map[string]any{
				"case_number":    v.CaseNumber,
				"vehicle_number": VehicleDisplay(v.VehicleNumber),
				"image_url":      v.ImageURL,
				"address":        loc.Address,
				"resolved":       loc.Resolved,
				"timestamp":      isoTime(v.Timestamp),
				"days_remaining": DaysRemaining(v.Timestamp, now),
			},
		})
	}
	return fc
}

// WriteGeoJSON encodes the feature collection for records to w.
func WriteGeoJSON(w io.Writer, records []model.Violation, now time.Time) error {
	if err := json.NewEncoder(w).Encode(FeatureCollection(records, now)); err != nil {
		return eris.Wrap(err, "dashboard: encode geojson")
	}
	return nil
}

// BuildWorkbook lays the table out as a single-sheet workbook.
func BuildWorkbook(rows []Row) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Violations")
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(strconv.FormatInt(r.CaseNumber, 10))
		row.AddCell().SetString(r.VehicleNumber)
		row.AddCell().SetString(r.ImageURL)
		row.AddCell().SetString(r.Address)
		row.AddCell().SetString(optionalCoord(r.Lat))
		row.AddCell().SetString(optionalCoord(r.Lng))
		row.AddCell().SetString(r.DateTime)
		row.AddCell().SetInt(r.DaysRemaining)
	}
	return f, nil
}

// WriteXLSX writes the workbook for rows to w.
func WriteXLSX(w io.Writer, rows []Row) error {
	f, err := BuildWorkbook(rows)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "dashboard: write xlsx")
	}
	return nil
}

func optionalCoord(f *float64) string {
	if f == nil {
		return ""
	}
	return formatCoord(*f)
}
