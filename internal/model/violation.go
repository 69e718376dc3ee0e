// Package model defines the records shared by the loader, the document store
// backends and the dashboard.
package model

import "time"

// Document is a single schemaless document read from a collection.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Violation is one vehicle-violation case after normalization and enrichment.
type Violation struct {
	DocumentID    string            `json:"document_id"`
	CaseNumber    int64             `json:"case_number"`
	VehicleNumber string            `json:"vehicle_number"`
	ImageURL      string            `json:"image_url"`
	RawLocation   string            `json:"raw_location,omitempty"`
	Location      *ResolvedLocation `json:"location,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// ResolvedLocation is the enrichment derived from a raw "lat,lng" string.
// Resolved is false when Address holds a placeholder rather than a geocoded
// place name. Malformed records carry no usable coordinates.
type ResolvedLocation struct {
	Address   string  `json:"address"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Resolved  bool    `json:"resolved"`
	Malformed bool    `json:"malformed,omitempty"`
}

// HasLocation reports whether the violation carried a raw location and was
// enriched from it.
func (v Violation) HasLocation() bool {
	return v.Location != nil
}
