package dashboard

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/violation-portal/internal/model"
)

var renderNow = time.Date(2024, 6, 6, 10, 0, 0, 0, time.UTC)

func sampleRecords() []model.Violation {
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return []model.Violation{
		{DocumentID: "b", CaseNumber: 30, VehicleNumber: "mh12ab0001", ImageURL: "https://img.example.com/30.jpg", Timestamp: ts},
		{DocumentID: "c", CaseNumber: 20, VehicleNumber: "dl3cab9999", ImageURL: "https://img.example.com/20.jpg", RawLocation: "40.7,-74.0",
			Location: &model.ResolvedLocation{Address: "Broadway, New York", Lat: 40.7, Lng: -74.0, Resolved: true}, Timestamp: ts},
		{DocumentID: "a", CaseNumber: 10, VehicleNumber: "ka01ab1234", ImageURL: "https://img.example.com/10.jpg", RawLocation: "12.9,77.6",
			Location: &model.ResolvedLocation{Address: "MG Road, Bengaluru", Lat: 12.9, Lng: 77.6, Resolved: true}, Timestamp: ts},
	}
}

func render(t *testing.T, state State, overlay Overlay) string {
	t.Helper()
	var buf bytes.Buffer
	r := Renderer{Title: "RTO Vehicle Police Portal", Location: time.UTC}
	require.NoError(t, r.Render(&buf, state, renderNow, overlay))
	return buf.String()
}

func TestRender_Loading(t *testing.T) {
	html := render(t, State{Phase: PhaseLoading}, Overlay{})
	assert.Contains(t, html, "Loading violations")
	assert.Contains(t, html, `http-equiv="refresh"`)
	assert.NotContains(t, html, "<table>")
}

func TestRender_Failed(t *testing.T) {
	html := render(t, State{Phase: PhaseFailed, Err: eris.New("permission <denied>")}, Overlay{})
	assert.Contains(t, html, `role="alert"`)
	assert.Contains(t, html, "permission &lt;denied&gt;")
	assert.NotContains(t, html, "<table>")
	assert.NotContains(t, html, `http-equiv="refresh"`)
}

func TestRender_ReadyTable(t *testing.T) {
	html := render(t, State{Phase: PhaseReady, Records: sampleRecords()}, Overlay{})

	assert.Contains(t, html, "<title>RTO Vehicle Police Portal</title>")
	for _, h := range []string{"Case No.", "Vehicle Number", "Image", "Last Tracked Location", "Date Time", "Days Remaining"} {
		assert.Contains(t, html, "<th>"+h+"</th>")
	}

	i30 := strings.Index(html, "<td>30</td>")
	i20 := strings.Index(html, "<td>20</td>")
	i10 := strings.Index(html, "<td>10</td>")
	require.True(t, i30 > 0 && i20 > 0 && i10 > 0)
	assert.Less(t, i30, i20)
	assert.Less(t, i20, i10)

	assert.Contains(t, html, "MH12AB0001")
	assert.Contains(t, html, LocationUnavailable)
	assert.Contains(t, html, "MG Road, Bengaluru")
	assert.Contains(t, html, "query=12.9,77.6")
	assert.Contains(t, html, "01 Jun 2024, 10:00 AM")
	assert.Contains(t, html, `<td class="days-9">9</td>`)
	assert.Contains(t, html, `href="?zoom=https%3a%2f%2fimg.example.com%2f30.jpg"`)
	assert.NotContains(t, html, `class="overlay"`)
}

func TestRender_Empty(t *testing.T) {
	html := render(t, State{Phase: PhaseReady}, Overlay{})
	assert.Contains(t, html, "No violations recorded.")
}

func TestRender_Overlay(t *testing.T) {
	var o Overlay
	o.Open("https://img.example.com/20.jpg")
	html := render(t, State{Phase: PhaseReady, Records: sampleRecords()}, o)

	assert.Contains(t, html, `class="overlay"`)
	assert.Contains(t, html, `<img src="https://img.example.com/20.jpg" alt="Vehicle image">`)
	assert.Equal(t, 1, strings.Count(html, ">Close</a>"))
}

func TestRender_OverlayRejectsScriptURL(t *testing.T) {
	var o Overlay
	o.Open("javascript:alert(1)")
	html := render(t, State{Phase: PhaseReady}, o)
	assert.NotContains(t, html, "javascript:alert")
}

func TestRenderer_NewPageFailedWithoutError(t *testing.T) {
	p := Renderer{}.NewPage(State{Phase: PhaseFailed}, renderNow, Overlay{})
	assert.Equal(t, "unknown error", p.Error)
	assert.Equal(t, "failed", p.Phase)
}
