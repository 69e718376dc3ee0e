package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func newTestServer(t *testing.T, h *Holder, opts ...Option) *httptest.Server {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock(renderNow)), WithLocation(time.UTC)}, opts...)
	srv := httptest.NewServer(NewHandler(h, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func readyHolder() *Holder {
	h := NewHolder()
	h.Succeed(sampleRecords())
	return h
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHandler_Health(t *testing.T) {
	srv := newTestServer(t, NewHolder())
	resp, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestHandler_IndexReady(t *testing.T) {
	srv := newTestServer(t, readyHolder(), WithTitle("Traffic Cases"))
	resp, body := get(t, srv.URL+"/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<title>Traffic Cases</title>")
	assert.Contains(t, string(body), "MG Road, Bengaluru")
	assert.NotContains(t, string(body), `class="overlay"`)
}

func TestHandler_IndexZoom(t *testing.T) {
	srv := newTestServer(t, readyHolder())
	_, body := get(t, srv.URL+"/?zoom=https://img.example.com/10.jpg")
	assert.Contains(t, string(body), `class="overlay"`)
	assert.Contains(t, string(body), `<img src="https://img.example.com/10.jpg" alt="Vehicle image">`)
}

func TestHandler_IndexLoadingAndFailed(t *testing.T) {
	h := NewHolder()
	srv := newTestServer(t, h)

	_, body := get(t, srv.URL+"/")
	assert.Contains(t, string(body), "Loading violations")

	h.Fail(eris.New("store unreachable"))
	_, body = get(t, srv.URL+"/")
	assert.Contains(t, string(body), "store unreachable")
}

func TestHandler_Violations(t *testing.T) {
	srv := newTestServer(t, readyHolder())
	resp, body := get(t, srv.URL+"/api/violations")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got violationsResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "ready", got.Status)
	assert.NotNil(t, got.LoadedAt)
	require.Len(t, got.Records, 3)
	assert.Equal(t, int64(30), got.Records[0].CaseNumber)
	assert.Equal(t, LocationUnavailable, got.Records[0].Address)
	assert.Equal(t, 9, got.Records[2].DaysRemaining)
	assert.Equal(t, MapURL(12.9, 77.6), got.Records[2].MapURL)
}

func TestHandler_ViolationsStatusCodes(t *testing.T) {
	h := NewHolder()
	srv := newTestServer(t, h)

	resp, body := get(t, srv.URL+"/api/violations")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"status":"loading","records":[]}`, string(body))

	h.Fail(eris.New("permission denied"))
	resp, body = get(t, srv.URL+"/api/violations")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var got violationsResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, "permission denied", got.Error)
	assert.Empty(t, got.Records)

	resp, _ = get(t, srv.URL+"/api/violations.geojson")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHandler_GeoJSON(t *testing.T) {
	srv := newTestServer(t, readyHolder())
	resp, body := get(t, srv.URL+"/api/violations.geojson")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var fc struct {
		Type     string           `json:"type"`
		Features []map[string]any `json:"features"`
	}
	require.NoError(t, json.Unmarshal(body, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 2)
}

func TestHandler_CORS(t *testing.T) {
	srv := newTestServer(t, readyHolder(), WithCORSOrigins([]string{"https://ops.example.com"}))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/violations", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://ops.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "https://ops.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHandler_ExportXLSX(t *testing.T) {
	srv := newTestServer(t, readyHolder())
	resp, body := get(t, srv.URL+"/export.xlsx")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "violations.xlsx")

	f, err := xlsx.OpenBinary(body)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Len(t, f.Sheets[0].Rows, 4)
}

func TestHandler_ExportXLSXNotReady(t *testing.T) {
	srv := newTestServer(t, NewHolder())
	resp, _ := get(t, srv.URL+"/export.xlsx")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandler_NotFound(t *testing.T) {
	srv := newTestServer(t, NewHolder())
	resp, _ := get(t, srv.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
