package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/violation-portal/internal/dashboard"
	"github.com/sells-group/violation-portal/internal/loader"
)

func runLoad(t *testing.T, format string) (string, error) {
	t.Helper()
	prev := loadFormat
	t.Cleanup(func() { loadFormat = prev })
	loadFormat = format

	var buf bytes.Buffer
	loadCmd.SetOut(&buf)
	loadCmd.SetContext(context.Background())
	t.Cleanup(func() { loadCmd.SetOut(nil) })

	err := loadCmd.RunE(loadCmd, nil)
	return buf.String(), err
}

func TestLoadCommand_JSON(t *testing.T) {
	cfg = testConfig(t, violationsYAML, newNominatim(t).URL)

	out, err := runLoad(t, "json")
	require.NoError(t, err)

	var rows []dashboard.Row
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)

	assert.Equal(t, int64(30), rows[0].CaseNumber)
	assert.Equal(t, "MH12XY9876", rows[0].VehicleNumber)
	assert.Equal(t, dashboard.LocationUnavailable, rows[0].Address)
	assert.Equal(t, int64(20), rows[1].CaseNumber)
	assert.Equal(t, "Near 40.7,-74", rows[1].Address)
	assert.Equal(t, int64(10), rows[2].CaseNumber)
	assert.Equal(t, dashboard.MapURL(12.9, 77.6), rows[2].MapURL)
}

func TestLoadCommand_Table(t *testing.T) {
	cfg = testConfig(t, violationsYAML, newNominatim(t).URL)

	out, err := runLoad(t, "table")
	require.NoError(t, err)
	assert.Contains(t, out, "CASE")
	assert.Contains(t, out, "Near 12.9,77.6")
	assert.Contains(t, out, dashboard.LocationUnavailable)
}

func TestLoadCommand_BulkFailure(t *testing.T) {
	cfg = testConfig(t, violationsYAML, newNominatim(t).URL)
	cfg.Store.Path = cfg.Store.Path + ".missing"

	_, err := runLoad(t, "json")
	require.Error(t, err)
	var le *loader.LoadError
	assert.ErrorAs(t, err, &le)
}

func TestLoadCommand_UnknownFormat(t *testing.T) {
	_, err := runLoad(t, "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
