package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
withoutlicencedrive:
  - id: case-10
    srNo: 10
    vehicleNumber: KA01AB1234
    lastTracedLocation: "12.9,77.6"
  - srNo: 30
    vehicleNumber: MH12XY9876
other:
  - srNo: 1
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "violations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFile_List(t *testing.T) {
	st := NewFile(writeFixture(t, fixtureYAML))
	defer st.Close() //nolint:errcheck

	docs, err := st.List(context.Background(), "withoutlicencedrive")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "case-10", docs[0].ID)
	assert.NotContains(t, docs[0].Fields, "id")
	assert.Equal(t, 10, docs[0].Fields["srNo"])
	assert.Equal(t, "12.9,77.6", docs[0].Fields["lastTracedLocation"])

	assert.Equal(t, "doc-2", docs[1].ID)
	assert.Equal(t, "MH12XY9876", docs[1].Fields["vehicleNumber"])
}

func TestFile_ListJSON(t *testing.T) {
	st := NewFile(writeFixture(t, `{"withoutlicencedrive": [{"id": 7, "srNo": 3}]}`))

	docs, err := st.List(context.Background(), "withoutlicencedrive")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "7", docs[0].ID)
	assert.Equal(t, 3, docs[0].Fields["srNo"])
}

func TestFile_ListMissingCollection(t *testing.T) {
	docs, err := NewFile(writeFixture(t, fixtureYAML)).List(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFile_ListMissingFile(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "missing.yaml")).List(context.Background(), "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file: read")
}

func TestFile_ListInvalidYAML(t *testing.T) {
	_, err := NewFile(writeFixture(t, "withoutlicencedrive: {unclosed")).List(context.Background(), "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file: parse")
}

func TestFile_ListCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFile(writeFixture(t, fixtureYAML)).List(ctx, "withoutlicencedrive")
	assert.ErrorIs(t, err, context.Canceled)
}
