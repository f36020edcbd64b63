package manifest

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest(t *testing.T) {
	file := filepath.Join(t.TempDir(), "manifest.db")

	m, err := Open(file)
	require.NoError(t, err)

	require.NoError(t, m.AddAsset("level1_room02.bmp", "level1", 2, 256, 224, "AAAA"))
	require.NoError(t, m.AddAsset("level1_overview.bmp", "level1", -1, 1024, 896, "BBBB"))
	require.NoError(t, m.AddAsset("level1_room02.bmp", "level1", 2, 256, 224, "CCCC"))
	require.NoError(t, m.AddFailure("level1", 5, errors.New("corrupt stream")))
	require.NoError(t, m.AddFailure("level2", -1, errors.New("missing palette")))
	require.NoError(t, m.Close())

	// Reopening keeps the records
	m, err = Open(file)
	require.NoError(t, err)
	defer m.Close()

	assets, err := m.Assets()
	require.NoError(t, err)
	assert.Equal(t, []Asset{
		{Name: "level1_overview.bmp", Level: "level1", Width: 1024, Height: 896, SHA1: "BBBB"},
		{Name: "level1_room02.bmp", Level: "level1", Room: sql.NullInt64{Int64: 2, Valid: true}, Width: 256, Height: 224, SHA1: "CCCC"},
	}, assets)

	a, err := m.Asset("level1_room02.bmp")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "CCCC", a.SHA1)

	a, err = m.Asset("level9_room00.bmp")
	require.NoError(t, err)
	assert.Nil(t, a)

	failures, err := m.Failures()
	require.NoError(t, err)
	assert.Equal(t, []Failure{
		{Level: "level1", Room: sql.NullInt64{Int64: 5, Valid: true}, Error: "corrupt stream"},
		{Level: "level2", Error: "missing palette"},
	}, failures)
}
