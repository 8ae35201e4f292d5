package uploads

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SaveAndList(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, 50)
	require.NoError(t, err)

	first, err := m.Save("january.csv", []byte("date,revenue\n2024-01-01,100\n"))
	require.NoError(t, err)
	second, err := m.Save("february.csv", []byte("date,revenue\n2024-02-01,200\n"))
	require.NoError(t, err)

	assert.NotEqual(t, first.FileID, second.FileID)
	assert.Equal(t, first.FileID+".csv", first.StoredName)

	// Newest first
	records := m.List()
	require.Len(t, records, 2)
	assert.Equal(t, "february.csv", records[0].Filename)
	assert.Equal(t, "january.csv", records[1].Filename)

	// Stored file holds the original bytes
	data, rec, err := m.Read(first.FileID)
	require.NoError(t, err)
	assert.Equal(t, "january.csv", rec.Filename)
	assert.Equal(t, "date,revenue\n2024-01-01,100\n", string(data))
}

func TestManager_IndexPersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	m, err := NewManager(dir, 50)
	require.NoError(t, err)
	saved, err := m.Save("sales.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)

	reloaded, err := NewManager(dir, 50)
	require.NoError(t, err)
	records := reloaded.List()
	require.Len(t, records, 1)
	assert.Equal(t, saved.FileID, records[0].FileID)

	data, _, err := reloaded.Read(saved.FileID)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestManager_IndexCap(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, 3)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := m.Save("batch.csv", []byte("a\n1\n"))
		require.NoError(t, err)
	}

	assert.Len(t, m.List(), 3)

	// Only the capped index survives a reload
	reloaded, err := NewManager(dir, 3)
	require.NoError(t, err)
	assert.Len(t, reloaded.List(), 3)
}

func TestManager_CorruptIndexStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, indexFilename), []byte("{not json"), 0o644))

	m, err := NewManager(dir, 50)
	require.NoError(t, err)
	assert.Empty(t, m.List())
}

func TestManager_ReadErrors(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, 50)
	require.NoError(t, err)

	_, _, err = m.Read("unknown-id")
	assert.ErrorIs(t, err, ErrUnknownUpload)

	rec, err := m.Save("gone.csv", []byte("a\n1\n"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, rec.StoredName)))

	_, _, err = m.Read(rec.FileID)
	assert.ErrorIs(t, err, ErrFileMissing)
}

func TestManager_Lookup(t *testing.T) {
	m, err := NewManager(t.TempDir(), 50)
	require.NoError(t, err)

	rec, err := m.Save("sales.csv", []byte("a\n1\n"))
	require.NoError(t, err)

	found, ok := m.Lookup(rec.FileID)
	assert.True(t, ok)
	assert.Equal(t, rec, found)

	_, ok = m.Lookup("nope")
	assert.False(t, ok)
}
