package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDatabase(t *testing.T, db Database) {
	t.Helper()

	value, err := db.Get([]byte("missing"))
	require.NoError(t, err)
	require.Nil(t, value, "absent key must read as nil without error")

	require.NoError(t, db.Put([]byte("k"), []byte("v1")))
	value, err = db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), value)

	require.NoError(t, db.Put([]byte("k"), []byte("v2")))
	value, err = db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)

	require.NoError(t, db.Delete([]byte("k")))
	value, err = db.Get([]byte("k"))
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, db.Delete([]byte("k")), "deleting an absent key is a no-op")

	entries := []BatchEntry{
		{Key: []byte("batch/a"), Value: []byte("1")},
		{Key: []byte("batch/b"), Value: []byte("2")},
		{Key: []byte("batch/c"), Value: []byte("3")},
	}
	require.NoError(t, db.WriteBatch(entries))
	for _, entry := range entries {
		value, err = db.Get(entry.Key)
		require.NoError(t, err)
		require.Equal(t, entry.Value, value)
	}
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	testDatabase(t, db)
}

func TestMemDBDefensiveCopies(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	original := []byte("value")
	require.NoError(t, db.Put([]byte("k"), original))
	original[0] = 'X'

	stored, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), stored)

	stored[0] = 'Y'
	again, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), again)
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer db.Close()
	testDatabase(t, db)
}

func TestLevelDBReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	db, err := NewLevelDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	db.Close()

	reopened, err := NewLevelDB(path)
	require.NoError(t, err)
	defer reopened.Close()
	value, err := reopened.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)
}
