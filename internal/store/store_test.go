package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mairesult/internal/record"
)

func TestFileStoreMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "db.json"))

	records, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := NewFileStore(path)

	in := []record.Record{
		{Title: "A", Rate: "100.1234", PlayedAt: "2025/08/01 21:03", Uniq: "u1"},
		{Title: "B", Uniq: "u2"},
	}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewFileStore(path)
	records, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStoreSaveFailure(t *testing.T) {
	// Writing into a missing directory must surface the error
	s := NewFileStore(filepath.Join(t.TempDir(), "missing", "db.json"))
	err := s.Save([]record.Record{{Title: "A"}})
	assert.Error(t, err)
}
