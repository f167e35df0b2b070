package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters so tests don't allocate 64 MiB per derivation
var testKDF = kdfParams{Time: 1, Memory: 1024, Threads: 1}

var sara = Profile{
	ID:          "u-42",
	Name:        "Sara",
	CountryCode: "+966",
	PhoneNumber: "501234567",
	Language:    "ar",
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	assert.Empty(t, s.Token())
	_, ok := s.Profile()
	assert.False(t, ok)

	require.NoError(t, s.SetToken("tok-1"))
	require.NoError(t, s.SetProfile(sara))
	assert.Equal(t, "tok-1", s.Token())
	got, ok := s.Profile()
	require.True(t, ok)
	assert.Equal(t, sara, got)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Token())
	_, ok = s.Profile()
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestDiskStore(t *testing.T) {
	s, err := newDiskStore(filepath.Join(t.TempDir(), "session.json"), "secret", testKDF)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestDiskStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := newDiskStore(path, "secret", testKDF)
	require.NoError(t, err)
	require.NoError(t, s.SetToken("tok-1"))
	require.NoError(t, s.SetProfile(sara))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "tok-1"), "token must not be stored in clear text")

	reopened, err := newDiskStore(path, "secret", testKDF)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", reopened.Token())
	got, ok := reopened.Profile()
	require.True(t, ok)
	assert.Equal(t, sara, got)
}

func TestDiskStore_WrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := newDiskStore(path, "secret", testKDF)
	require.NoError(t, err)
	require.NoError(t, s.SetToken("tok-1"))

	_, err = newDiskStore(path, "guess", testKDF)
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestDiskStore_ClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := newDiskStore(path, "secret", testKDF)
	require.NoError(t, err)
	require.NoError(t, s.SetToken("tok-1"))

	require.NoError(t, s.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// clearing twice is fine
	require.NoError(t, s.Clear())
}

func TestNewDiskStore_RequiresPassphrase(t *testing.T) {
	_, err := NewDiskStore(filepath.Join(t.TempDir(), "session.json"), "")
	assert.Error(t, err)
}
