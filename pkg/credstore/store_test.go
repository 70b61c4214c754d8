package credstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories returns one fresh instance of every backend.
func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"file": func() Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func() Store {
			s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "creds.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStoreGetSet(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()

			_, err := s.Get(KeySSID)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(KeySSID, "home"))
			v, err := s.Get(KeySSID)
			require.NoError(t, err)
			assert.Equal(t, "home", v)

			require.NoError(t, s.Set(KeySSID, "office"))
			v, err = s.Get(KeySSID)
			require.NoError(t, err)
			assert.Equal(t, "office", v)

			require.NoError(t, s.Set(KeyToken, ""))
			v, err = s.Get(KeyToken)
			require.NoError(t, err)
			assert.Empty(t, v)
		})
	}
}

func TestRecordRoundTrip(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()

			empty, err := LoadRecord(s)
			require.NoError(t, err)
			assert.False(t, empty.HasNetwork())

			want := Record{SSID: "home", Password: "hunter22", Token: "abc123"}
			require.NoError(t, SaveRecord(s, want))

			got, err := LoadRecord(s)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			require.NoError(t, ClearToken(s))
			got, err = LoadRecord(s)
			require.NoError(t, err)
			assert.Equal(t, "home", got.SSID)
			assert.Empty(t, got.Token)
		})
	}
}

func TestSaveRecordWriteOrder(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, SaveRecord(s, Record{SSID: "a", Password: "b", Token: "c"}))
	assert.Equal(t, []string{KeyToken, KeyPassword, KeySSID}, s.Writes())
}

func TestSaveRecordClearsPreviousNetworkFirst(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, SaveRecord(s, Record{SSID: "old", Password: "b", Token: "c"}))

	require.NoError(t, SaveRecord(s, Record{SSID: "new", Password: "d", Token: "e"}))
	assert.Equal(t, []string{
		KeyToken, KeyPassword, KeySSID,
		KeySSID, KeyToken, KeyPassword, KeySSID,
	}, s.Writes())

	got, err := LoadRecord(s)
	require.NoError(t, err)
	assert.Equal(t, Record{SSID: "new", Password: "d", Token: "e"}, got)
}

func TestSaveRecordFailureLeavesNoNetwork(t *testing.T) {
	tests := []struct {
		name    string
		failKey string
		prev    *Record
		writes  []string
	}{
		{name: "token", failKey: KeyToken, writes: []string{}},
		{name: "password", failKey: KeyPassword, writes: []string{KeyToken}},
		{name: "ssid", failKey: KeySSID, writes: []string{KeyToken, KeyPassword}},
		{
			name:    "password over stored network",
			failKey: KeyPassword,
			prev:    &Record{SSID: "old", Password: "x", Token: ""},
			writes:  []string{KeyToken, KeyPassword, KeySSID, KeySSID, KeyToken},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore()
			if tt.prev != nil {
				require.NoError(t, SaveRecord(s, *tt.prev))
			}
			boom := errors.New("flash full")
			s.FailSet(tt.failKey, boom)

			err := SaveRecord(s, Record{SSID: "a", Password: "b", Token: "c"})
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, tt.writes, s.Writes())

			rec, err := LoadRecord(s)
			require.NoError(t, err)
			assert.False(t, rec.HasNetwork(), "an incomplete save must not leave a network behind")

			s.FailSet(tt.failKey, nil)
			require.NoError(t, SaveRecord(s, Record{SSID: "a", Password: "b", Token: "c"}))
			rec, err = LoadRecord(s)
			require.NoError(t, err)
			assert.Equal(t, Record{SSID: "a", Password: "b", Token: "c"}, rec)
		})
	}
}

func TestIdentity(t *testing.T) {
	s := NewMemoryStore()

	_, err := LoadIdentity(s)
	assert.ErrorIs(t, err, ErrIdentityMissing)

	id := Identity{ProductID: "PID1", DeviceName: "lamp01", DeviceSecret: "c2VjcmV0"}
	require.NoError(t, SeedIdentity(s, id))

	got, err := LoadIdentity(s)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestIdentityMissingSecret(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set(KeyProductID, "PID1"))
	require.NoError(t, s.Set(KeyDeviceName, "lamp01"))

	_, err := LoadIdentity(s)
	require.ErrorIs(t, err, ErrIdentityMissing)
	assert.Contains(t, err.Error(), KeyDeviceSecret)
}

func TestFileStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "creds.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, SaveRecord(s, Record{SSID: "home", Password: "pw", Token: "tok"}))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	rec, err := LoadRecord(reopened)
	require.NoError(t, err)
	assert.Equal(t, "home", rec.SSID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestSQLiteStorePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.db")

	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, SaveToken(s, "tok"))
	require.NoError(t, s.Close())

	_, err = s.Get(KeyToken)
	assert.ErrorIs(t, err, ErrClosed)

	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", v)
}

func TestRecordStringMasksPassword(t *testing.T) {
	r := Record{SSID: "home", Password: "hunter22", Token: "tok"}
	assert.NotContains(t, r.String(), "hunter22")
}
