package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type entry struct {
	Tier        int       `json:"tier"`
	ProcessedAt time.Time `json:"processed_at"`
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "processed-messages.json")

	s, err := Open[entry](path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.Put("m1", entry{Tier: 2, ProcessedAt: now})
	s.Put("m2", entry{Tier: 3, ProcessedAt: now})
	require.NoError(t, s.Save())

	reopened, err := Open[entry](path)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, reopened.Keys())

	got, err := reopened.Get("m2")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Tier)
	assert.True(t, got.ProcessedAt.Equal(now))
}

func TestStore_GetMissing(t *testing.T) {
	s, err := Open[string](filepath.Join(t.TempDir(), "x.json"))
	require.NoError(t, err)

	_, err = s.Get("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, s.Has("nope"))
}

func TestStore_SaveWithoutChangesDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.json")
	s, err := Open[string](path)
	require.NoError(t, err)

	require.NoError(t, s.Save())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "clean store should not create a file")
}

func TestStore_CorruptFileMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "task-mappings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := Open[string](path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var aside bool
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "task-mappings.json.corrupt-") {
			aside = true
		}
	}
	assert.True(t, aside, "corrupt file should be preserved next to the store")
}

func TestStore_PruneAndDelete(t *testing.T) {
	s, err := Open[entry](filepath.Join(t.TempDir(), "x.json"))
	require.NoError(t, err)

	old := time.Now().Add(-40 * 24 * time.Hour)
	s.Put("old", entry{ProcessedAt: old})
	s.Put("new", entry{ProcessedAt: time.Now()})
	s.Put("gone", entry{ProcessedAt: time.Now()})

	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	n := s.Prune(func(_ string, e entry) bool { return e.ProcessedAt.Before(cutoff) })
	assert.Equal(t, 1, n)

	s.Delete("gone")
	s.Delete("never-there")
	assert.Equal(t, []string{"new"}, s.Keys())
}

func TestStore_ReplaceAndSnapshot(t *testing.T) {
	s, err := Open[string](filepath.Join(t.TempDir(), "x.json"))
	require.NoError(t, err)

	s.Put("1", "stale")
	s.Replace(map[string]string{"1": "task-a", "2": "task-b"})

	snap := s.Snapshot()
	assert.Equal(t, map[string]string{"1": "task-a", "2": "task-b"}, snap)

	snap["3"] = "mutated"
	assert.Equal(t, 2, s.Len(), "snapshot must be a copy")
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s, err := Open[int](filepath.Join(t.TempDir(), "x.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			s.Put(key, i)
			_ = s.Has(key)
			_ = s.Save()
		}(i)
	}
	wg.Wait()

	require.NoError(t, s.Save())
	reopened, err := Open[int](s.Path())
	require.NoError(t, err)
	assert.Equal(t, 20, reopened.Len())
}
