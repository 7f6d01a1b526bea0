package cache

import (
	"path/filepath"
	"testing"

	"github.com/HappyEinara/wingline/internal/hashid"
	"github.com/HappyEinara/wingline/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterThenReaderRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 8)
	h := hashid.HashBytes([]byte("stage-a"))

	assert.False(t, s.Has(h))

	w, err := s.Writer(h)
	require.NoError(t, err)
	r1 := record.New()
	r1.Set("x", record.Int(1))
	require.NoError(t, w.Write(r1))
	require.NoError(t, w.Close(true))

	assert.True(t, s.Has(h))
	assert.FileExists(t, filepath.Join(dir, h.Prefix2(), h.String()+".wingline"))

	got, err := s.ReadAll(h)
	require.NoError(t, err)
	require.Len(t, got, 1)
	v, _ := got[0].Get("x")
	assert.Equal(t, int64(1), v.Int())
}

func TestWriterDiscardedOnFailureLeavesNoCacheEntry(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 0)
	h := hashid.HashBytes([]byte("stage-b"))

	w, err := s.Writer(h)
	require.NoError(t, err)
	require.NoError(t, w.Close(false))

	assert.False(t, s.Has(h))
}

func TestRequireHashRejectsInvalidHash(t *testing.T) {
	assert.ErrorIs(t, RequireHash(hashid.Hash{}), ErrHashUnavailable)
}

func TestLRURemembersHitsAndMisses(t *testing.T) {
	l := newLRU(2)
	l.put("a", true)
	l.put("b", false)
	hit, ok := l.get("a")
	assert.True(t, ok)
	assert.True(t, hit)

	hit, ok = l.get("b")
	assert.True(t, ok)
	assert.False(t, hit)

	l.put("c", true) // evicts least-recently-used, which is "a" after the gets above
	_, ok = l.get("a")
	assert.False(t, ok)
}
