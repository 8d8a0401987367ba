package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "shore-user:missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "shore-user:1", []byte(`{"id":"1"}`)))
	v, err := s.Get(ctx, "shore-user:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(v))

	require.NoError(t, s.Set(ctx, "shore-user:1", []byte(`{"id":"1","name":"B"}`)))
	v, err = s.Get(ctx, "shore-user:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","name":"B"}`, string(v))

	require.NoError(t, s.Delete(ctx, "shore-user:1"))
	_, err = s.Get(ctx, "shore-user:1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "shore-user:1"), "deleting a missing key is a no-op")
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	value := []byte("en")
	require.NoError(t, m.Set(ctx, "shore-language:1", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "shore-language:1")
	require.NoError(t, err)
	assert.Equal(t, "en", string(got))
}

func TestFile(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "nested", "state.json"))
	require.NoError(t, err)
	require.NoError(t, f.CheckReadiness(context.Background()))
	exerciseStore(t, f)
}

func TestFile_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	first, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "shore-language:1", []byte("ta")))

	second, err := NewFile(path)
	require.NoError(t, err)
	v, err := second.Get(ctx, "shore-language:1")
	require.NoError(t, err)
	assert.Equal(t, "ta", string(v))
}

func TestFile_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not-json{{{"), 0o644))

	f, err := NewFile(path)
	require.NoError(t, err)

	_, err = f.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
	assert.Error(t, f.CheckReadiness(context.Background()))
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.CheckReadiness(context.Background()))
	exerciseStore(t, r)
}

func TestRedis_Namespaced(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.Set(context.Background(), "shore-user:1", []byte("x")))

	assert.True(t, mr.Exists("shore:shore-user:1"))
}

func TestRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	r := NewRedis(addr, "", 0)
	t.Cleanup(func() { _ = r.Close() })

	_, err := r.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
