package filestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissing(t *testing.T) {
	s, err := New(t.TempDir(), "board")
	require.NoError(t, err)

	raw, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir(), "board")
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, []byte(`{"meta":{"title":"one"}}`)))
	require.NoError(t, s.Save(ctx, []byte(`{"meta":{"title":"two"}}`)))

	raw, err := s.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"meta":{"title":"two"}}`, string(raw))

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_SubscribeSeesExternalWrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir, "board")
	require.NoError(t, err)

	got := make(chan []byte, 8)
	unsubscribe, err := s.Subscribe(ctx, func(raw []byte) { got <- raw })
	require.NoError(t, err)
	defer unsubscribe()

	other, err := New(dir, "board")
	require.NoError(t, err)
	require.NoError(t, other.Save(ctx, []byte(`{"ui":{"lockedBoard":true}}`)))

	select {
	case raw := <-got:
		assert.JSONEq(t, `{"ui":{"lockedBoard":true}}`, string(raw))
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification received")
	}
}
