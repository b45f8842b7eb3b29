package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests run against the Firestore emulator only.
func newEmulatorStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	s, err := New(context.Background(), "squares-test", "fundraisers", t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_SaveLoad(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()

	raw, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, raw)

	doc := `{"grid":{"4-7":{"name":"Alice"}},"numbers":{"top":[0,1,2,3,4,5,6,7,8,9],"randomized":false}}`
	require.NoError(t, s.Save(ctx, []byte(doc)))

	raw, err = s.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(raw))
}

func TestStore_Subscribe(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()

	got := make(chan []byte, 4)
	unsubscribe, err := s.Subscribe(ctx, func(raw []byte) { got <- raw })
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, s.Save(ctx, []byte(`{"ui":{"lockedBoard":true}}`)))

	select {
	case raw := <-got:
		assert.JSONEq(t, `{"ui":{"lockedBoard":true}}`, string(raw))
	case <-time.After(10 * time.Second):
		t.Fatal("no snapshot received")
	}
}
