package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nicolagi/adcsink/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type failAfter struct {
	n     int
	store *storage.InMemoryStore
}

func (f *failAfter) Append(p []byte) error {
	if f.store.Count() >= f.n {
		return errors.New("connection refused")
	}
	return f.store.Append(p)
}

func TestSend(t *testing.T) {
	recording := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04, 0x05}, 20)
	t.Run("chunks concatenate to the recording", func(t *testing.T) {
		store := storage.NewInMemoryStore()
		n, err := send(context.Background(), store, bytes.NewReader(recording), 32, 0)
		require.Nil(t, err)
		assert.EqualValues(t, len(recording), n)
		assert.Equal(t, recording, store.Bytes())
		assert.Equal(t, 4, store.Count())
	})
	t.Run("empty recording sends nothing", func(t *testing.T) {
		store := storage.NewInMemoryStore()
		n, err := send(context.Background(), store, bytes.NewReader(nil), 32, 0)
		require.Nil(t, err)
		assert.EqualValues(t, 0, n)
		assert.Equal(t, 0, store.Count())
	})
	t.Run("stops at first failure", func(t *testing.T) {
		dst := &failAfter{n: 2, store: storage.NewInMemoryStore()}
		n, err := send(context.Background(), dst, bytes.NewReader(recording), 32, 0)
		require.NotNil(t, err)
		assert.EqualValues(t, 64, n)
		assert.Contains(t, err.Error(), "offset 64")
	})
	t.Run("invalid chunk size", func(t *testing.T) {
		_, err := send(context.Background(), storage.NewInMemoryStore(), bytes.NewReader(recording), 0, 0)
		assert.NotNil(t, err)
	})
	t.Run("paced", func(t *testing.T) {
		store := storage.NewInMemoryStore()
		start := time.Now()
		// Burst is one chunk, so the remaining 68 bytes take at least 68/680 s.
		_, err := send(context.Background(), store, bytes.NewReader(recording), 32, rate.Limit(680))
		require.Nil(t, err)
		assert.True(t, time.Since(start) >= 90*time.Millisecond, "took %v", time.Since(start))
	})
}
