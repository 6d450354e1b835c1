package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "takes")
	s := NewCaptureDir(dir)
	frozen := time.Unix(1600000000, 123000000)
	s.now = func() time.Time { return frozen }

	require.Nil(t, s.Append([]byte{0x01, 0x02, 0x03}))
	require.Nil(t, s.Append([]byte{0xff, 0xfe}))

	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	require.Len(t, entries, 2, "same millisecond must not overwrite")
	got := make(map[string]bool)
	for _, e := range entries {
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.Nil(t, err)
		got[string(b)] = true
		assert.Regexp(t, `^adc-1600000000123-\d+\.raw$`, e.Name())
	}
	assert.True(t, got["\x01\x02\x03"])
	assert.True(t, got["\xff\xfe"])
}

func TestCaptureDirPathFor(t *testing.T) {
	s := NewCaptureDir("/srv/takes")
	assert.Equal(t, "/srv/takes/adc-1600000000123-7.raw", s.pathFor(time.Unix(1600000000, 123456789), 7))
}
