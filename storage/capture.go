package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CaptureDir implements Appender by writing each payload to its own file in a
// directory, named after the time it was received. Useful to keep recordings
// apart, e.g., while collecting training data one take at a time.
type CaptureDir struct {
	dir string
	now func() time.Time
}

func NewCaptureDir(dir string) *CaptureDir {
	return &CaptureDir{dir: dir, now: time.Now}
}

func (s *CaptureDir) Append(p []byte) (err error) {
	pathname := s.pathFor(s.now(), nextSeq())
	err = os.WriteFile(pathname, p, 0644)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("could not write %q: %w", pathname, err)
	}
	if err = os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("could not make dir for %q: %w", pathname, err)
	}
	return os.WriteFile(pathname, p, 0644)
}

func (s *CaptureDir) pathFor(t time.Time, n uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("adc-%d-%d.raw", t.UnixNano()/int64(time.Millisecond), n))
}
