package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// File implements Appender on top of a single file on the host filesystem.
// The file is opened in append mode for every payload, so that it is created
// on first use and whatever happens to it between appends (e.g., it's moved
// away by an operator) is picked up on the next one.
//
// There is no locking. Each payload is handed to the kernel in a single
// write, and in append mode the kernel positions every write at the end of
// the file, so concurrent payloads do not overwrite or split each other.
type File struct {
	pathname string
	sync     bool
}

type FileOption func(*File)

// WithSync makes every append flush to stable storage before returning.
func WithSync(value bool) FileOption {
	return func(f *File) {
		f.sync = value
	}
}

func NewFile(pathname string, opts ...FileOption) *File {
	f := &File{pathname: pathname}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Path returns the pathname of the file appended to.
func (s *File) Path() string {
	return s.pathname
}

func (s *File) Append(p []byte) (err error) {
	f, err := s.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("could not close %q: %w", s.pathname, cerr)
		}
	}()
	if len(p) > 0 {
		if _, err = f.Write(p); err != nil {
			return fmt.Errorf("could not append %d bytes to %q: %w", len(p), s.pathname, err)
		}
	}
	if s.sync {
		if err = unix.Fsync(int(f.Fd())); err != nil {
			return fmt.Errorf("could not sync %q: %w", s.pathname, err)
		}
	}
	return nil
}

func (s *File) open() (*os.File, error) {
	const flag = os.O_WRONLY | os.O_APPEND | os.O_CREATE
	f, err := os.OpenFile(s.pathname, flag, 0644)
	if err == nil {
		return f, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not open %q: %w", s.pathname, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.pathname), 0755); err != nil {
		return nil, fmt.Errorf("could not make dir for %q: %w", s.pathname, err)
	}
	f, err = os.OpenFile(s.pathname, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", s.pathname, err)
	}
	return f, nil
}
