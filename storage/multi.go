package storage

import (
	"fmt"
)

// Multi implements Appender by appending to each of a list of appenders in
// turn. It stops at the first failure, so later appenders only see payloads
// that earlier ones accepted.
type Multi []Appender

func (m Multi) Append(p []byte) error {
	for i, a := range m {
		if err := a.Append(p); err != nil {
			if i == 0 {
				return err
			}
			return fmt.Errorf("appender %d of %d: %w", i+1, len(m), err)
		}
	}
	return nil
}
