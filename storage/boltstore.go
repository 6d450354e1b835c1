package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/boltdb/bolt"
)

// BoltStore is an implementation of Appender whose backend is a Bolt database.
// Each payload becomes one record, keyed by the bucket's sequence number.
type BoltStore bolt.DB

var (
	bucketName = []byte("payloads")
)

func NewBoltStore(db *bolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return fmt.Errorf("could not ensure bucket %q exists: %w", bucketName, err)
		}
		return nil
	})
	return (*BoltStore)(db), err
}

func (s *BoltStore) Append(p []byte) error {
	return (*bolt.DB)(s).Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		n, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("could not allocate sequence number: %w", err)
		}
		// Bolt requires a non-nil value.
		if p == nil {
			p = []byte{}
		}
		if err := b.Put(seqKey(n), p); err != nil {
			return fmt.Errorf("could not put payload %d (%d bytes): %w", n, len(p), err)
		}
		return nil
	})
}

// Get returns the payload stored with the given sequence number. Sequence
// numbers start at one.
func (s *BoltStore) Get(n uint64) (value []byte, err error) {
	err = (*bolt.DB)(s).View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(seqKey(n))
		if v == nil {
			return fmt.Errorf("payload %d: %w", n, ErrNotFound)
		}
		// Only valid for the life of the transaction.
		value = dup(v)
		return nil
	})
	return value, err
}

// Len returns the number of payloads stored.
func (s *BoltStore) Len() (n int, err error) {
	err = (*bolt.DB)(s).View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})
	return n, err
}

func seqKey(n uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, n)
	return key
}
