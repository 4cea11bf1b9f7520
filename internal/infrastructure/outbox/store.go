// Package outbox persists event batches whose publication failed so they can
// be relayed once the broker is reachable again.
package outbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const deadSuffix = "_dead"

// Store wraps BoltDB. Pending entries are kept in enqueue order; entries that
// exhausted their retries move to a dead-letter bucket.
type Store struct {
	db     *bolt.DB
	bucket []byte
	dead   []byte
	now    func() time.Time
}

// Open initializes the BoltDB file and ensures both buckets exist.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "outbox"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:     db,
		bucket: []byte(bucket),
		dead:   []byte(bucket + deadSuffix),
		now:    time.Now,
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{s.bucket, s.dead} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Enqueue appends an entry behind every entry already stored.
func (s *Store) Enqueue(entry Entry) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	entry.normalize(s.now())
	entry.key = buildKey(entry)
	return s.put(s.bucket, entry)
}

// Batch returns up to limit pending entries, oldest first, without removing them.
func (s *Store) Batch(limit int) ([]Entry, error) {
	return s.list(s.bucket, limit)
}

// Dead returns up to limit entries from the dead-letter bucket.
func (s *Store) Dead(limit int) ([]Entry, error) {
	return s.list(s.dead, limit)
}

// Retry records a failed attempt and keeps the entry at its position.
func (s *Store) Retry(entry Entry, cause error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	entry.Retries++
	if cause != nil {
		entry.LastError = cause.Error()
	}
	if len(entry.key) == 0 {
		entry.key = buildKey(entry)
	}
	return s.put(s.bucket, entry)
}

// Bury moves an entry to the dead-letter bucket.
func (s *Store) Bury(entry Entry) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(entry.key) == 0 {
		entry.key = buildKey(entry)
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(s.bucket).Delete(entry.key); err != nil {
			return err
		}
		return tx.Bucket(s.dead).Put(entry.key, payload)
	})
}

// Remove deletes the entry from the pending bucket.
func (s *Store) Remove(entry Entry) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(entry.key) == 0 {
		entry.key = buildKey(entry)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(entry.key)
	})
}

// Size returns the number of pending entries.
func (s *Store) Size() (int, error) {
	return s.count(s.bucket)
}

// DeadSize returns the number of dead-lettered entries.
func (s *Store) DeadSize() (int, error) {
	return s.count(s.dead)
}

// Cleanup removes dead-lettered entries enqueued before olderThan.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.dead).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.EnqueuedAt.Before(olderThan) {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

func (s *Store) put(bucket []byte, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(entry.key, payload)
	})
}

func (s *Store) list(bucket []byte, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, v := c.First(); k != nil && len(entries) < limit; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entry.key = append([]byte(nil), k...)
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

func (s *Store) count(bucket []byte) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucket).Stats().KeyN
		return nil
	})
	return count, err
}

func buildKey(entry Entry) []byte {
	return []byte(fmt.Sprintf("%020d_%s", entry.EnqueuedAt.UnixNano(), entry.ID))
}
