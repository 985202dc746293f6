package cache

import (
	"bytes"

	bolt "go.etcd.io/bbolt"
)

// DurableStore is the ordered key/value cache used to resume ingestion
// without re-scanning full history. Each prefix maps to its own bbolt
// bucket, giving native ordered-by-key iteration for retrieve_entries and
// get_last_available_key.
type DurableStore struct {
	db *bolt.DB
}

// OpenDurableStore opens (creating if absent) a bbolt database at path.
func OpenDurableStore(path string) (*DurableStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	return &DurableStore{db: db}, nil
}

// Close releases the underlying bbolt database.
func (s *DurableStore) Close() error {
	return s.db.Close()
}

// StoreEntry persists value under key within prefix's bucket, creating the
// bucket on first use.
func (s *DurableStore) StoreEntry(prefix, key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(prefix))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
}

// Entry is one ordered (key, value) pair within a prefix.
type Entry struct {
	Key   string
	Value []byte
}

// RetrieveEntries returns every entry in prefix's bucket whose key falls in
// [start, end] (inclusive), in ascending key order. An empty start/end
// bound is unbounded on that side.
func (s *DurableStore) RetrieveEntries(prefix, start, end string) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(prefix))
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		var k, v []byte
		if start == "" {
			k, v = cursor.First()
		} else {
			k, v = cursor.Seek([]byte(start))
		}

		for ; k != nil; k, v = cursor.Next() {
			if end != "" && bytes.Compare(k, []byte(end)) > 0 {
				break
			}
			value := append([]byte(nil), v...)
			entries = append(entries, Entry{Key: string(k), Value: value})
		}
		return nil
	})

	return entries, err
}

// GetLastAvailableKey returns the lexicographically greatest key stored
// under prefix, or "" if the prefix has no entries yet.
func (s *DurableStore) GetLastAvailableKey(prefix string) (string, error) {
	var last string

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(prefix))
		if bucket == nil {
			return nil
		}
		k, _ := bucket.Cursor().Last()
		if k != nil {
			last = string(k)
		}
		return nil
	})

	return last, err
}
