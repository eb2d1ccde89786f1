package readindex

import (
	"encoding/binary"
	"strings"

	"github.com/grailbio/base/errors"
	bolt "go.etcd.io/bbolt"
)

// Store is the destination of an index build. Entries become visible to
// other readers of the same backing storage only after Finalize.
type Store interface {
	// Put sets the tags of key, replacing any previous value.
	Put(key uint64, tags Tags) error
	// Get returns the tags of key and whether key is present.
	Get(key uint64) (Tags, bool, error)
	// Len returns the number of distinct keys.
	Len() (int, error)
	// Finalize makes all Puts durable.
	Finalize() error
	// Close releases the store. Puts not yet finalized may be lost.
	Close() error
}

// MemStore is an in-memory Store.
type MemStore struct {
	m map[uint64]Tags
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[uint64]Tags)}
}

// Put implements Store.
func (s *MemStore) Put(key uint64, tags Tags) error {
	s.m[key] = tags
	return nil
}

// Get implements Store.
func (s *MemStore) Get(key uint64) (Tags, bool, error) {
	t, ok := s.m[key]
	return t, ok, nil
}

// Len implements Store.
func (s *MemStore) Len() (int, error) { return len(s.m), nil }

// Finalize implements Store. It is a no-op.
func (s *MemStore) Finalize() error { return nil }

// Close implements Store. It is a no-op.
func (s *MemStore) Close() error { return nil }

var bucketName = []byte("reads")

// boltBatchSize is the number of Puts per write transaction.
const boltBatchSize = 1 << 16

// BoltStore is a Store backed by a bbolt database file, for indexes that do
// not fit in memory. Puts are grouped into write transactions; Finalize
// commits the pending one and syncs the file.
type BoltStore struct {
	db      *bolt.DB
	tx      *bolt.Tx
	pending int
}

// OpenBoltStore opens or creates the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.E(err, "open index database", path)
	}
	// Durability is provided by Finalize.
	db.NoSync = true
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close() // nolint: errcheck
		return nil, errors.E(err, "create bucket", path)
	}
	return &BoltStore{db: db}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

func encodeKey(key uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], key)
	return b[:]
}

// Put implements Store.
func (s *BoltStore) Put(key uint64, tags Tags) error {
	if s.tx == nil {
		tx, err := s.db.Begin(true)
		if err != nil {
			return err
		}
		s.tx = tx
	}
	if err := s.tx.Bucket(bucketName).Put(encodeKey(key), tags.marshal()); err != nil {
		return err
	}
	if s.pending++; s.pending >= boltBatchSize {
		return s.commit()
	}
	return nil
}

func (s *BoltStore) commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx, s.pending = nil, 0
	return err
}

// Get implements Store. It sees Puts that are not yet committed.
func (s *BoltStore) Get(key uint64) (tags Tags, ok bool, err error) {
	get := func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(encodeKey(key))
		if v == nil {
			return nil
		}
		ok = true
		tags, err = unmarshalTags(v)
		return err
	}
	if s.tx != nil {
		err = get(s.tx)
		return
	}
	err = s.db.View(get)
	return
}

// Len implements Store.
func (s *BoltStore) Len() (int, error) {
	if s.tx != nil {
		return s.tx.Bucket(bucketName).Stats().KeyN, nil
	}
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})
	return n, err
}

// Finalize implements Store.
func (s *BoltStore) Finalize() error {
	if err := s.commit(); err != nil {
		return errors.E(err, "commit", s.db.Path())
	}
	return s.db.Sync()
}

// Close implements Store. A pending write transaction is rolled back.
func (s *BoltStore) Close() error {
	once := errors.Once{}
	if s.tx != nil {
		once.Set(s.tx.Rollback())
		s.tx = nil
	}
	once.Set(s.db.Close())
	return once.Err()
}

const tagSep = "\t"

func (t Tags) marshal() []byte {
	return []byte(t.X + tagSep + t.Y + tagSep + t.UMI)
}

func unmarshalTags(b []byte) (Tags, error) {
	f := strings.Split(string(b), tagSep)
	if len(f) != 3 {
		return Tags{}, errors.E(errors.Integrity, "corrupt index value", string(b))
	}
	return Tags{X: f[0], Y: f[1], UMI: f[2]}, nil
}
