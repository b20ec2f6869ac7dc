package state

import (
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"questhub/storage"
)

// Manager provides typed access to the persisted ledger state. Records are
// RLP encoded; callers interact through the KV helpers so the encoding stays
// an implementation detail of this package.
type Manager struct {
	db storage.Database
}

// NewManager creates a manager backed by the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// KVPut stores the provided value under the supplied key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVPair is one key and record pair inside a KVPutAll batch.
type KVPair struct {
	Key   []byte
	Value interface{}
}

// KVPutAll encodes every pair before touching the database, then writes them
// in one atomic storage batch so a failure can never persist a subset.
func (m *Manager) KVPutAll(pairs ...KVPair) error {
	entries := make([]storage.BatchEntry, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair.Key) == 0 {
			return fmt.Errorf("kv: key must not be empty")
		}
		encoded, err := rlp.EncodeToBytes(pair.Value)
		if err != nil {
			return err
		}
		entries = append(entries, storage.BatchEntry{Key: pair.Key, Value: encoded})
	}
	return m.db.WriteBatch(entries)
}

// KVDelete removes the value stored under the supplied key. Deleting an
// absent key is not an error.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.db.Delete(key)
}

// KVPutList stores a slice value under the supplied key. It exists alongside
// KVPut for symmetry with KVGetList.
func (m *Manager) KVPutList(key []byte, list interface{}) error {
	return m.KVPut(key, list)
}

// KVGetList retrieves an RLP-encoded slice stored under the provided key and
// decodes it into the supplied destination slice pointer. When no value is
// present the destination is initialised with an empty slice to avoid nil
// surprises for callers.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		val := reflect.ValueOf(out)
		if val.Kind() != reflect.Ptr || val.IsNil() {
			return fmt.Errorf("kv: destination must be a non-nil pointer")
		}
		elem := val.Elem()
		if elem.Kind() != reflect.Slice {
			return fmt.Errorf("kv: destination must point to a slice")
		}
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
		return nil
	}
	return rlp.DecodeBytes(data, out)
}
