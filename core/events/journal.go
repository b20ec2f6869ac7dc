package events

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var journalBucket = []byte("journal")

// JournalEntry is the persisted form of an emitted event, as served to
// off-chain indexers. The sequence number is assigned append-only and never
// reused; the entry id is opaque.
type JournalEntry struct {
	Seq       uint64          `json:"seq"`
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Journal is an append-only event log backed by bbolt. It satisfies the
// Emitter interface so engines can write straight into it, and supports
// replaying the backlog from a cursor for catch-up subscribers.
type Journal struct {
	db *bolt.DB

	mu      sync.Mutex
	subs    map[uint64]chan JournalEntry
	nextSub uint64
	nowFn   func() int64
}

// OpenJournal opens (or creates) the journal file at the given path.
func OpenJournal(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("events: open journal: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(journalBucket)
		return createErr
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("events: init journal: %w", err)
	}
	return &Journal{
		db:    db,
		subs:  make(map[uint64]chan JournalEntry),
		nowFn: func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// SetNowFunc overrides the timestamp source. Intended for tests.
func (j *Journal) SetNowFunc(now func() int64) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if now == nil {
		j.nowFn = func() int64 { return time.Now().UnixMilli() }
		return
	}
	j.nowFn = now
}

// Emit implements the Emitter interface. Persistence errors are swallowed so
// a full disk cannot abort the ledger operation that emitted the event; the
// Append method is available when the caller wants the error.
func (j *Journal) Emit(e Event) {
	if j == nil || e == nil {
		return
	}
	_, _ = j.Append(e)
}

// Append persists the event and notifies live subscribers. It returns the
// stored entry including its assigned sequence number.
func (j *Journal) Append(e Event) (JournalEntry, error) {
	if j == nil || e == nil {
		return JournalEntry{}, fmt.Errorf("events: nil journal or event")
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("events: marshal payload: %w", err)
	}
	j.mu.Lock()
	now := j.nowFn()
	j.mu.Unlock()
	entry := JournalEntry{
		ID:        uuid.NewString(),
		Type:      e.EventType(),
		Timestamp: now,
		Payload:   payload,
	}
	err = j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(journalBucket)
		seq, seqErr := bucket.NextSequence()
		if seqErr != nil {
			return seqErr
		}
		entry.Seq = seq
		encoded, encErr := json.Marshal(entry)
		if encErr != nil {
			return encErr
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return bucket.Put(key[:], encoded)
	})
	if err != nil {
		return JournalEntry{}, fmt.Errorf("events: append: %w", err)
	}
	j.notify(entry)
	return entry, nil
}

// Replay invokes fn for every stored entry with a sequence number strictly
// greater than afterSeq, in order. Returning an error from fn stops the
// replay and surfaces the error.
func (j *Journal) Replay(afterSeq uint64, fn func(JournalEntry) error) error {
	if j == nil || fn == nil {
		return nil
	}
	return j.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(journalBucket).Cursor()
		var start [8]byte
		binary.BigEndian.PutUint64(start[:], afterSeq+1)
		for k, v := cursor.Seek(start[:]); k != nil; k, v = cursor.Next() {
			var entry JournalEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("events: corrupt entry: %w", err)
			}
			if err := fn(entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// LastSeq reports the sequence number of the most recent entry, or zero when
// the journal is empty.
func (j *Journal) LastSeq() uint64 {
	if j == nil {
		return 0
	}
	var seq uint64
	_ = j.db.View(func(tx *bolt.Tx) error {
		seq = tx.Bucket(journalBucket).Sequence()
		return nil
	})
	return seq
}

// Subscribe registers a live follower. The returned channel receives entries
// appended after the call; cancel must be invoked to release the
// subscription. Slow consumers drop entries rather than block the ledger.
func (j *Journal) Subscribe() (<-chan JournalEntry, func()) {
	if j == nil {
		ch := make(chan JournalEntry)
		close(ch)
		return ch, func() {}
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	id := j.nextSub
	j.nextSub++
	ch := make(chan JournalEntry, 64)
	j.subs[id] = ch
	cancel := func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if existing, ok := j.subs[id]; ok {
			delete(j.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

func (j *Journal) notify(entry JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, ch := range j.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}

// Close releases the underlying database and closes all subscriptions.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	for id, ch := range j.subs {
		delete(j.subs, id)
		close(ch)
	}
	j.mu.Unlock()
	return j.db.Close()
}
