package state_test

import (
	"testing"

	"questhub/core/state"
	"questhub/storage"
)

type record struct {
	Name  string
	Count uint64
}

func newTestManager(t *testing.T) *state.Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return state.NewManager(db)
}

func TestKVRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	key := []byte("test/record")

	var out record
	ok, err := manager.KVGet(key, &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key")
	}

	if err := manager.KVPut(key, record{Name: "alpha", Count: 7}); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err = manager.KVGet(key, &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || out.Name != "alpha" || out.Count != 7 {
		t.Fatalf("unexpected record %+v", out)
	}

	// Existence probe without decoding.
	ok, err = manager.KVGet(key, nil)
	if err != nil || !ok {
		t.Fatalf("expected existence probe to succeed, ok=%v err=%v", ok, err)
	}
}

func TestKVDelete(t *testing.T) {
	manager := newTestManager(t)
	key := []byte("test/record")
	if err := manager.KVPut(key, record{Name: "x"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := manager.KVDelete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, err := manager.KVGet(key, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected key gone")
	}
	// Deleting an absent key is fine.
	if err := manager.KVDelete(key); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestKVPutAllWritesEveryPair(t *testing.T) {
	manager := newTestManager(t)

	err := manager.KVPutAll(
		state.KVPair{Key: []byte("test/a"), Value: record{Name: "a", Count: 1}},
		state.KVPair{Key: []byte("test/b"), Value: record{Name: "b", Count: 2}},
		state.KVPair{Key: []byte("test/count"), Value: uint64(9)},
	)
	if err != nil {
		t.Fatalf("put all: %v", err)
	}

	var out record
	if ok, err := manager.KVGet([]byte("test/a"), &out); err != nil || !ok || out.Name != "a" {
		t.Fatalf("pair a not written, ok=%v err=%v out=%+v", ok, err, out)
	}
	if ok, err := manager.KVGet([]byte("test/b"), &out); err != nil || !ok || out.Count != 2 {
		t.Fatalf("pair b not written, ok=%v err=%v out=%+v", ok, err, out)
	}
	var count uint64
	if ok, err := manager.KVGet([]byte("test/count"), &count); err != nil || !ok || count != 9 {
		t.Fatalf("count not written, ok=%v err=%v count=%d", ok, err, count)
	}

	// An unencodable pair fails before anything reaches the database.
	err = manager.KVPutAll(
		state.KVPair{Key: []byte("test/good"), Value: record{Name: "g"}},
		state.KVPair{Key: []byte("test/bad"), Value: make(chan int)},
	)
	if err == nil {
		t.Fatalf("expected encoding error")
	}
	if ok, _ := manager.KVGet([]byte("test/good"), nil); ok {
		t.Fatalf("failed batch must not persist a subset")
	}
}

func TestKVListDefaultsToEmpty(t *testing.T) {
	manager := newTestManager(t)
	key := []byte("test/list")

	var list []record
	if err := manager.KVGetList(key, &list); err != nil {
		t.Fatalf("get list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", list)
	}

	want := []record{{Name: "a", Count: 1}, {Name: "b", Count: 2}}
	if err := manager.KVPutList(key, want); err != nil {
		t.Fatalf("put list: %v", err)
	}
	if err := manager.KVGetList(key, &list); err != nil {
		t.Fatalf("get list: %v", err)
	}
	if len(list) != 2 || list[1].Name != "b" {
		t.Fatalf("unexpected list %v", list)
	}
}
