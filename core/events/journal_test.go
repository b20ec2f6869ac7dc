package events_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"questhub/core/events"
)

func openTestJournal(t *testing.T) *events.Journal {
	t.Helper()
	journal, err := events.OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { journal.Close() })
	journal.SetNowFunc(func() int64 { return 1234 })
	return journal
}

func TestAppendAssignsMonotonicSequence(t *testing.T) {
	journal := openTestJournal(t)

	first, err := journal.Append(events.SpaceCreated{Creator: [20]byte{1}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	second, err := journal.Append(events.JourneyCreated{})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("expected sequences 1,2 got %d,%d", first.Seq, second.Seq)
	}
	if first.ID == second.ID || first.ID == "" {
		t.Fatalf("expected distinct non-empty entry ids")
	}
	if first.Type != events.TypeSpaceCreated {
		t.Fatalf("unexpected type %q", first.Type)
	}
	if first.Timestamp != 1234 {
		t.Fatalf("expected pinned timestamp, got %d", first.Timestamp)
	}
	if journal.LastSeq() != 2 {
		t.Fatalf("expected last seq 2, got %d", journal.LastSeq())
	}
}

func TestReplayFromCursor(t *testing.T) {
	journal := openTestJournal(t)
	for i := 0; i < 5; i++ {
		if _, err := journal.Append(events.QuestStarted{User: [20]byte{byte(i)}}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var seen []uint64
	err := journal.Replay(2, func(entry events.JournalEntry) error {
		seen = append(seen, entry.Seq)
		var payload events.QuestStarted
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(seen) != 3 || seen[0] != 3 || seen[2] != 5 {
		t.Fatalf("expected entries 3..5, got %v", seen)
	}
}

func TestSubscribeReceivesLiveEntries(t *testing.T) {
	journal := openTestJournal(t)
	ch, cancel := journal.Subscribe()
	defer cancel()

	appended, err := journal.Append(events.QuestCompleted{User: [20]byte{7}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	got := <-ch
	if got.Seq != appended.Seq || got.Type != events.TypeQuestCompleted {
		t.Fatalf("unexpected live entry %+v", got)
	}

	cancel()
	if _, open := <-ch; open {
		t.Fatalf("expected channel closed after cancel")
	}
}

func TestEmitSatisfiesEmitter(t *testing.T) {
	journal := openTestJournal(t)
	var emitter events.Emitter = journal
	emitter.Emit(events.JourneyCompleted{User: [20]byte{3}})
	if journal.LastSeq() != 1 {
		t.Fatalf("expected one entry via Emit, got %d", journal.LastSeq())
	}
}
