package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"questhub/core/events"
)

const wsWriteTimeout = 10 * time.Second

// handleEventsWS streams journal entries over a websocket. The optional
// "after" query parameter is a sequence cursor: the backlog past it is
// replayed before live entries, so reconnecting indexers never miss events.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.journal == nil {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	var after uint64
	if raw := strings.TrimSpace(r.URL.Query().Get("after")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid after cursor", http.StatusBadRequest)
			return
		}
		after = parsed
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	if err := s.streamEvents(r.Context(), conn, after); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, after uint64) error {
	// Subscribe before replaying so entries appended during the replay are
	// not lost; duplicates past the cursor are filtered by sequence number.
	live, cancel := s.journal.Subscribe()
	defer cancel()

	lastSent := after
	err := s.journal.Replay(after, func(entry events.JournalEntry) error {
		if writeErr := writeJournalEntry(ctx, conn, entry); writeErr != nil {
			return writeErr
		}
		lastSent = entry.Seq
		return nil
	})
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry, ok := <-live:
			if !ok {
				return nil
			}
			if entry.Seq <= lastSent {
				continue
			}
			if err := writeJournalEntry(ctx, conn, entry); err != nil {
				return err
			}
			lastSent = entry.Seq
		}
	}
}

func writeJournalEntry(ctx context.Context, conn *websocket.Conn, entry events.JournalEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
