package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/qret/pkg/domain"
)

// streamBuffer is the number of pending messages per subscriber.
const streamBuffer = 10

// StreamManager handles active SSE connections and turns every published
// snapshot into a diff against the previous one of the same session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	last        map[string]*domain.Snapshot
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		last:        make(map[string]*domain.Snapshot),
		logger:      logger,
	}
}

// Subscribe registers a listener for sessionID. The returned func
// unregisters it and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, streamBuffer)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of listeners of sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Publish records snap as the latest state of its session and broadcasts
// the diff to the previous one. The first publish of a session sends the
// full state. Nothing is sent when nothing changed, and a snapshot older
// than the recorded one is dropped.
func (sm *StreamManager) Publish(snap *domain.Snapshot) {
	if snap == nil {
		return
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	prev := sm.last[snap.SessionID]
	if prev != nil && snap.UpdatedAt.Before(prev.UpdatedAt) {
		sm.logger.Debug("StreamManager: stale snapshot dropped", "session_id", snap.SessionID)
		return
	}
	sm.last[snap.SessionID] = snap.Clone()

	diff := domain.Diff(prev, snap)
	if diff == nil {
		sm.logger.Debug("StreamManager: no diff", "session_id", snap.SessionID)
		return
	}
	payload, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("StreamManager: diff encode failed", "session_id", snap.SessionID, "error", err)
		return
	}
	sm.send(snap.SessionID, string(payload))
}

// Forget drops the remembered state of sessionID.
func (sm *StreamManager) Forget(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.last, sessionID)
}

// Broadcast sends msg to every listener of sessionID. Slow listeners whose
// buffer is full miss the message.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.send(sessionID, msg)
}

// send delivers msg to the listeners of sessionID. Callers hold sm.mu.
func (sm *StreamManager) send(sessionID string, msg string) {
	sm.logger.Debug("StreamManager: Broadcasting", "session_id", sessionID, "payload_size", len(msg))

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// parseWatch splits the comma separated watch filter. An empty filter keeps
// every message.
func parseWatch(raw string) []string {
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// wants reports whether the diff in msg touches one of the watched fields.
func wants(msg string, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	var diff domain.SnapshotDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch field {
		case "phase":
			if diff.Phase != nil {
				return true
			}
		case "transient":
			if diff.Transient != nil {
				return true
			}
		case "receipts":
			if diff.Receipts != nil {
				return true
			}
		case "return_items":
			if len(diff.ReturnItems) > 0 {
				return true
			}
		}
	}
	return false
}
