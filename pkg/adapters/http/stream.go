package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
)

// StreamManager fans session diffs out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	last        map[string]domain.Session

	logger *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		last:        make(map[string]domain.Session),
		logger:      logging.NewNop(),
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Publish records sess and broadcasts its diff against the previous snapshot.
// It is registered as a session.Hub listener.
func (sm *StreamManager) Publish(sess domain.Session) {
	sm.mu.Lock()
	prev, seen := sm.last[sess.ID]
	sm.last[sess.ID] = *sess.Clone()
	sm.mu.Unlock()

	var diff *domain.SessionDiff
	if seen {
		diff = domain.Diff(&prev, &sess)
	} else {
		diff = domain.Diff(nil, &sess)
	}
	if diff == nil {
		return
	}
	payload, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("failed to encode session diff", "session_id", sess.ID, "err", err)
		return
	}
	sm.Broadcast(sess.ID, string(payload))
}

// Forget drops the stored snapshot of a deleted session. It is registered as a
// session.Hub delete listener.
func (sm *StreamManager) Forget(sessionID string) {
	sm.mu.Lock()
	delete(sm.last, sessionID)
	sm.mu.Unlock()
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming not supported"))
		return
	}

	q := r.URL.Query()
	sessionID := q.Get("session_id")
	current, err := s.Hub.Get(r.Context(), sessionID)
	if err != nil {
		s.fail(w, err)
		return
	}

	var watchList []string
	if watch := q.Get("watch"); watch != "" {
		for _, field := range strings.Split(watch, ",") {
			if field = strings.TrimSpace(field); field != "" {
				watchList = append(watchList, field)
			}
		}
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s.Logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if snapshot, err := json.Marshal(domain.Diff(nil, &current)); err == nil {
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// watched reports whether a diff touches any of the watched fields.
func watched(msg string, fields []string) bool {
	var diff domain.SessionDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch field {
		case "index":
			if diff.Index != nil {
				return true
			}
		case "playing":
			if diff.Playing != nil {
				return true
			}
		case "speed":
			if diff.Speed != nil {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		case "scenario":
			if diff.Scenario != nil || diff.Total != nil {
				return true
			}
		}
	}
	return false
}
