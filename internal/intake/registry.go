package intake

import (
	"sync"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/models"
)

// inboxSize bounds queued replies per session; replies beyond it are
// dropped rather than blocking the gateway read loop.
const inboxSize = 16

// Registry is the process-owned table of in-flight conversational
// sessions, keyed by private channel ID. Each entry is a single-consumer
// inbox owned by one session goroutine; entries are removed when the
// session completes or times out. Channels are never shared between
// sessions, so two concurrent applicants cannot interleave replies.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

type entry struct {
	ownerID uuid.UUID
	inbox   chan models.ChatMessage
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*entry)}
}

// Register claims a channel for a session owned by ownerID and returns
// the session's inbox plus a release function. Returns false if the
// channel already has a session.
func (r *Registry) Register(channelID, ownerID uuid.UUID) (inbox <-chan models.ChatMessage, release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[channelID]; exists {
		return nil, nil, false
	}
	e := &entry{ownerID: ownerID, inbox: make(chan models.ChatMessage, inboxSize)}
	r.sessions[channelID] = e
	release = func() {
		r.mu.Lock()
		if cur, exists := r.sessions[channelID]; exists && cur == e {
			delete(r.sessions, channelID)
		}
		r.mu.Unlock()
	}
	return e.inbox, release, true
}

// HasOwner reports whether ownerID currently has an active session.
func (r *Registry) HasOwner(ownerID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.sessions {
		if e.ownerID == ownerID {
			return true
		}
	}
	return false
}

// Len returns the number of in-flight sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Dispatch routes an inbound message to the session waiting on its
// channel. It returns true iff the message was addressed to a session
// channel and authored by the session owner; other authors' messages in
// the same channel (e.g. admins commenting) are not consumed.
func (r *Registry) Dispatch(msg models.ChatMessage) bool {
	r.mu.Lock()
	e := r.sessions[msg.ChannelID]
	r.mu.Unlock()
	if e == nil || e.ownerID != msg.AuthorID {
		return false
	}
	select {
	case e.inbox <- msg:
	default:
		// Inbox full: the session is still digesting earlier replies.
	}
	return true
}
