package registry

import (
	"time"

	"github.com/cockroachdb/errors"
	sessionentity "github.com/veedubyou/instant-karaoke-be/src/shared/session/entity"
	"sync"
)

var SessionNotFound = errors.New("Session not found in the registry")

// Registry is the single owner of all live session records. Every write
// funnels through Update under one lock, which is what makes the
// worker/reader/cleanup interleaving safe: a worker whose session has been
// deleted gets SessionNotFound back and stops, rather than resurrecting the
// entry.
type Registry struct {
	mutex    sync.Mutex
	sessions map[string]*sessionentity.Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: map[string]*sessionentity.Session{},
	}
}

func (r *Registry) Add(session *sessionentity.Session) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.sessions[session.ID]; ok {
		return errors.Newf("Session ID collision: %s", session.ID)
	}

	r.sessions[session.ID] = session
	return nil
}

// Update applies a mutation to a live session. It never inserts: once a
// session has been deleted, updates for its ID fail permanently.
func (r *Registry) Update(sessionID string, mutate func(*sessionentity.Session)) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return errors.Wrapf(SessionNotFound, "No session for ID %s", sessionID)
	}

	mutate(session)
	return nil
}

// Has reports whether the session still exists. Workers consult this before
// persisting artifacts so a concurrent delete stops output early.
func (r *Registry) Has(sessionID string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, ok := r.sessions[sessionID]
	return ok
}

// View returns a deep copy of the session for readers.
func (r *Registry) View(sessionID string) (sessionentity.Session, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return sessionentity.Session{}, errors.Wrapf(SessionNotFound, "No session for ID %s", sessionID)
	}

	return session.Clone(), nil
}

// Delete removes the session record and returns a copy of it, so the caller
// can tear down the storage it owned. The registry entry disappears first;
// any in-flight worker write after this point fails with SessionNotFound.
func (r *Registry) Delete(sessionID string) (sessionentity.Session, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return sessionentity.Session{}, false
	}

	delete(r.sessions, sessionID)
	return session.Clone(), true
}

// ExpiredBefore returns copies of all sessions created strictly before the
// cutoff, for the cleanup sweep.
func (r *Registry) ExpiredBefore(cutoff time.Time) []sessionentity.Session {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	expired := []sessionentity.Session{}
	for _, session := range r.sessions {
		if session.CreatedAt.Before(cutoff) {
			expired = append(expired, session.Clone())
		}
	}

	return expired
}
