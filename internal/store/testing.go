package store

import "time"

// SessionTTL is a test helper that reports the remaining lifetime of a stored
// session when using the in-memory store.
func SessionTTL(s SessionStore, userID, deviceType string) time.Duration {
	mem, ok := s.(*memorySessionStore)
	if !ok {
		return 0
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	entry, ok := mem.entries[sessionKey(userID, deviceType)]
	if !ok {
		return 0
	}
	return time.Until(entry.expiresAt)
}

// ExpireSession is a test helper that force-expires a stored session when
// using the in-memory store.
func ExpireSession(s SessionStore, userID, deviceType string) {
	mem, ok := s.(*memorySessionStore)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	delete(mem.entries, sessionKey(userID, deviceType))
}
