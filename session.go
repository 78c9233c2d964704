package draco

import "sync"

// User is the player identity the server knows this device as.
type User struct {
	ID       string
	DeviceID string
	Nickname string
	Avatar   int64
}

// Session is the mutable state shared by all calls of one client: the
// portal token returned with every response, the user and the client-info
// record sent with events. All access is serialized; the most recent
// response wins.
type Session struct {
	mu         sync.Mutex
	portal     string
	user       User
	clientInfo ClientInfo
}

// NewSession creates a session that reports info as its client-info record.
func NewSession(info ClientInfo) *Session {
	return &Session{clientInfo: info}
}

// Portal returns the current portal token.
func (s *Session) Portal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portal
}

// SetPortal replaces the portal token. Empty values are ignored since the
// server omits the header when the token does not change.
func (s *Session) SetPortal(portal string) {
	if portal == "" {
		return
	}
	s.mu.Lock()
	s.portal = portal
	s.mu.Unlock()
}

func (s *Session) User() User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// UpdateUser applies fn to the user under the session lock.
func (s *Session) UpdateUser(fn func(u *User)) {
	s.mu.Lock()
	fn(&s.user)
	s.mu.Unlock()
}

func (s *Session) ClientInfo() ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientInfo
}

// UpdateClientInfo applies fn to the client-info record under the session
// lock.
func (s *Session) UpdateClientInfo(fn func(info *ClientInfo)) {
	s.mu.Lock()
	fn(&s.clientInfo)
	s.mu.Unlock()
}
