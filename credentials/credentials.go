package credentials

import "encoding/json"

// Profile holds the subset of the backend user object the client caches with
// the session. It is fetched once per login and treated as opaque beyond the
// identifier used for membership and ownership checks.
type Profile struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// Session is the authenticated user's token pair plus the cached profile.
// A session with a present profile always carries both tokens; the absence
// of a session means anonymous.
type Session struct {
	Access  string
	Refresh string
	Profile *Profile
}

// Anonymous reports whether the session is absent or unusable.
func (s *Session) Anonymous() bool {
	return s == nil || s.Access == "" || s.Refresh == ""
}

// sessionRecord is the persisted shape: one flat JSON object holding the
// token pair alongside the profile fields, exactly as the backend login
// response plus the /users/me/ payload merge together.
type sessionRecord struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	ID       int64  `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

func encodeSession(s Session) ([]byte, error) {
	rec := sessionRecord{Access: s.Access, Refresh: s.Refresh}
	if s.Profile != nil {
		rec.ID = s.Profile.ID
		rec.Email = s.Profile.Email
		rec.Username = s.Profile.Username
	}
	return json.Marshal(rec)
}

func decodeSession(data []byte) (*Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	session := &Session{Access: rec.Access, Refresh: rec.Refresh}
	if rec.ID != 0 || rec.Email != "" {
		session.Profile = &Profile{ID: rec.ID, Email: rec.Email, Username: rec.Username}
	}
	return session, nil
}
