package credentials

// Store persists the single session record and the locale preference in
// durable storage. Every method reads or writes the storage medium directly;
// there is no caching layer, so every reader observes the latest tokens.
type Store interface {
	// Save replaces the stored session.
	Save(session Session) error
	// Load returns the stored session, or nil when anonymous.
	Load() (*Session, error)
	// Clear removes the stored session. Clearing an absent session is a no-op.
	Clear() error
	// UpdateAccessToken swaps the access token in place. It is a silent
	// no-op when no session exists; security-sensitive callers must Load
	// first.
	UpdateAccessToken(token string) error

	// SaveLocale persists the last-used locale code.
	SaveLocale(code string) error
	// Locale returns the persisted locale code, or "" when never set.
	Locale() (string, error)
}
