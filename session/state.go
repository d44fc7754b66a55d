package session

// State is the controller's authentication state.
type State int

const (
	// Anonymous means no session exists.
	Anonymous State = iota
	// Authenticating means a login is in flight.
	Authenticating
	// Authenticated means a full session (tokens + profile) is held.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}
