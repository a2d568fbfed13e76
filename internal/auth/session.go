package auth

// State is the sign-in lifecycle position of the Manager.
type State int

const (
	// StateIdle means no sign-in has been attempted yet.
	StateIdle State = iota
	// StateAuthenticating means a sign-in is in flight, possibly suspended
	// across a redirect handoff.
	StateAuthenticating
	// StateAuthenticated means a session is active.
	StateAuthenticated
	// StateUnauthenticated means sign-out or provider-side expiry cleared the session.
	StateUnauthenticated
	// StateError means the last sign-in failed terminally.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Session is the authenticated identity. At most one is active at a time per
// Manager; UserID is the only required field.
type Session struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Identity is what the provider reports about a signed-in user.
type Identity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

func sessionFromIdentity(id *Identity) *Session {
	return &Session{
		UserID:      id.UserID,
		DisplayName: id.DisplayName,
		Email:       id.Email,
		AvatarURL:   id.AvatarURL,
	}
}
