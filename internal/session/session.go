// Package session holds the authentication state of the client and the global messages
// that change it.
package session

import "conduit/internal/models"

// Session is either Guest or Authenticated. It is a value: copies never alias the
// viewer owned by the Manager.
type Session struct {
	viewer        models.Viewer
	authenticated bool
}

// Guest returns the unauthenticated session.
func Guest() Session { return Session{} }

// Authenticated returns a session for v.
func Authenticated(v models.Viewer) Session {
	return Session{viewer: v, authenticated: true}
}

// FromViewer maps nil to Guest and a viewer to Authenticated.
func FromViewer(v *models.Viewer) Session {
	if v == nil {
		return Guest()
	}
	return Authenticated(*v)
}

func (s Session) IsGuest() bool { return !s.authenticated }

// Viewer returns the logged-in viewer, if any.
func (s Session) Viewer() (models.Viewer, bool) {
	return s.viewer, s.authenticated
}

// AuthToken returns the viewer's token, if any.
func (s Session) AuthToken() (string, bool) {
	if !s.authenticated {
		return "", false
	}
	return s.viewer.Credentials.AuthToken(), true
}

func (s Session) String() string {
	if !s.authenticated {
		return "guest"
	}
	return "authenticated(" + s.viewer.Username().String() + ")"
}

// GlobalMsg is a message any page may emit to change state shared by all pages.
type GlobalMsg interface {
	isGlobalMsg()
}

// SessionChanged replaces the session. A nil Viewer logs out.
type SessionChanged struct {
	Viewer *models.Viewer
}

func (SessionChanged) isGlobalMsg() {}

// LoggedIn is a SessionChanged carrying v.
func LoggedIn(v models.Viewer) SessionChanged {
	return SessionChanged{Viewer: &v}
}

// LoggedOut is a SessionChanged to Guest.
func LoggedOut() SessionChanged {
	return SessionChanged{}
}
