package models

import "errors"

// DefaultAvatarURL is shown for viewers and authors without an image.
const DefaultAvatarURL = "https://static.productionready.io/images/smiley-cyrus.jpg"

var (
	ErrEmptyUsername  = errors.New("username must not be empty")
	ErrEmptyAuthToken = errors.New("auth token must not be empty")
	ErrEmptySlug      = errors.New("slug must not be empty")
)

// Username is a non-empty user handle.
type Username string

// ParseUsername narrows a raw string to a Username.
func ParseUsername(s string) (Username, error) {
	if s == "" {
		return "", ErrEmptyUsername
	}
	return Username(s), nil
}

func (u Username) String() string { return string(u) }

// Credentials identify an authenticated user to the API.
type Credentials struct {
	username  Username
	authToken string
}

// NewCredentials requires both fields to be non-empty.
func NewCredentials(username, authToken string) (Credentials, error) {
	u, err := ParseUsername(username)
	if err != nil {
		return Credentials{}, err
	}
	if authToken == "" {
		return Credentials{}, ErrEmptyAuthToken
	}
	return Credentials{username: u, authToken: authToken}, nil
}

func (c Credentials) Username() Username { return c.username }
func (c Credentials) AuthToken() string  { return c.authToken }

// Avatar is an optional profile image.
type Avatar struct {
	imageURL *string
}

// NewAvatar copies url so the avatar stays immutable.
func NewAvatar(url *string) Avatar {
	if url == nil {
		return Avatar{}
	}
	u := *url
	return Avatar{imageURL: &u}
}

// URL returns the stored image url, if any.
func (a Avatar) URL() (string, bool) {
	if a.imageURL == nil {
		return "", false
	}
	return *a.imageURL, true
}

// Src returns the image to display, falling back to the default avatar.
func (a Avatar) Src() string {
	if a.imageURL == nil || *a.imageURL == "" {
		return DefaultAvatarURL
	}
	return *a.imageURL
}

// Viewer is the logged-in user.
type Viewer struct {
	Avatar      Avatar
	Credentials Credentials
}

// NewViewer builds a Viewer from raw record fields.
func NewViewer(username, token string, image *string) (Viewer, error) {
	creds, err := NewCredentials(username, token)
	if err != nil {
		return Viewer{}, err
	}
	return Viewer{Avatar: NewAvatar(image), Credentials: creds}, nil
}

func (v Viewer) Username() Username { return v.Credentials.Username() }
