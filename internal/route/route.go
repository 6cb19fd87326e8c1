// Package route names the navigation targets pages can ask for. Mapping URLs to pages
// belongs to the embedding application.
package route

import "conduit/internal/models"

type Kind int

const (
	Home Kind = iota
	Login
	Register
	Profile
)

type Route struct {
	Kind     Kind
	Username models.Username
}

func ToHome() Route     { return Route{Kind: Home} }
func ToLogin() Route    { return Route{Kind: Login} }
func ToRegister() Route { return Route{Kind: Register} }

func ToProfile(u models.Username) Route {
	return Route{Kind: Profile, Username: u}
}

// String returns the hash path of the route.
func (r Route) String() string {
	switch r.Kind {
	case Login:
		return "#/login"
	case Register:
		return "#/register"
	case Profile:
		return "#/profile/" + r.Username.String()
	default:
		return "#/"
	}
}
