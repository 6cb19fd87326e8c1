// Package app is the root controller: it owns the session manager, routes page
// messages and broadcasts session changes to every page.
package app

import (
	"conduit/internal/api"
	"conduit/internal/models"
	"conduit/internal/pages/login"
	"conduit/internal/pages/profile"
	"conduit/internal/pages/register"
	"conduit/internal/route"
	"conduit/internal/runtime"
	"conduit/internal/session"
	"conduit/internal/utils"
)

// Msg is a message for the root controller.
type Msg interface{ isMsg() }

type LoginMsg struct{ Msg login.Msg }
type RegisterMsg struct{ Msg register.Msg }
type ProfileMsg struct{ Msg profile.Msg }

// LogoutRequested ends the session.
type LogoutRequested struct{}

// RouteChanged mounts the page for Route.
type RouteChanged struct{ Route route.Route }

// OpenProfile mounts the profile of Username on the given tab and page with a
// single load.
type OpenProfile struct {
	Username models.Username
	Tab      models.FeedTab
	Page     models.PageNumber
}

func (LoginMsg) isMsg()        {}
func (RegisterMsg) isMsg()     {}
func (ProfileMsg) isMsg()      {}
func (LogoutRequested) isMsg() {}
func (RouteChanged) isMsg()    {}
func (OpenProfile) isMsg()     {}

func wrapLogin(m login.Msg) Msg       { return LoginMsg{Msg: m} }
func wrapRegister(m register.Msg) Msg { return RegisterMsg{Msg: m} }
func wrapProfile(m profile.Msg) Msg   { return ProfileMsg{Msg: m} }

// Model is the state of the whole client. Only the page of the current route may
// navigate; every page receives session changes.
type Model struct {
	sessions *session.Manager
	client   *api.Client
	log      *utils.Logger
	route    route.Route

	login    *login.Model
	register *register.Model
	profile  *profile.Model
}

func New(sessions *session.Manager, client *api.Client, log *utils.Logger) *Model {
	if log == nil {
		log = utils.Discard()
	}
	s := sessions.Current()
	return &Model{
		sessions: sessions,
		client:   client,
		log:      log,
		route:    route.ToHome(),
		login:    login.Init(client, s),
		register: register.Init(client, s),
	}
}

func (m *Model) Session() session.Session  { return m.sessions.Current() }
func (m *Model) Route() route.Route        { return m.route }
func (m *Model) Login() *login.Model       { return m.login }
func (m *Model) Register() *register.Model { return m.register }

// Profile returns the profile page, or nil before any profile was visited.
func (m *Model) Profile() *profile.Model { return m.profile }

func (m *Model) Update(msg Msg, orders *runtime.Orders[Msg]) {
	switch msg := msg.(type) {
	case LoginMsg:
		var sub runtime.Orders[login.Msg]
		m.login.Update(msg.Msg, &sub)
		m.broadcast(forward(m.active(route.Login), &sub, wrapLogin, orders), orders)

	case RegisterMsg:
		var sub runtime.Orders[register.Msg]
		m.register.Update(msg.Msg, &sub)
		m.broadcast(forward(m.active(route.Register), &sub, wrapRegister, orders), orders)

	case ProfileMsg:
		if m.profile == nil {
			m.log.Warnf("app: profile message %T before any profile was visited", msg.Msg)
			return
		}
		var sub runtime.Orders[profile.Msg]
		m.profile.Update(msg.Msg, &sub)
		m.broadcast(forward(m.active(route.Profile), &sub, wrapProfile, orders), orders)

	case LogoutRequested:
		m.broadcast([]session.GlobalMsg{session.LoggedOut()}, orders)

	case RouteChanged:
		m.route = msg.Route
		m.log.Infof("app: route %s", m.route)
		if m.route.Kind == route.Profile {
			m.visitProfile(m.route.Username, profile.FeedRequested{}, orders)
		}

	case OpenProfile:
		m.route = route.ToProfile(msg.Username)
		m.log.Infof("app: route %s", m.route)
		m.visitProfile(msg.Username, profile.FeedOpened{Tab: msg.Tab, Page: msg.Page}, orders)
	}
}

// visitProfile points the profile page at username and hands it first, which is
// expected to start the load.
func (m *Model) visitProfile(username models.Username, first profile.Msg, orders *runtime.Orders[Msg]) {
	if m.profile == nil {
		m.profile = profile.Init(m.client, m.sessions.Current(), username)
	} else {
		m.profile.Visit(username)
	}
	var sub runtime.Orders[profile.Msg]
	m.profile.Update(first, &sub)
	m.broadcast(forward(true, &sub, wrapProfile, orders), orders)
}

func (m *Model) active(k route.Kind) bool { return m.route.Kind == k }

// broadcast applies each global message to the session manager, then hands the new
// session to every mounted page.
func (m *Model) broadcast(globals []session.GlobalMsg, orders *runtime.Orders[Msg]) {
	for len(globals) > 0 {
		g := globals[0]
		globals = globals[1:]

		s, err := m.sessions.Apply(g)
		if err != nil {
			m.log.Errorf("app: apply %T: %v", g, err)
		}

		var lo runtime.Orders[login.Msg]
		m.login.HandleGlobal(g, s, &lo)
		globals = append(globals, forward(m.active(route.Login), &lo, wrapLogin, orders)...)

		var ro runtime.Orders[register.Msg]
		m.register.HandleGlobal(g, s, &ro)
		globals = append(globals, forward(m.active(route.Register), &ro, wrapRegister, orders)...)

		if m.profile != nil {
			var po runtime.Orders[profile.Msg]
			m.profile.HandleGlobal(g, s, &po)
			globals = append(globals, forward(m.active(route.Profile), &po, wrapProfile, orders)...)
		}
	}
}

// forward moves a page's orders into orders. Navigation from a page that is not on
// screen is dropped.
func forward[A any](active bool, from *runtime.Orders[A], wrap func(A) Msg, orders *runtime.Orders[Msg]) []session.GlobalMsg {
	if active {
		return runtime.Forward(from, wrap, orders)
	}
	var hidden runtime.Orders[Msg]
	globals := runtime.Forward(from, wrap, &hidden)
	for _, c := range hidden.Cmds() {
		orders.Perform(c)
	}
	return globals
}
