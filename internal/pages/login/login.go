// Package login is the sign-in page.
package login

import (
	"conduit/internal/api"
	"conduit/internal/fetch"
	"conduit/internal/form"
	"conduit/internal/route"
	"conduit/internal/runtime"
	"conduit/internal/session"
)

var rules = []form.Rule[api.LoginField]{
	{Key: api.LoginEmail, Name: "email", Checks: []form.Check{form.NotBlank("email can't be blank")}},
	{Key: api.LoginPassword, Name: "password", Checks: []form.Check{form.NotBlank("password can't be blank")}},
}

// Model is the state of the login page.
type Model struct {
	client   *api.Client
	session  session.Session
	form     form.Form[api.LoginField]
	problems []form.Problem
	serial   int
}

// Msg is a message handled by the login page.
type Msg interface{ isMsg() }

// SubmittedForm asks to log in with the current field values.
type SubmittedForm struct{}

// FieldChanged carries one edit of a form field.
type FieldChanged struct {
	Key   api.LoginField
	Value string
}

// CompletedLogin is the answer to a login request.
type CompletedLogin struct {
	Result api.AuthResult
}

func (SubmittedForm) isMsg()  {}
func (FieldChanged) isMsg()   {}
func (CompletedLogin) isMsg() {}

// Init returns an empty page. It orders nothing.
func Init(client *api.Client, s session.Session) *Model {
	return &Model{
		client:  client,
		session: s,
		form: form.New(
			form.Field[api.LoginField]{Key: api.LoginEmail},
			form.Field[api.LoginField]{Key: api.LoginPassword},
		),
	}
}

func (m *Model) Session() session.Session        { return m.session }
func (m *Model) Form() form.Form[api.LoginField] { return m.form }

// Problems returns a copy of the problems currently shown.
func (m *Model) Problems() []form.Problem {
	return append([]form.Problem(nil), m.problems...)
}

func (m *Model) Update(msg Msg, orders *runtime.Orders[Msg]) {
	switch msg := msg.(type) {
	case SubmittedForm:
		valid, problems := m.form.Trim().Validate(rules)
		if len(problems) > 0 {
			m.problems = problems
			return
		}
		m.problems = nil
		m.form.SetSubmitting(true)
		m.serial++
		orders.Perform(runtime.Map(api.Login(m.client, valid, m.serial), func(r api.AuthResult) Msg {
			return CompletedLogin{Result: r}
		}))

	case FieldChanged:
		m.form.Upsert(form.Field[api.LoginField]{Key: msg.Key, Value: msg.Value})

	case CompletedLogin:
		// a newer submission owns the form
		if msg.Result.Serial != m.serial {
			return
		}
		m.form.SetSubmitting(false)
		if msg.Result.Err != nil {
			m.problems = form.ServerErrors(fetch.Messages(msg.Result.Err))
			return
		}
		orders.SendGlobal(session.LoggedIn(msg.Result.Viewer))
	}
}

// HandleGlobal adopts a session change and leaves the page once logged in.
func (m *Model) HandleGlobal(g session.GlobalMsg, s session.Session, orders *runtime.Orders[Msg]) {
	switch g.(type) {
	case session.SessionChanged:
		m.session = s
		if !s.IsGuest() {
			orders.GoTo(route.ToHome())
		}
	}
}
