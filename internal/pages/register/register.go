// Package register is the sign-up page.
package register

import (
	"conduit/internal/api"
	"conduit/internal/fetch"
	"conduit/internal/form"
	"conduit/internal/route"
	"conduit/internal/runtime"
	"conduit/internal/session"
)

// MinPasswordLength is the shortest password the page submits.
const MinPasswordLength = 6

var rules = []form.Rule[api.RegisterField]{
	{Key: api.RegisterUsername, Name: "username", Checks: []form.Check{form.NotBlank("username can't be blank")}},
	{Key: api.RegisterEmail, Name: "email", Checks: []form.Check{form.NotBlank("email can't be blank")}},
	{Key: api.RegisterPassword, Name: "password", Checks: []form.Check{
		form.NotBlank("password can't be blank"),
		form.MinLength(MinPasswordLength, "password must be at least 6 characters long"),
	}},
}

type Model struct {
	client   *api.Client
	session  session.Session
	form     form.Form[api.RegisterField]
	problems []form.Problem
	serial   int
}

type Msg interface{ isMsg() }

type SubmittedForm struct{}

type FieldChanged struct {
	Key   api.RegisterField
	Value string
}

type CompletedRegister struct {
	Result api.AuthResult
}

func (SubmittedForm) isMsg()     {}
func (FieldChanged) isMsg()      {}
func (CompletedRegister) isMsg() {}

func Init(client *api.Client, s session.Session) *Model {
	return &Model{
		client:  client,
		session: s,
		form: form.New(
			form.Field[api.RegisterField]{Key: api.RegisterUsername},
			form.Field[api.RegisterField]{Key: api.RegisterEmail},
			form.Field[api.RegisterField]{Key: api.RegisterPassword},
		),
	}
}

func (m *Model) Session() session.Session           { return m.session }
func (m *Model) Form() form.Form[api.RegisterField] { return m.form }
func (m *Model) Problems() []form.Problem           { return append([]form.Problem(nil), m.problems...) }

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
		orders.Perform(runtime.Map(api.Register(m.client, valid, m.serial), func(r api.AuthResult) Msg {
			return CompletedRegister{Result: r}
		}))

	case FieldChanged:
		m.form.Upsert(form.Field[api.RegisterField]{Key: msg.Key, Value: msg.Value})

	case CompletedRegister:
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

func (m *Model) HandleGlobal(g session.GlobalMsg, s session.Session, orders *runtime.Orders[Msg]) {
	if _, ok := g.(session.SessionChanged); ok {
		m.session = s
		if !s.IsGuest() {
			orders.GoTo(route.ToHome())
		}
	}
}
