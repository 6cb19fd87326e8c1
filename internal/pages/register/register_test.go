package register

import (
	"context"
	"net/http/httptest"
	"reflect"
	"testing"

	"conduit/internal/api"
	"conduit/internal/fetch"
	"conduit/internal/form"
	"conduit/internal/runtime"
	"conduit/internal/session"
	"conduit/internal/stub"
)

func newPage(t *testing.T) (*Model, *stub.Server) {
	t.Helper()
	s := stub.NewServer(nil)
	srv := httptest.NewServer(stub.NewRouter(s))
	t.Cleanup(srv.Close)
	return Init(api.NewClient(srv.URL, fetch.NewClient(srv.Client(), nil)), session.Guest()), s
}

func fill(m *Model, username, email, password string) {
	var orders runtime.Orders[Msg]
	m.Update(FieldChanged{Key: api.RegisterUsername, Value: username}, &orders)
	m.Update(FieldChanged{Key: api.RegisterEmail, Value: email}, &orders)
	m.Update(FieldChanged{Key: api.RegisterPassword, Value: password}, &orders)
}

func TestShortPasswordRejectedLocally(t *testing.T) {
	m, _ := newPage(t)
	fill(m, "jake", "", "abc")

	var orders runtime.Orders[Msg]
	m.Update(SubmittedForm{}, &orders)
	if !orders.Empty() {
		t.Fatalf("invalid form ordered cmds")
	}
	want := []form.Problem{
		form.InvalidEntry("email", "email can't be blank"),
		form.InvalidEntry("password", "password must be at least 6 characters long"),
	}
	if !reflect.DeepEqual(m.Problems(), want) {
		t.Fatalf("problems = %v, want %v", m.Problems(), want)
	}
}

func TestRegisterCreatesSession(t *testing.T) {
	m, _ := newPage(t)
	fill(m, "jake", "jake@jake.jake", "jakejake")

	var orders runtime.Orders[Msg]
	m.Update(SubmittedForm{}, &orders)
	if len(orders.Cmds()) != 1 {
		t.Fatalf("cmds = %d", len(orders.Cmds()))
	}
	var next runtime.Orders[Msg]
	m.Update(orders.Cmds()[0](context.Background()), &next)
	if len(next.Globals()) != 1 {
		t.Fatalf("globals = %v, problems = %v", next.Globals(), m.Problems())
	}
}

func TestTakenUsernameSurfacesServerError(t *testing.T) {
	m, s := newPage(t)
	if _, err := s.AddUser("jake", "other@jake.jake", "jakejake"); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	fill(m, "jake", "jake@jake.jake", "jakejake")

	var orders runtime.Orders[Msg]
	m.Update(SubmittedForm{}, &orders)
	var next runtime.Orders[Msg]
	m.Update(orders.Cmds()[0](context.Background()), &next)

	want := []form.Problem{form.ServerError("username has already been taken")}
	if !reflect.DeepEqual(m.Problems(), want) {
		t.Fatalf("problems = %v, want %v", m.Problems(), want)
	}
	if m.Form().Submitting() {
		t.Fatalf("form still submitting")
	}
}
