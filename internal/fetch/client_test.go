package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	"conduit/internal/models"
	"conduit/internal/runtime"
	"conduit/internal/session"
)

type greeting struct {
	Hello string `json:"hello"`
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthorizationHeader(t *testing.T) {
	guest := NewRequest("http://example.com", session.Guest())
	if got := guest.Header.Get("Authorization"); got != "" {
		t.Fatalf("guest request carries Authorization %q", got)
	}

	v, err := models.NewViewer("jake", "abc", nil)
	if err != nil {
		t.Fatalf("NewViewer: %v", err)
	}
	auth := NewRequest("http://example.com", session.Authenticated(v))
	if got := auth.Header.Get("Authorization"); got != "Token abc" {
		t.Fatalf("Authorization = %q, want %q", got, "Token abc")
	}
	if auth.Timeout != 5000*time.Millisecond {
		t.Fatalf("Timeout = %s", auth.Timeout)
	}
}

func TestHeadersReachServer(t *testing.T) {
	var gotAuth, gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get("X-Request-Id")
		_, _ = w.Write([]byte(`{"hello":"world"}`))
	}))
	defer srv.Close()

	v, _ := models.NewViewer("jake", "abc", nil)
	if _, err := Send(context.Background(), NewClient(nil, nil), NewRequest(srv.URL, session.Authenticated(v)), JSON[greeting]); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAuth != "Token abc" || gotID == "" {
		t.Fatalf("server saw Authorization %q, X-Request-Id %q", gotAuth, gotID)
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		kind     Kind
		messages []string
	}{
		{"success", 200, `{"hello":"world"}`, 0, nil},
		{"bad success body", 200, `{"hello":`, DataError, []string{"Data error"}},
		{"server errors", 422, `{"errors":{"email":["can't be blank"]}}`, ServerError, []string{"email can't be blank"}},
		{"undecodable error body", 500, `<html>oops</html>`, DataError, []string{"Data error"}},
		{"error body without errors", 404, `{"message":"not found"}`, DataError, []string{"Data error"}},
	}
	for _, tt := range tests {
		srv := serve(t, tt.status, tt.body)
		v, err := Send(context.Background(), NewClient(nil, nil), NewRequest(srv.URL, session.Guest()), JSON[greeting])
		if tt.kind == 0 {
			if err != nil || v.Hello != "world" {
				t.Fatalf("%s: got %+v, %v", tt.name, v, err)
			}
			continue
		}
		if KindOf(err) != tt.kind {
			t.Fatalf("%s: kind = %v (%v), want %v", tt.name, KindOf(err), err, tt.kind)
		}
		if got := Messages(err); !reflect.DeepEqual(got, tt.messages) {
			t.Fatalf("%s: messages = %q, want %q", tt.name, got, tt.messages)
		}
	}
}

func TestConnectionFailureIsRequestError(t *testing.T) {
	srv := serve(t, 200, `{}`)
	url := srv.URL
	srv.Close()

	_, err := Send(context.Background(), NewClient(nil, nil), NewRequest(url, session.Guest()), JSON[greeting])
	if KindOf(err) != RequestError {
		t.Fatalf("got %v, want RequestError", err)
	}
	if got := Messages(err); !reflect.DeepEqual(got, []string{"Request error"}) {
		t.Fatalf("messages = %q", got)
	}
}

func TestTimeoutIsRequestError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	req := NewRequest(srv.URL, session.Guest())
	req.Timeout = 50 * time.Millisecond
	_, err := Send(context.Background(), NewClient(nil, nil), req, JSON[greeting])
	if KindOf(err) != RequestError {
		t.Fatalf("got %v, want RequestError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("timeout error should wrap context.DeadlineExceeded, got %v", err)
	}
}

func TestServerErrorsKeepFieldOrder(t *testing.T) {
	body := `{"errors":{"username":["has already been taken"],"email":["is invalid","is too long"],"password":["is too short"]}}`
	got, err := DecodeServerErrors([]byte(body))
	if err != nil {
		t.Fatalf("DecodeServerErrors: %v", err)
	}
	want := []string{
		"username has already been taken",
		"email is invalid, is too long",
		"password is too short",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDecodeServerErrorsRejects(t *testing.T) {
	for _, body := range []string{
		``,
		`[]`,
		`{"errors":null}`,
		`{"errors":{"email":"not a list"}}`,
		`{"errors":{"email":[1]}}`,
		`{"errors":{"email":null}}`,
		`{"errors":{}} trailing`,
		`{"errors":{}}}`,
	} {
		if _, err := DecodeServerErrors([]byte(body)); err == nil {
			t.Fatalf("DecodeServerErrors(%q) succeeded", body)
		}
	}
}

func TestTaskProducesOneMessage(t *testing.T) {
	srv := serve(t, 200, `{"hello":"there"}`)
	type result struct {
		hello string
		err   error
	}
	cmd := Task(NewClient(nil, nil), NewRequest(srv.URL, session.Guest()), JSON[greeting], func(g greeting, err error) result {
		return result{hello: g.Hello, err: err}
	})
	if got := cmd(context.Background()); got.err != nil || got.hello != "there" {
		t.Fatalf("cmd() = %+v", got)
	}
}

func TestNullFieldMessagesAreDataError(t *testing.T) {
	srv := serve(t, 422, `{"errors":{"email":null}}`)
	_, err := Send(context.Background(), NewClient(nil, nil), NewRequest(srv.URL, session.Guest()), JSON[greeting])
	if KindOf(err) != DataError {
		t.Fatalf("got %v, want DataError", err)
	}
}

type step struct {
	start bool
	err   error
}

// oneFetch dispatches cmd on the start message and records the result.
type oneFetch struct {
	cmd  runtime.Cmd[step]
	done []step
}

func (o *oneFetch) Update(m step, orders *runtime.Orders[step]) {
	if m.start {
		orders.Perform(o.cmd)
		return
	}
	o.done = append(o.done, m)
}

func TestEffectSerialReachesServer(t *testing.T) {
	var (
		mu  sync.Mutex
		got string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = r.Header.Get(EffectSerialHeader)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"hello":"world"}`))
	}))
	defer srv.Close()

	app := &oneFetch{cmd: Task(NewClient(nil, nil), NewRequest(srv.URL, session.Guest()), JSON[greeting], func(_ greeting, err error) step {
		return step{err: err}
	})}
	s := runtime.NewScheduler[step](app, runtime.Options{})
	s.Send(step{start: true})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Settle(ctx); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if len(app.done) != 1 || app.done[0].err != nil {
		t.Fatalf("results = %+v", app.done)
	}
	mu.Lock()
	defer mu.Unlock()
	if n, err := strconv.Atoi(got); err != nil || n <= 0 {
		t.Fatalf("%s = %q, want a positive serial", EffectSerialHeader, got)
	}
}
