package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"conduit/internal/api"
	"conduit/internal/fetch"
	"conduit/internal/files"
	"conduit/internal/models"
	"conduit/internal/pages/login"
	"conduit/internal/pages/profile"
	"conduit/internal/route"
	"conduit/internal/runtime"
	"conduit/internal/session"
	"conduit/internal/stub"
)

type harness struct {
	app     *Model
	sched   *runtime.Scheduler[Msg]
	storage *files.MemoryStorage
}

func newHarness(t *testing.T, handler http.Handler) *harness {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	storage := files.NewMemoryStorage()
	sessions, err := session.NewManager(files.NewViewerStore(storage), session.Options{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	h := &harness{
		app:     New(sessions, api.NewClient(srv.URL, fetch.NewClient(srv.Client(), nil)), nil),
		storage: storage,
	}
	h.sched = runtime.NewScheduler[Msg](h.app, runtime.Options{
		Navigate: func(r route.Route) { h.sched.Send(RouteChanged{Route: r}) },
	})
	return h
}

func (h *harness) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.sched.Settle(ctx); err != nil {
		t.Fatalf("Settle: %v", err)
	}
}

func (h *harness) login(email, password string) {
	h.sched.Send(RouteChanged{Route: route.ToLogin()})
	h.sched.Send(LoginMsg{Msg: login.FieldChanged{Key: api.LoginEmail, Value: email}})
	h.sched.Send(LoginMsg{Msg: login.FieldChanged{Key: api.LoginPassword, Value: password}})
	h.sched.Send(LoginMsg{Msg: login.SubmittedForm{}})
}

func TestLoginPersistsViewer(t *testing.T) {
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"username":"jake","token":"abc","image":null}`))
	}))
	h.login("jake@jake.jake", "jakejake")
	h.settle(t)

	v, ok := h.app.Session().Viewer()
	if !ok {
		t.Fatalf("session = %s, want authenticated", h.app.Session())
	}
	if v.Username() != "jake" || v.Avatar.Src() != models.DefaultAvatarURL {
		t.Fatalf("viewer = %+v", v)
	}

	raw, found, err := h.storage.GetItem(files.StorageKey)
	if err != nil || !found {
		t.Fatalf("stored record: found=%v err=%v", found, err)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("stored record %q: %v", raw, err)
	}
	if rec["username"] != "jake" || rec["token"] != "abc" || rec["image"] != nil {
		t.Fatalf("stored record = %s", raw)
	}

	if h.app.Route() != route.ToHome() {
		t.Fatalf("route = %s, want home", h.app.Route())
	}
	if h.app.Register().Session().IsGuest() {
		t.Fatalf("register page did not receive the session")
	}
}

func TestLogoutClearsStorage(t *testing.T) {
	s := stub.NewServer(nil)
	if _, err := s.AddUser("jake", "jake@jake.jake", "jakejake"); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	h := newHarness(t, stub.NewRouter(s))
	h.login("jake@jake.jake", "jakejake")
	h.settle(t)
	if h.app.Session().IsGuest() {
		t.Fatalf("login failed: %v", h.app.Login().Problems())
	}

	h.sched.Send(LogoutRequested{})
	h.settle(t)
	if !h.app.Session().IsGuest() || !h.app.Login().Session().IsGuest() {
		t.Fatalf("session after logout = %s", h.app.Session())
	}
	if _, found, _ := h.storage.GetItem(files.StorageKey); found {
		t.Fatalf("logout left the viewer in storage")
	}
	if h.app.Route() != route.ToHome() {
		t.Fatalf("logout navigated to %s", h.app.Route())
	}
}

func TestProfileRouteLoadsFeed(t *testing.T) {
	s := stub.NewServer(nil)
	for i := 0; i < 3; i++ {
		s.AddArticle(stub.Article{Slug: "post-" + string(rune('a'+i)), Author: "jake"})
	}
	h := newHarness(t, stub.NewRouter(s))

	h.sched.Send(RouteChanged{Route: route.ToProfile("jake")})
	h.settle(t)

	p := h.app.Profile()
	if p == nil || p.Status() != profile.Loaded || p.Feed().Total != 3 {
		t.Fatalf("profile page = %+v", p)
	}

	h.sched.Send(ProfileMsg{Msg: profile.TabSelected{Tab: models.FavoritedArticles}})
	h.settle(t)
	if p.Tab() != models.FavoritedArticles || p.Feed().Total != 0 {
		t.Fatalf("favorited tab total = %d", p.Feed().Total)
	}
}

func TestOpenProfileLoadsOnce(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
	)
	router := stub.NewRouter(stub.NewServer(nil))
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		router.ServeHTTP(w, r)
	}))

	h.sched.Send(OpenProfile{Username: "jake", Tab: models.FavoritedArticles, Page: 2})
	h.settle(t)

	mu.Lock()
	defer mu.Unlock()
	if len(queries) != 1 || queries[0] != "favorited=jake&limit=5&offset=5" {
		t.Fatalf("requests = %q", queries)
	}
	p := h.app.Profile()
	if h.app.Route() != route.ToProfile("jake") || p.Tab() != models.FavoritedArticles || p.Page() != 2 || p.Status() != profile.Loaded {
		t.Fatalf("route = %s, profile = %s page %d %s", h.app.Route(), p.Tab(), p.Page(), p.Status())
	}
}

func TestRestoredSessionReachesPages(t *testing.T) {
	storage := files.NewMemoryStorage()
	v, _ := models.NewViewer("jake", "abc", nil)
	if err := files.NewViewerStore(storage).Store(v); err != nil {
		t.Fatalf("Store: %v", err)
	}
	sessions, err := session.NewManager(files.NewViewerStore(storage), session.Options{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	a := New(sessions, api.NewClient("http://unused.invalid", fetch.NewClient(nil, nil)), nil)
	if a.Login().Session().IsGuest() || a.Register().Session().IsGuest() {
		t.Fatalf("pages did not start from the restored session")
	}
}
