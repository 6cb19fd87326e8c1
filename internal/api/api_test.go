package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"conduit/internal/api"
	"conduit/internal/fetch"
	"conduit/internal/form"
	"conduit/internal/models"
	"conduit/internal/session"
	"conduit/internal/stub"
)

func newStub(t *testing.T) (*stub.Server, *api.Client) {
	t.Helper()
	s := stub.NewServer(nil)
	srv := httptest.NewServer(stub.NewRouter(s))
	t.Cleanup(srv.Close)
	return s, api.NewClient(srv.URL+"/", fetch.NewClient(srv.Client(), nil))
}

func TestFeedURL(t *testing.T) {
	got := api.FeedURL("https://conduit.example", "jake", models.MyArticles, 2)
	if want := "https://conduit.example/api/articles?author=jake&limit=5&offset=5"; got != want {
		t.Fatalf("FeedURL = %q, want %q", got, want)
	}
	got = api.FeedURL("https://conduit.example", "jake", models.FavoritedArticles, models.FirstPage)
	if want := "https://conduit.example/api/articles?favorited=jake&limit=5&offset=0"; got != want {
		t.Fatalf("FeedURL = %q, want %q", got, want)
	}
}

func TestDecodeFeed(t *testing.T) {
	body := `{"articles":[{"slug":"how-to","title":"How to","description":"d","body":"b","tagList":null,
		"createdAt":"2024-02-01T10:00:00Z","updatedAt":"2024-02-01T10:00:00Z","favorited":false,"favoritesCount":3,
		"author":{"username":"jake","bio":null,"image":null,"following":false}}],"articlesCount":6}`
	list, err := api.DecodeFeed([]byte(body))
	if err != nil {
		t.Fatalf("DecodeFeed: %v", err)
	}
	if list.Total != 6 || len(list.Values) != 1 {
		t.Fatalf("list = %+v", list)
	}
	a := list.Values[0]
	if a.Slug != "how-to" || a.Author.Username != "jake" || a.Author.Avatar.Src() != models.DefaultAvatarURL || a.FavoritesCount != 3 {
		t.Fatalf("article = %+v", a)
	}
	if !a.CreatedAt.Equal(time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("CreatedAt = %s", a.CreatedAt)
	}
}

func TestDecodeFeedRejects(t *testing.T) {
	article := func(createdAt string) string {
		return `{"slug":"s","title":"t","description":"","body":"","tagList":[],"createdAt":"` + createdAt +
			`","updatedAt":"2024-02-01T10:00:00Z","favorited":false,"favoritesCount":0,"author":{"username":"jake","bio":null,"image":null,"following":false}}`
	}
	for name, body := range map[string]string{
		"missing count":    `{"articles":[]}`,
		"missing articles": `{"articlesCount":0}`,
		"bad timestamp":    `{"articles":[` + article("yesterday") + `],"articlesCount":1}`,
		"count too small":  `{"articles":[` + article("2024-02-01T10:00:00Z") + `],"articlesCount":0}`,
	} {
		if _, err := api.DecodeFeed([]byte(body)); err == nil {
			t.Fatalf("%s: DecodeFeed succeeded", name)
		}
	}
}

func TestDecodeViewerAcceptsBothShapes(t *testing.T) {
	for _, body := range []string{
		`{"user":{"email":"jake@jake.jake","username":"jake","token":"abc","image":null,"bio":null}}`,
		`{"username":"jake","token":"abc","image":null}`,
	} {
		v, err := api.DecodeViewer([]byte(body))
		if err != nil || v.Username() != "jake" || v.Credentials.AuthToken() != "abc" {
			t.Fatalf("DecodeViewer(%s) = %+v, %v", body, v, err)
		}
	}
	if _, err := api.DecodeViewer([]byte(`{"user":{"username":"jake"}}`)); err == nil {
		t.Fatalf("record without token accepted")
	}
}

func TestLoadFeedAgainstStub(t *testing.T) {
	s, c := newStub(t)
	for i := 0; i < 7; i++ {
		s.AddArticle(stub.Article{Slug: "post-" + string(rune('a'+i)), Author: "jake"})
	}

	res := api.LoadFeed(c, session.Guest(), "jake", models.MyArticles, 2, 9)(context.Background())
	if res.Err != nil {
		t.Fatalf("LoadFeed: %v", res.Err)
	}
	if res.Username != "jake" || res.Serial != 9 || res.List.Total != 7 || len(res.List.Values) != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestLoadFeedKeepsUsernameOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := api.NewClient(srv.URL, fetch.NewClient(nil, nil))

	res := api.LoadFeed(c, session.Guest(), "jake", models.MyArticles, models.FirstPage, 1)(context.Background())
	if res.Username != "jake" || fetch.KindOf(res.Err) != fetch.DataError {
		t.Fatalf("result = %+v", res)
	}
}

func validLogin(t *testing.T, email, password string) form.Valid[api.LoginField] {
	t.Helper()
	f := form.New(
		form.Field[api.LoginField]{Key: api.LoginEmail, Value: email},
		form.Field[api.LoginField]{Key: api.LoginPassword, Value: password},
	)
	v, problems := f.Validate(nil)
	if len(problems) > 0 {
		t.Fatalf("problems: %v", problems)
	}
	return v
}

func TestLoginAgainstStub(t *testing.T) {
	s, c := newStub(t)
	if _, err := s.AddUser("jake", "jake@jake.jake", "jakejake"); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	res := api.Login(c, validLogin(t, "jake@jake.jake", "jakejake"), 4)(context.Background())
	if res.Err != nil || res.Serial != 4 || res.Viewer.Username() != "jake" {
		t.Fatalf("result = %+v", res)
	}

	res = api.Login(c, validLogin(t, "jake@jake.jake", "nope"), 5)(context.Background())
	if got := fetch.Messages(res.Err); len(got) != 1 || got[0] != "email or password is invalid" {
		t.Fatalf("messages = %q", got)
	}
}

func TestUnvalidatedFormsNeverReachServer(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := api.NewClient(srv.URL, fetch.NewClient(nil, nil))

	login := api.Login(c, form.Valid[api.LoginField]{}, 7)(context.Background())
	if !errors.Is(login.Err, form.ErrNotValidated) || login.Serial != 7 {
		t.Fatalf("login = %+v", login)
	}
	register := api.Register(c, form.Valid[api.RegisterField]{}, 8)(context.Background())
	if !errors.Is(register.Err, form.ErrNotValidated) || register.Serial != 8 {
		t.Fatalf("register = %+v", register)
	}
	if hits != 0 {
		t.Fatalf("server saw %d requests", hits)
	}
}
