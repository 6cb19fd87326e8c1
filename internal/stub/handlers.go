package stub

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

type userResponse struct {
	User userJSON `json:"user"`
}

type userJSON struct {
	Email    string  `json:"email"`
	Token    string  `json:"token"`
	Username string  `json:"username"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

type authorJSON struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

type articleJSON struct {
	Slug           string     `json:"slug"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Body           string     `json:"body"`
	TagList        []string   `json:"tagList"`
	CreatedAt      string     `json:"createdAt"`
	UpdatedAt      string     `json:"updatedAt"`
	Favorited      bool       `json:"favorited"`
	FavoritesCount int        `json:"favoritesCount"`
	Author         authorJSON `json:"author"`
}

// fieldErrors keeps fields in insertion order when encoded.
type fieldErrors struct {
	keys []string
	msgs map[string][]string
}

func (e *fieldErrors) add(field, msg string) {
	if e.msgs == nil {
		e.msgs = make(map[string][]string)
	}
	if _, ok := e.msgs[field]; !ok {
		e.keys = append(e.keys, field)
	}
	e.msgs[field] = append(e.msgs[field], msg)
}

func (e *fieldErrors) empty() bool { return len(e.keys) == 0 }

func (e *fieldErrors) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteString(`{"errors":{`)
	for i, k := range e.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		msgs, err := json.Marshal(e.msgs[k])
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(msgs)
	}
	b.WriteString("}}")
	return []byte(b.String()), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, e *fieldErrors) {
	writeJSON(w, status, e)
}

// LoginHandler authenticates {"user":{"email","password"}}.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	var errs fieldErrors
	if req.User.Email == "" {
		errs.add("email", "can't be blank")
	}
	if req.User.Password == "" {
		errs.add("password", "can't be blank")
	}
	if !errs.empty() {
		writeErrors(w, http.StatusUnprocessableEntity, &errs)
		return
	}
	u, ok := s.authenticate(req.User.Email, req.User.Password)
	if !ok {
		errs.add("email or password", "is invalid")
		writeErrors(w, http.StatusUnprocessableEntity, &errs)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: toUserJSON(u)})
}

// RegisterHandler creates a user from {"user":{"username","email","password"}}.
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	var errs fieldErrors
	if req.User.Username == "" {
		errs.add("username", "can't be blank")
	} else if _, taken := s.byUsername(req.User.Username); taken {
		errs.add("username", "has already been taken")
	}
	if req.User.Email == "" {
		errs.add("email", "can't be blank")
	}
	if len(req.User.Password) < 6 {
		errs.add("password", "is too short (minimum is 6 characters)")
	}
	if !errs.empty() {
		writeErrors(w, http.StatusUnprocessableEntity, &errs)
		return
	}
	token, err := s.AddUser(req.User.Username, req.User.Email, req.User.Password)
	switch err {
	case nil:
	case ErrUsernameTaken:
		errs.add("username", "has already been taken")
	case ErrEmailTaken:
		errs.add("email", "has already been taken")
	default:
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	if !errs.empty() {
		writeErrors(w, http.StatusUnprocessableEntity, &errs)
		return
	}
	u, _ := s.byToken(token)
	s.log.Infof("stub: registered %s", u.Username)
	writeJSON(w, http.StatusCreated, userResponse{User: toUserJSON(u)})
}

// CurrentUserHandler returns the user owning the Authorization token.
func (s *Server) CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := s.viewer(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: toUserJSON(u)})
}

// ProfileHandler returns a public profile.
func (s *Server) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := s.byUsername(mux.Vars(r)["username"])
	if !ok {
		var errs fieldErrors
		errs.add("profile", "not found")
		writeErrors(w, http.StatusNotFound, &errs)
		return
	}
	writeJSON(w, http.StatusOK, map[string]authorJSON{"profile": toAuthorJSON(u)})
}

// ListArticlesHandler serves GET /api/articles?author=|favorited=&limit=&offset=.
func (s *Server) ListArticlesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), 20)
	if err != nil || limit < 0 {
		var errs fieldErrors
		errs.add("limit", "is invalid")
		writeErrors(w, http.StatusUnprocessableEntity, &errs)
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		var errs fieldErrors
		errs.add("offset", "is invalid")
		writeErrors(w, http.StatusUnprocessableEntity, &errs)
		return
	}
	viewer, _ := s.viewer(r)

	page, total := s.query(q.Get("author"), q.Get("favorited"), limit, offset)
	out := make([]articleJSON, 0, len(page))
	for _, a := range page {
		out = append(out, s.toArticleJSON(a, viewer))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"articles":      out,
		"articlesCount": total,
	})
}

func (s *Server) viewer(r *http.Request) (*user, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Token ")
	if !ok || token == "" {
		return nil, false
	}
	return s.byToken(token)
}

func (s *Server) toArticleJSON(a Article, viewer *user) articleJSON {
	author := authorJSON{Username: a.Author}
	if u, ok := s.byUsername(a.Author); ok {
		author = toAuthorJSON(u)
	}
	tags := a.TagList
	if tags == nil {
		tags = []string{}
	}
	return articleJSON{
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Description,
		Body:           a.Body,
		TagList:        tags,
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.UTC().Format(time.RFC3339),
		Favorited:      viewer != nil && contains(a.FavoritedBy, viewer.Username),
		FavoritesCount: len(a.FavoritedBy),
		Author:         author,
	}
}

func toUserJSON(u *user) userJSON {
	return userJSON{Email: u.Email, Token: u.Token, Username: u.Username, Bio: u.Bio, Image: u.Image}
}

func toAuthorJSON(u *user) authorJSON {
	return authorJSON{Username: u.Username, Bio: u.Bio, Image: u.Image}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
