package api

import (
	"context"
	"encoding/json"
	"net/http"

	"conduit/internal/fetch"
	"conduit/internal/form"
	"conduit/internal/models"
	"conduit/internal/runtime"
	"conduit/internal/session"
)

// LoginField keys the login form.
type LoginField int

const (
	LoginEmail LoginField = iota
	LoginPassword
)

// RegisterField keys the registration form.
type RegisterField int

const (
	RegisterUsername RegisterField = iota
	RegisterEmail
	RegisterPassword
)

// AuthResult is the outcome of a login or registration.
type AuthResult struct {
	Serial int
	Viewer models.Viewer
	Err    error
}

type loginBody struct {
	User struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

type registerBody struct {
	User struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

// Login posts validated credentials to /api/users/login.
func Login(c *Client, v form.Valid[LoginField], serial int) runtime.Cmd[AuthResult] {
	if !v.OK() {
		return failed(form.ErrNotValidated, serial)
	}
	var body loginBody
	body.User.Email = v.Value(LoginEmail)
	body.User.Password = v.Value(LoginPassword)
	return c.authenticate("/api/users/login", body, serial)
}

// Register posts a validated sign-up to /api/users.
func Register(c *Client, v form.Valid[RegisterField], serial int) runtime.Cmd[AuthResult] {
	if !v.OK() {
		return failed(form.ErrNotValidated, serial)
	}
	var body registerBody
	body.User.Username = v.Value(RegisterUsername)
	body.User.Email = v.Value(RegisterEmail)
	body.User.Password = v.Value(RegisterPassword)
	return c.authenticate("/api/users", body, serial)
}

func (c *Client) authenticate(path string, body any, serial int) runtime.Cmd[AuthResult] {
	req, err := fetch.NewRequest(c.url(path), session.Guest()).WithJSON(http.MethodPost, body)
	if err != nil {
		return failed(err, serial)
	}
	return fetch.Task(c.http, req, DecodeViewer, func(v models.Viewer, err error) AuthResult {
		return AuthResult{Serial: serial, Viewer: v, Err: err}
	})
}

func failed(err error, serial int) runtime.Cmd[AuthResult] {
	return func(context.Context) AuthResult { return AuthResult{Serial: serial, Err: err} }
}

type userRecord struct {
	Username string  `json:"username"`
	Token    string  `json:"token"`
	Image    *string `json:"image"`
}

// DecodeViewer accepts {"user": {...}} or the bare user record.
func DecodeViewer(body []byte) (models.Viewer, error) {
	var env struct {
		User *userRecord `json:"user"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return models.Viewer{}, err
	}
	rec := env.User
	if rec == nil {
		rec = new(userRecord)
		if err := json.Unmarshal(body, rec); err != nil {
			return models.Viewer{}, err
		}
	}
	return models.NewViewer(rec.Username, rec.Token, rec.Image)
}
