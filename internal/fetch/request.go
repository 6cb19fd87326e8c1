package fetch

import (
	"encoding/json"
	"net/http"
	"time"

	"conduit/internal/session"
)

// Timeout applies to every request the client makes.
const Timeout = 5000 * time.Millisecond

// Request is a prepared API request.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
	Timeout time.Duration
}

// NewRequest builds a GET for url. The Authorization header is set only for an
// authenticated session.
func NewRequest(url string, s session.Session) Request {
	h := make(http.Header)
	h.Set("Accept", "application/json")
	if token, ok := s.AuthToken(); ok {
		h.Set("Authorization", "Token "+token)
	}
	return Request{
		Method:  http.MethodGet,
		URL:     url,
		Header:  h,
		Timeout: Timeout,
	}
}

// WithJSON returns a copy of r sending body as JSON with method.
func (r Request) WithJSON(method string, body any) (Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return r, err
	}
	r.Method = method
	r.Body = data
	r.Header = r.Header.Clone()
	r.Header.Set("Content-Type", "application/json")
	return r, nil
}
