// Package fetch sends API requests and classifies every outcome into a value or an
// *Error of a known Kind.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"conduit/internal/runtime"
	"conduit/internal/utils"
)

// EffectSerialHeader carries the serial of the effect that sent the request, so server
// logs line up with the client's effect log.
const EffectSerialHeader = "X-Effect-Serial"

// Client sends requests. It performs no retries.
type Client struct {
	http *http.Client
	log  *utils.Logger
}

// NewClient uses hc, or a default http.Client when hc is nil.
func NewClient(hc *http.Client, log *utils.Logger) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if log == nil {
		log = utils.Discard()
	}
	return &Client{http: hc, log: log}
}

// JSON decodes body into a T.
func JSON[T any](body []byte) (T, error) {
	var v T
	err := json.Unmarshal(body, &v)
	return v, err
}

// Send performs r and returns the decoded value or an *Error:
// no response -> RequestError; 2xx with a bad body -> DataError; other status with a
// bad error body -> DataError; other status with an error body -> ServerError.
func Send[T any](ctx context.Context, c *Client, r Request, decode func(body []byte) (T, error)) (T, error) {
	var zero T
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	id := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		c.log.Errorf("fetch %s: build %s %s: %v", id, r.Method, r.URL, err)
		return zero, requestError(err)
	}
	if r.Header != nil {
		req.Header = r.Header.Clone()
	}
	req.Header.Set("X-Request-Id", id)
	if serial, ok := runtime.SerialFrom(ctx); ok {
		req.Header.Set(EffectSerialHeader, strconv.FormatUint(uint64(serial), 10))
		id = fmt.Sprintf("%s (effect #%d)", id, serial)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warnf("fetch %s: %s %s failed after %s: %v", id, r.Method, r.URL, time.Since(start), err)
		return zero, requestError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.log.Infof("fetch %s: %s %s -> %d in %s", id, r.Method, r.URL, resp.StatusCode, time.Since(start))
	if err != nil {
		return zero, dataError(resp.StatusCode, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		v, err := decode(body)
		if err != nil {
			c.log.Warnf("fetch %s: undecodable success body: %v", id, err)
			return zero, dataError(resp.StatusCode, err)
		}
		return v, nil
	}

	messages, err := DecodeServerErrors(body)
	if err != nil {
		c.log.Warnf("fetch %s: undecodable error body: %v", id, err)
		return zero, dataError(resp.StatusCode, err)
	}
	return zero, serverError(resp.StatusCode, messages)
}

// Task wraps Send as a command producing exactly one message.
func Task[T, M any](c *Client, r Request, decode func([]byte) (T, error), wrap func(T, error) M) runtime.Cmd[M] {
	return func(ctx context.Context) M {
		v, err := Send(ctx, c, r, decode)
		return wrap(v, err)
	}
}

var (
	errNotObject    = errors.New("expected a JSON object")
	errTrailingData = errors.New("trailing data after the error object")
)

// DecodeServerErrors reads {"errors": {"field": ["msg", ...], ...}} and returns one
// "field msg1, msg2" string per field, in the order the server sent the fields.
func DecodeServerErrors(body []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var (
		out   []string
		found bool
	)
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "errors" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}
		if out, err = decodeFieldErrors(dec); err != nil {
			return nil, fmt.Errorf("errors: %w", err)
		}
		found = true
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	if !found {
		return nil, errors.New(`missing "errors"`)
	}
	return out, nil
}

func decodeFieldErrors(dec *json.Decoder) ([]string, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	out := []string{}
	for dec.More() {
		field, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		var messages []string
		if err := dec.Decode(&messages); err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		if messages == nil {
			return nil, fmt.Errorf("field %q: messages are null", field)
		}
		out = append(out, field+" "+strings.Join(messages, ", "))
	}
	return out, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errNotObject
	}
	return nil
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", errNotObject
	}
	return key, nil
}
