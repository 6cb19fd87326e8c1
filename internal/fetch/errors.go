package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed fetch.
type Kind int

const (
	// RequestError: no HTTP response was obtained (connection failure, timeout).
	RequestError Kind = iota + 1
	// DataError: a response arrived but its body did not have the expected shape.
	DataError
	// ServerError: the server reported domain errors in its error shape.
	ServerError
)

func (k Kind) String() string {
	switch k {
	case RequestError:
		return "request error"
	case DataError:
		return "data error"
	case ServerError:
		return "server error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Messages shown for the opaque kinds.
const (
	RequestErrorMessage = "Request error"
	DataErrorMessage    = "Data error"
)

// Error is a classified fetch failure. Messages are safe to show to the user.
type Error struct {
	Kind     Kind
	Status   int
	Messages []string
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, strings.Join(e.Messages, "; "), e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Messages, "; "))
}

func (e *Error) Unwrap() error { return e.cause }

func requestError(cause error) *Error {
	return &Error{Kind: RequestError, Messages: []string{RequestErrorMessage}, cause: cause}
}

func dataError(status int, cause error) *Error {
	return &Error{Kind: DataError, Status: status, Messages: []string{DataErrorMessage}, cause: cause}
}

func serverError(status int, messages []string) *Error {
	return &Error{Kind: ServerError, Status: status, Messages: messages}
}

// Messages returns the user-facing messages of err. Errors that did not come from Send
// are reported as a request error.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Messages
	}
	return []string{RequestErrorMessage}
}

// KindOf returns the classification of err, or 0 when err is not a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
