package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPageNumber = errors.New("page number must be at least 1")
	ErrValuesExceedTotal = errors.New("page holds more values than the collection total")
)

// PaginatedList is one page of a collection plus the size of the whole collection.
type PaginatedList[T any] struct {
	Values []T
	Total  int
}

// NewPaginatedList enforces len(values) <= total.
func NewPaginatedList[T any](values []T, total int) (PaginatedList[T], error) {
	if total < 0 || len(values) > total {
		return PaginatedList[T]{}, fmt.Errorf("%w: %d values, total %d", ErrValuesExceedTotal, len(values), total)
	}
	return PaginatedList[T]{Values: values, Total: total}, nil
}

// Pages returns how many pages of pageSize the collection spans.
func (p PaginatedList[T]) Pages(pageSize int) int {
	if pageSize <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + pageSize - 1) / pageSize
}

// PageNumber is 1-based.
type PageNumber int

// FirstPage is the page every feed starts on.
const FirstPage PageNumber = 1

func NewPageNumber(n int) (PageNumber, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPageNumber, n)
	}
	return PageNumber(n), nil
}

// Offset is the index of the first item of this page.
func (p PageNumber) Offset(pageSize int) int {
	return (int(p) - 1) * pageSize
}

// FeedTab selects which articles of a profile are listed.
type FeedTab int

const (
	MyArticles FeedTab = iota
	FavoritedArticles
)

// QueryParam is the API filter the tab maps to.
func (t FeedTab) QueryParam() string {
	if t == FavoritedArticles {
		return "favorited"
	}
	return "author"
}

func (t FeedTab) String() string {
	switch t {
	case MyArticles:
		return "my-articles"
	case FavoritedArticles:
		return "favorited-articles"
	default:
		return fmt.Sprintf("FeedTab(%d)", int(t))
	}
}
