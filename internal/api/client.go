// Package api builds the Conduit API requests the pages dispatch and maps the server
// records onto the domain models.
package api

import (
	"strings"

	"conduit/internal/fetch"
)

// Client binds the API base URL to a fetch client.
type Client struct {
	base string
	http *fetch.Client
}

// NewClient strips any trailing slash from base.
func NewClient(base string, http *fetch.Client) *Client {
	return &Client{base: strings.TrimRight(base, "/"), http: http}
}

func (c *Client) Base() string { return c.base }

func (c *Client) url(path string) string { return c.base + path }
