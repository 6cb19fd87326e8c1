package models

import "time"

// Slug identifies an article in URLs.
type Slug string

func ParseSlug(s string) (Slug, error) {
	if s == "" {
		return "", ErrEmptySlug
	}
	return Slug(s), nil
}

func (s Slug) String() string { return string(s) }

type Author struct {
	Username  Username
	Bio       string
	Avatar    Avatar
	Following bool
}

type Article struct {
	Title          string
	Slug           Slug
	Body           string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	TagList        []string
	Author         Author
	Favorited      bool
	FavoritesCount int
}
