package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"conduit/internal/fetch"
	"conduit/internal/models"
	"conduit/internal/runtime"
	"conduit/internal/session"
)

// ArticlesPerPage is the page size of every profile feed.
const ArticlesPerPage = 5

// FeedURL is the articles query for one page of a profile tab.
func FeedURL(base string, username models.Username, tab models.FeedTab, page models.PageNumber) string {
	q := url.Values{}
	q.Set(tab.QueryParam(), username.String())
	q.Set("limit", strconv.Itoa(ArticlesPerPage))
	q.Set("offset", strconv.Itoa(page.Offset(ArticlesPerPage)))
	return base + "/api/articles?" + q.Encode()
}

// FeedResult is the outcome of one LoadFeed. Username, Tab, Page and Serial echo the
// request so the page can tell which load it answers.
type FeedResult struct {
	Username models.Username
	Tab      models.FeedTab
	Page     models.PageNumber
	Serial   int
	List     models.PaginatedList[models.Article]
	Err      error
}

// LoadFeed fetches one page of a profile feed.
func LoadFeed(c *Client, s session.Session, username models.Username, tab models.FeedTab, page models.PageNumber, serial int) runtime.Cmd[FeedResult] {
	req := fetch.NewRequest(FeedURL(c.base, username, tab, page), s)
	return func(ctx context.Context) FeedResult {
		list, err := fetch.Send(ctx, c.http, req, DecodeFeed)
		return FeedResult{
			Username: username,
			Tab:      tab,
			Page:     page,
			Serial:   serial,
			List:     list,
			Err:      err,
		}
	}
}

type feedRecord struct {
	Articles      *[]articleRecord `json:"articles"`
	ArticlesCount *int             `json:"articlesCount"`
}

type articleRecord struct {
	Slug           string       `json:"slug"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Body           string       `json:"body"`
	TagList        []string     `json:"tagList"`
	CreatedAt      string       `json:"createdAt"`
	UpdatedAt      string       `json:"updatedAt"`
	Favorited      bool         `json:"favorited"`
	FavoritesCount int          `json:"favoritesCount"`
	Author         authorRecord `json:"author"`
}

type authorRecord struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

var errMissingFeedField = errors.New("feed needs articles and articlesCount")

// DecodeFeed maps an articles response onto a PaginatedList.
func DecodeFeed(body []byte) (models.PaginatedList[models.Article], error) {
	var rec feedRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return models.PaginatedList[models.Article]{}, err
	}
	if rec.Articles == nil || rec.ArticlesCount == nil {
		return models.PaginatedList[models.Article]{}, errMissingFeedField
	}
	articles := make([]models.Article, 0, len(*rec.Articles))
	for i, ar := range *rec.Articles {
		a, err := ar.toArticle()
		if err != nil {
			return models.PaginatedList[models.Article]{}, fmt.Errorf("article %d: %w", i, err)
		}
		articles = append(articles, a)
	}
	return models.NewPaginatedList(articles, *rec.ArticlesCount)
}

func (r articleRecord) toArticle() (models.Article, error) {
	slug, err := models.ParseSlug(r.Slug)
	if err != nil {
		return models.Article{}, err
	}
	author, err := models.ParseUsername(r.Author.Username)
	if err != nil {
		return models.Article{}, fmt.Errorf("author: %w", err)
	}
	created, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return models.Article{}, fmt.Errorf("createdAt: %w", err)
	}
	updated, err := time.Parse(time.RFC3339, r.UpdatedAt)
	if err != nil {
		return models.Article{}, fmt.Errorf("updatedAt: %w", err)
	}
	var bio string
	if r.Author.Bio != nil {
		bio = *r.Author.Bio
	}
	tags := r.TagList
	if tags == nil {
		tags = []string{}
	}
	return models.Article{
		Title:       r.Title,
		Slug:        slug,
		Body:        r.Body,
		Description: r.Description,
		CreatedAt:   created,
		UpdatedAt:   updated,
		TagList:     tags,
		Author: models.Author{
			Username:  author,
			Bio:       bio,
			Avatar:    models.NewAvatar(r.Author.Image),
			Following: r.Author.Following,
		},
		Favorited:      r.Favorited,
		FavoritesCount: r.FavoritesCount,
	}, nil
}
