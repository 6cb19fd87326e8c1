// Package stub is an in-process Conduit API server for tests and local development.
package stub

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"conduit/internal/utils"
)

var (
	ErrUsernameTaken = errors.New("username has already been taken")
	ErrEmailTaken    = errors.New("email has already been taken")
)

type user struct {
	Username     string
	Email        string
	PasswordHash []byte
	Bio          *string
	Image        *string
	Token        string
}

// Article is an article as the stub stores it.
type Article struct {
	Slug        string
	Title       string
	Description string
	Body        string
	TagList     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Author      string
	FavoritedBy []string
}

// Server holds users and articles in memory.
type Server struct {
	mu       sync.Mutex
	users    map[string]*user // by email
	tokens   map[string]*user
	articles []Article
	log      *utils.Logger
}

func NewServer(log *utils.Logger) *Server {
	if log == nil {
		log = utils.Discard()
	}
	return &Server{
		users:  make(map[string]*user),
		tokens: make(map[string]*user),
		log:    log,
	}
}

// AddUser registers a user and returns its token.
func (s *Server) AddUser(username, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return "", ErrUsernameTaken
		}
	}
	key := strings.ToLower(email)
	if _, ok := s.users[key]; ok {
		return "", ErrEmailTaken
	}
	u := &user{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Token:        uuid.NewString(),
	}
	s.users[key] = u
	s.tokens[u.Token] = u
	return u.Token, nil
}

// SetImage sets the avatar of username.
func (s *Server) SetImage(username, image string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			u.Image = &image
		}
	}
}

// AddArticle stores a. A zero CreatedAt is set to now.
func (s *Server) AddArticle(a Article) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = append(s.articles, a)
}

func (s *Server) authenticate(email, password string) (*user, bool) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, false
	}
	return u, true
}

func (s *Server) byToken(token string) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.tokens[token]
	return u, ok
}

func (s *Server) byUsername(username string) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, true
		}
	}
	return nil, false
}

// query returns the matching articles, newest first, and the total match count.
func (s *Server) query(author, favorited string, limit, offset int) ([]Article, int) {
	s.mu.Lock()
	var matched []Article
	for _, a := range s.articles {
		if author != "" && a.Author != author {
			continue
		}
		if favorited != "" && !contains(a.FavoritedBy, favorited) {
			continue
		}
		matched = append(matched, a)
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
