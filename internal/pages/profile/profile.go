// Package profile shows the paginated article feed of one user.
package profile

import (
	"conduit/internal/api"
	"conduit/internal/fetch"
	"conduit/internal/form"
	"conduit/internal/models"
	"conduit/internal/runtime"
	"conduit/internal/session"
)

// Status is the load state of the feed.
type Status int

const (
	Idle Status = iota
	Loading
	Loaded
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

type Model struct {
	client   *api.Client
	session  session.Session
	username models.Username
	tab      models.FeedTab
	page     models.PageNumber
	status   Status
	feed     models.PaginatedList[models.Article]
	problems []form.Problem
	serial   int
}

type Msg interface{ isMsg() }

// FeedRequested loads the current tab and page.
type FeedRequested struct{}

// TabSelected switches tab and goes back to the first page.
type TabSelected struct{ Tab models.FeedTab }

type PageSelected struct{ Page models.PageNumber }

// FeedOpened sets tab and page together and loads once. A zero Page means the first
// page.
type FeedOpened struct {
	Tab  models.FeedTab
	Page models.PageNumber
}

type FeedLoaded struct{ Result api.FeedResult }

func (FeedRequested) isMsg() {}
func (TabSelected) isMsg()   {}
func (PageSelected) isMsg()  {}
func (FeedOpened) isMsg()    {}
func (FeedLoaded) isMsg()    {}

// Init shows the first page of username's own articles. Loading starts with
// FeedRequested.
func Init(client *api.Client, s session.Session, username models.Username) *Model {
	return &Model{
		client:   client,
		session:  s,
		username: username,
		tab:      models.MyArticles,
		page:     models.FirstPage,
	}
}

func (m *Model) Session() session.Session                   { return m.session }
func (m *Model) Username() models.Username                  { return m.username }
func (m *Model) Tab() models.FeedTab                        { return m.tab }
func (m *Model) Page() models.PageNumber                    { return m.page }
func (m *Model) Status() Status                             { return m.status }
func (m *Model) Feed() models.PaginatedList[models.Article] { return m.feed }
func (m *Model) Problems() []form.Problem                   { return append([]form.Problem(nil), m.problems...) }

// Visit points the page at another user and resets the feed. Loads still in flight
// for the previous user are ignored when they land.
func (m *Model) Visit(username models.Username) {
	if username == m.username {
		return
	}
	serial := m.serial
	*m = *Init(m.client, m.session, username)
	m.serial = serial
}

func (m *Model) Update(msg Msg, orders *runtime.Orders[Msg]) {
	switch msg := msg.(type) {
	case FeedRequested:
		m.load(orders)

	case TabSelected:
		m.tab = msg.Tab
		m.page = models.FirstPage
		m.load(orders)

	case PageSelected:
		m.page = msg.Page
		m.load(orders)

	case FeedOpened:
		m.tab = msg.Tab
		m.page = msg.Page
		if m.page < models.FirstPage {
			m.page = models.FirstPage
		}
		m.load(orders)

	case FeedLoaded:
		r := msg.Result
		if r.Username != m.username || r.Serial != m.serial {
			return
		}
		if r.Err != nil {
			m.status = Failed
			m.problems = form.ServerErrors(fetch.Messages(r.Err))
			return
		}
		m.status = Loaded
		m.feed = r.List
		m.problems = nil
	}
}

func (m *Model) load(orders *runtime.Orders[Msg]) {
	m.serial++
	m.status = Loading
	cmd := api.LoadFeed(m.client, m.session, m.username, m.tab, m.page, m.serial)
	orders.Perform(runtime.Map(cmd, func(r api.FeedResult) Msg { return FeedLoaded{Result: r} }))
}

// HandleGlobal adopts the new session for later loads.
func (m *Model) HandleGlobal(g session.GlobalMsg, s session.Session, orders *runtime.Orders[Msg]) {
	if _, ok := g.(session.SessionChanged); ok {
		m.session = s
	}
}
