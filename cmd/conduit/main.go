package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"conduit/internal/api"
	"conduit/internal/app"
	"conduit/internal/certs"
	"conduit/internal/config"
	"conduit/internal/crypto"
	"conduit/internal/fetch"
	"conduit/internal/files"
	"conduit/internal/form"
	"conduit/internal/models"
	"conduit/internal/pages/login"
	"conduit/internal/pages/profile"
	"conduit/internal/pages/register"
	"conduit/internal/route"
	"conduit/internal/runtime"
	"conduit/internal/session"
	"conduit/internal/utils"
)

func main() {
	cmd := flag.String("cmd", "whoami", "Command: login|register|feed|logout|whoami")
	configPath := flag.String("config", "", "Path to config.json (default <data dir>/config.json)")
	apiFlag := flag.String("api", "", "Override API base URL (e.g. https://api.realworld.io)")
	email := flag.String("email", "", "Email (login, register)")
	password := flag.String("password", "", "Password (login, register)")
	username := flag.String("username", "", "Username (register, feed)")
	favorited := flag.Bool("favorited", false, "List favorited articles instead of authored ones (feed)")
	page := flag.Int("page", 1, "Feed page, starting at 1 (feed)")
	flag.Parse()

	if *configPath == "" {
		*configPath = filepath.Join(utils.GetDataDir(), "config.json")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if *apiFlag != "" {
		if cfg, err = cfg.WithAPIBaseURL(*apiFlag); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	}

	c, err := newClient(cfg)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer c.log.Close()

	switch *cmd {
	case "login":
		err = c.login(*email, *password)
	case "register":
		err = c.register(*username, *email, *password)
	case "feed":
		err = c.feed(*username, *favorited, *page)
	case "logout":
		err = c.logout()
	case "whoami":
		c.whoami()
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

type client struct {
	app   *app.Model
	sched *runtime.Scheduler[app.Msg]
	log   *utils.Logger
}

func newClient(cfg config.Config) (*client, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	log, err := utils.NewLogger(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	var storage files.Storage = files.NewLocalStorage(cfg.DataDir)
	if cfg.EncryptStorage {
		key, err := crypto.ReadMasterKey(cfg.MasterKeyFile)
		if err != nil {
			return nil, fmt.Errorf("encrypted storage: %w", err)
		}
		if storage, err = files.NewSealedStorage(storage, key); err != nil {
			return nil, err
		}
	}

	sessions, err := session.NewManager(files.NewViewerStore(storage), session.Options{
		Strict: cfg.StrictStorage,
		Log:    log,
	})
	if err != nil {
		return nil, err
	}

	var hc *http.Client
	if cfg.CACertDir != "" {
		if hc, err = certs.NewCertManager(cfg.CACertDir, log).HTTPClient(); err != nil {
			return nil, fmt.Errorf("load CA certificates: %w", err)
		}
	}
	apiClient := api.NewClient(cfg.APIBaseURL, fetch.NewClient(hc, log))
	c := &client{app: app.New(sessions, apiClient, log), log: log}
	c.sched = runtime.NewScheduler[app.Msg](c.app, runtime.Options{
		Log:      log,
		Navigate: func(r route.Route) { c.sched.Send(app.RouteChanged{Route: r}) },
	})
	return c, nil
}

func (c *client) settle() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*fetch.Timeout)
	defer cancel()
	return c.sched.Settle(ctx)
}

func (c *client) login(email, password string) error {
	c.sched.Send(app.RouteChanged{Route: route.ToLogin()})
	c.sched.Send(app.LoginMsg{Msg: login.FieldChanged{Key: api.LoginEmail, Value: email}})
	c.sched.Send(app.LoginMsg{Msg: login.FieldChanged{Key: api.LoginPassword, Value: password}})
	c.sched.Send(app.LoginMsg{Msg: login.SubmittedForm{}})
	if err := c.settle(); err != nil {
		return err
	}
	return c.report(c.app.Login().Problems())
}

func (c *client) register(username, email, password string) error {
	c.sched.Send(app.RouteChanged{Route: route.ToRegister()})
	c.sched.Send(app.RegisterMsg{Msg: register.FieldChanged{Key: api.RegisterUsername, Value: username}})
	c.sched.Send(app.RegisterMsg{Msg: register.FieldChanged{Key: api.RegisterEmail, Value: email}})
	c.sched.Send(app.RegisterMsg{Msg: register.FieldChanged{Key: api.RegisterPassword, Value: password}})
	c.sched.Send(app.RegisterMsg{Msg: register.SubmittedForm{}})
	if err := c.settle(); err != nil {
		return err
	}
	return c.report(c.app.Register().Problems())
}

func (c *client) feed(username string, favorited bool, page int) error {
	if username == "" {
		v, ok := c.app.Session().Viewer()
		if !ok {
			return errors.New("--username required when logged out")
		}
		username = v.Username().String()
	}
	u, err := models.ParseUsername(username)
	if err != nil {
		return err
	}
	n, err := models.NewPageNumber(page)
	if err != nil {
		return err
	}

	tab := models.MyArticles
	if favorited {
		tab = models.FavoritedArticles
	}
	c.sched.Send(app.OpenProfile{Username: u, Tab: tab, Page: n})
	if err := c.settle(); err != nil {
		return err
	}

	p := c.app.Profile()
	if p.Status() != profile.Loaded {
		return c.report(p.Problems())
	}
	feed := p.Feed()
	fmt.Printf("%s / %s / page %d of %d (%d articles)\n", p.Username(), p.Tab(), p.Page(), feed.Pages(api.ArticlesPerPage), feed.Total)
	for _, a := range feed.Values {
		fmt.Printf("  %-40s %s  by %s  (%d favorites)\n", a.Slug, a.CreatedAt.Format(time.DateOnly), a.Author.Username, a.FavoritesCount)
	}
	return nil
}

func (c *client) logout() error {
	c.sched.Send(app.LogoutRequested{})
	if err := c.settle(); err != nil {
		return err
	}
	c.whoami()
	return nil
}

func (c *client) whoami() {
	v, ok := c.app.Session().Viewer()
	if !ok {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("Logged in as %s (avatar %s)\n", v.Username(), v.Avatar.Src())
}

func (c *client) report(problems []form.Problem) error {
	if len(problems) == 0 {
		c.whoami()
		return nil
	}
	for _, p := range problems {
		fmt.Println(" -", p)
	}
	return fmt.Errorf("%d problem(s)", len(problems))
}
