package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/chaitanya-699/url-shortener/internal/analytics"
	"github.com/chaitanya-699/url-shortener/internal/api"
	conf "github.com/chaitanya-699/url-shortener/internal/config"
	env "github.com/chaitanya-699/url-shortener/internal/config/environment"
	"github.com/chaitanya-699/url-shortener/internal/factory"
	"github.com/chaitanya-699/url-shortener/internal/links"
	"github.com/chaitanya-699/url-shortener/internal/session"
	"github.com/chaitanya-699/url-shortener/internal/storage"
)

const usage = `usage: shortctl <command> [flags] [args]

commands:
  shorten URL [DESCRIPTION]  shorten a URL
  list                  list the current identity's links
  delete ID...          delete links by id
  stats ID              show click analytics for a link
  whoami                show the current session
  login EMAIL PASSWORD  sign in
  register EMAIL PASSWORD  create an account
  logout                sign out and clear the local session
  guest-login GUEST_ID  bind the session to a known guest id
  guest-signout         drop the local guest session`

type app struct {
	session *session.Store
	links   *links.Service
	logger  *zap.Logger
}

func main() {
	if len(os.Args) < 2 {
		exit(usage)
	}

	command := os.Args[1]
	config, args := conf.New().FromArgs(os.Args[1:])
	config = config.FromEnv(env.New())

	a, teardown := setup(config)
	defer teardown()

	ctx := context.Background()
	a.session.Init(ctx)

	switch command {
	case "shorten":
		a.shorten(ctx, args)
	case "list":
		a.list(ctx)
	case "delete":
		a.delete(ctx, args)
	case "stats":
		a.stats(ctx, args)
	case "whoami":
		a.whoami()
	case "login":
		a.login(ctx, args)
	case "register":
		a.register(ctx, args)
	case "logout":
		fmt.Println(a.session.Logout(ctx))
	case "guest-login":
		a.guestLogin(ctx, args)
	case "guest-signout":
		a.guestSignout(ctx)
	default:
		exit(usage)
	}
}

func setup(config conf.Config) (*app, func()) {
	logger, tearDownLogger := factory.NewLogger(config.LogLevel)
	store, tearDownStorage := factory.NewStorage(config, logger)

	adapter := storage.NewAdapter(store, logger)
	client := api.New(api.WithBaseURL(config.APIBaseURL))

	options := []session.Option{session.WithAuthCheckTimeout(config.AuthCheckTimeout)}
	if config.DemoMode {
		options = append(options, session.WithDemoMode())
	}
	sessionStore := session.New(client, adapter, logger, options...)
	linkService := links.New(client, sessionStore, adapter, logger)

	a := &app{
		session: sessionStore,
		links:   linkService,
		logger:  logger,
	}

	return a, func() {
		tearDownStorage()
		tearDownLogger()
	}
}

func exit(msg any) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func (a *app) shorten(ctx context.Context, args []string) {
	if len(args) == 0 || len(args) > 2 {
		exit("shorten requires a URL and an optional description")
	}

	description := ""
	if len(args) == 2 {
		description = args[1]
	}

	record, err := a.links.Create(ctx, args[0], description)

	if err != nil {
		exit(err)
	}

	fmt.Printf("%s\t%s\t(id %s)\n", record.ShortURL, record.OriginalURL, record.ID)
}

func (a *app) list(ctx context.Context) {
	if err := a.links.Refresh(ctx); err != nil {
		a.logger.Debug("refresh failed, listing cached links", zap.Error(err))
	}

	records := a.links.Records()
	if len(records) == 0 {
		fmt.Println("no links")
		return
	}

	for _, record := range records {
		fmt.Printf("%s\t%s\t%s\t(id %s)\n",
			record.CreatedAt.Format("2006-01-02 15:04"), record.ShortURL, record.OriginalURL, record.ID)
	}
}

func (a *app) delete(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		exit("delete requires at least one id")
	}

	if err := a.links.Refresh(ctx); err != nil {
		a.logger.Debug("refresh failed, deleting from cached links", zap.Error(err))
	}

	for _, id := range ids {
		message, err := a.links.Delete(ctx, id)

		if err != nil {
			exit(err)
		}

		fmt.Println(message)
	}
}

func (a *app) stats(ctx context.Context, args []string) {
	if len(args) != 1 {
		exit("stats requires exactly one id")
	}

	if err := a.links.Refresh(ctx); err != nil {
		a.logger.Debug("refresh failed, using cached links", zap.Error(err))
	}

	view, err := a.links.Analytics(ctx, args[0])
	if err != nil {
		exit(err)
	}

	printView(view)
}

func printView(view analytics.View) {
	fmt.Printf("%s -> %s\n", view.ShortURL, view.OriginalURL)
	fmt.Printf("clicks: %d total, %d unique, %d today, %d this week\n",
		view.TotalClicks, view.UniqueClicks, view.ClicksToday, view.ClicksThisWeek)

	fmt.Println("countries:")
	for _, row := range view.TopCountries {
		fmt.Printf("  %s\t%d\n", row.Country, row.Clicks)
	}

	fmt.Println("browsers:")
	for _, row := range view.TopBrowsers {
		fmt.Printf("  %s\t%d\n", row.Browser, row.Clicks)
	}

	fmt.Println("devices:")
	for _, row := range view.DeviceBreakdown {
		fmt.Printf("  %s\t%d%%\n", row.Device, row.Percentage)
	}

	fmt.Println("recent clicks:")
	for _, row := range view.RecentClicks {
		fmt.Printf("  %s\t%s\t%s\t%s\n", row.Timestamp, row.Country, row.Browser, row.IP)
	}
}

func (a *app) whoami() {
	identity := a.session.Identity()

	switch {
	case identity.IsAuthenticated():
		fmt.Printf("authenticated as %s (id %s)\n", identity.User.Email, identity.User.ID)
	case identity.IsGuest():
		fmt.Printf("guest %s\n", identity.GuestID)
	default:
		fmt.Println("anonymous")
	}
}

func (a *app) login(ctx context.Context, args []string) {
	if len(args) != 2 {
		exit("login requires EMAIL and PASSWORD")
	}

	message, err := a.session.SignIn(ctx, args[0], args[1])
	if err != nil {
		exit(err)
	}

	fmt.Println(message)
}

func (a *app) register(ctx context.Context, args []string) {
	if len(args) != 2 {
		exit("register requires EMAIL and PASSWORD")
	}

	message, err := a.session.Register(ctx, args[0], args[1])
	if err != nil {
		exit(err)
	}

	fmt.Println(message)
}

func (a *app) guestLogin(ctx context.Context, args []string) {
	if len(args) != 1 {
		exit("guest-login requires a guest id")
	}

	message, err := a.session.LoginWithGuest(ctx, args[0])
	if err != nil {
		exit(err)
	}

	fmt.Println(message)
}

func (a *app) guestSignout(ctx context.Context) {
	if err := a.session.GuestSignout(ctx); err != nil {
		exit(err)
	}

	fmt.Println("guest session cleared")
}
