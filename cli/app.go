package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/jrsteele09/fnb-console/apiclient"
	"github.com/jrsteele09/fnb-console/auth"
	"github.com/jrsteele09/fnb-console/fnb"
	"github.com/jrsteele09/fnb-console/internal/config"
	"github.com/jrsteele09/fnb-console/sessions"
	"github.com/jrsteele09/fnb-console/sessions/filerepo"
	"github.com/jrsteele09/fnb-console/sessions/redisrepo"
	fakesessionrepo "github.com/jrsteele09/fnb-console/sessions/repofakes"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// App is everything a console command needs: the session, the API clients and the
// terminal it talks to.
type App struct {
	Config   config.Config
	Session  *auth.Service
	Account  *apiclient.Client
	Data     *apiclient.Client
	FnB      *fnb.Service
	Registry *prometheus.Registry

	in      *bufio.Reader
	out     io.Writer
	logger  zerolog.Logger
	closers []func() error
}

// AppOption defines a function type to modify the App instance.
type AppOption func(*App)

func WithIO(in io.Reader, out io.Writer) AppOption {
	return func(a *App) {
		a.in = bufio.NewReader(in)
		a.out = out
	}
}

func WithLogger(logger zerolog.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// NewApp wires the clients from cfg and restores the persisted session.
func NewApp(ctx context.Context, cfg config.Config, options ...AppOption) (*App, error) {
	a := &App{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		in:       bufio.NewReader(strings.NewReader("")),
		out:      io.Discard,
		logger:   log.Logger,
	}
	for _, opt := range options {
		opt(a)
	}

	repo, err := a.sessionRepo(cfg)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[NewApp] cookie jar")
	}
	httpClient := &http.Client{Jar: jar, Timeout: cfg.GetRequestTimeout()}
	metrics := apiclient.NewMetrics(a.Registry)

	common := []apiclient.Option{
		apiclient.WithHTTPClient(httpClient),
		apiclient.WithTokenPrefix(cfg.GetTokenPrefix()),
		apiclient.WithDebug(cfg.GetAPIDebug()),
		apiclient.WithLogger(a.logger),
		apiclient.WithMetrics(metrics),
	}
	a.Account = apiclient.New(cfg.GetAccountURL(), common...)

	a.Session, err = auth.NewService(a.Account, repo,
		auth.WithLogger(a.logger),
		auth.WithReLogin(a.promptCredentials),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[NewApp]")
	}

	a.Data = apiclient.New(cfg.GetFnBURL(), append(common, apiclient.WithSession(a.Session))...)
	a.FnB = fnb.NewService(a.Data, fnb.WithLogger(a.logger))

	if err := a.Session.Restore(ctx); err != nil {
		return nil, errors.Wrap(err, "[NewApp] restore session")
	}
	return a, nil
}

// Close releases the session store.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("[App.Close] %v", errs)
	}
	return nil
}

func (a *App) sessionRepo(cfg config.SessionConfig) (sessions.Repo, error) {
	switch store := cfg.GetSessionStore(); store {
	case config.SessionStoreMemory:
		return fakesessionrepo.NewFakeSessionRepo(), nil
	case config.SessionStoreFile:
		return filerepo.New(cfg.GetSessionFile()), nil
	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
		a.closers = append(a.closers, rdb.Close)
		return redisrepo.New(rdb, cfg.GetRedisKey(), cfg.GetSessionTTL()), nil
	default:
		return nil, fmt.Errorf("[NewApp] unknown session store %q", store)
	}
}

// promptCredentials asks for credentials again after the session could not be refreshed.
func (a *App) promptCredentials(ctx context.Context) (*auth.Credentials, error) {
	fmt.Fprintln(a.out, "Session expired, please log in again.")
	username := a.Session.Tenant().GetUsername()
	client := a.Session.Tenant().GetClientUsername()
	if username == "" {
		var err error
		if username, err = a.prompt("Username: "); err != nil {
			return nil, err
		}
	}
	password, err := a.prompt("Password: ")
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, nil
	}
	return &auth.Credentials{Username: username, Password: password, ClientUsername: client}, nil
}

func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errors.Wrap(err, "[App.prompt]")
	}
	return strings.TrimSpace(line), nil
}
