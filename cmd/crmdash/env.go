package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/credential"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/session"
	"github.com/nhle/crm-dashboard/internal/store"
	"github.com/nhle/crm-dashboard/internal/tasks"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

// Swapped by tests.
var (
	out             io.Writer       = os.Stdout
	clock           timetrack.Clock = timetrack.SystemClock{}
	openCredentials                 = credential.Open
)

// env is everything a command needs before it talks to the backend.
type env struct {
	cfg   *model.AppConfig
	log   lgr.L
	creds *credential.Store

	closers []func() error
}

// setup loads the config, builds the logger and opens the keyring. When
// toFile is set, log lines go to the configured log file so they do not
// corrupt the terminal UI.
func setup(toFile bool) (*env, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}

	var w io.Writer = os.Stderr
	if toFile && cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		e.closers = append(e.closers, f.Close)
		w = f
	}
	e.log = newLogger(w, debug || cfg.Log.Debug)

	creds, err := openCredentials(model.ConfigDir())
	if err != nil {
		e.close()
		return nil, err
	}
	e.creds = creds

	return e, nil
}

func newLogger(w io.Writer, dbg bool) lgr.L {
	opts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.Out(w), lgr.Err(w)}
	if dbg {
		opts = append(opts, lgr.Debug)
	}
	return lgr.New(opts...)
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.log.Logf("[WARN] closing: %v", err)
		}
	}
	e.closers = nil
}

// client builds an API client that authenticates with tokens.
func (e *env) client(tokens api.TokenProvider) *api.Client {
	opts := []api.Option{api.WithLogger(e.log)}
	if e.cfg.API.TimeoutSec > 0 {
		opts = append(opts, api.WithTimeout(time.Duration(e.cfg.API.TimeoutSec)*time.Second))
	}
	return api.NewClient(e.cfg.API.BaseURL, tokens, opts...)
}

// anonymous returns a client that can only log in.
func (e *env) anonymous() *api.Client {
	return e.client(api.TokenFunc(func() (string, error) {
		return "", api.ErrAuthenticationRequired
	}))
}

// restore loads the saved session or explains how to get one.
func (e *env) restore() (*session.Session, error) {
	s, err := session.Restore(e.creds, clock)
	if errors.Is(err, session.ErrNoSession) {
		return nil, errors.New("not logged in, run 'crmdash login' first")
	}
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, func() error {
		s.Close()
		return nil
	})
	return s, nil
}

// workspace is a signed-in command context.
type workspace struct {
	session *session.Session
	client  *api.Client
	store   *store.SQLiteStore
	svc     *tasks.Service
}

// open restores the session and wires the task service over the cache.
func (e *env) open() (*workspace, error) {
	s, err := e.restore()
	if err != nil {
		return nil, err
	}

	st, err := store.NewSQLiteStore(e.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, st.Close)

	client := e.client(s)
	svc := tasks.NewService(client, s.Actor(),
		tasks.WithCache(st),
		tasks.WithClock(clock),
		tasks.WithLogger(e.log),
	)
	return &workspace{session: s, client: client, store: st, svc: svc}, nil
}

// refresh fetches the task list, falling back to the cache when the
// backend cannot be reached.
func (w *workspace) refresh(ctx context.Context, log lgr.L) (tasks.Snapshot, error) {
	snap, err := w.svc.Refresh(ctx)
	if err == nil {
		return snap, nil
	}
	if !api.IsNetwork(err) {
		return tasks.Snapshot{}, errors.New(tasks.Describe(tasks.OpRefresh, err))
	}

	log.Logf("[WARN] refresh failed, using cache: %v", err)
	cached, cerr := w.svc.LoadCached(ctx)
	if cerr != nil || !cached.Loaded() {
		return tasks.Snapshot{}, errors.New(tasks.Describe(tasks.OpRefresh, err))
	}
	return cached, nil
}
