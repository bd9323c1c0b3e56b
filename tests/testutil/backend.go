package testutil

import (
	"testing"
	"time"

	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/mockapi"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/session"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

// Epoch is the default start of the manual clock in test backends.
var Epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// Backend is a running mock backend driven by a manual clock.
type Backend struct {
	Server *mockapi.Server
	URL    string
	Clock  *timetrack.ManualClock
}

// NewTestBackend starts a mock backend on a loopback port and shuts it
// down when the test completes.
func NewTestBackend(t *testing.T) *Backend {
	t.Helper()

	clock := timetrack.NewManualClock(Epoch)
	srv := mockapi.New(mockapi.WithClock(clock))

	url, err := srv.Start("127.0.0.1:0")
	if err != nil {
		t.Fatalf("starting mock backend: %v", err)
	}

	t.Cleanup(func() {
		if err := srv.Shutdown(); err != nil {
			t.Errorf("stopping mock backend: %v", err)
		}
	})

	return &Backend{Server: srv, URL: url, Clock: clock}
}

// AddUser registers a user with password "secret".
func (b *Backend) AddUser(t *testing.T, id, first string, role model.Role, designation string) model.Actor {
	t.Helper()
	return b.Server.AddUser(model.Actor{
		ID:          id,
		FirstName:   first,
		LastName:    "Test",
		Email:       id + "@example.com",
		Role:        role,
		Designation: designation,
	}, "secret")
}

// Session signs actor in by issuing a token directly.
func (b *Backend) Session(t *testing.T, actor model.Actor) *session.Session {
	t.Helper()

	token, err := b.Server.IssueToken(actor.ID)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	s, err := session.New(actor, api.Tokens{AccessToken: token}, b.Clock)
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	return s
}

// Client returns an API client authenticated as actor.
func (b *Backend) Client(t *testing.T, actor model.Actor) *api.Client {
	t.Helper()
	return api.NewClient(b.URL, b.Session(t, actor))
}
