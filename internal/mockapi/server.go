// Package mockapi is an in-process implementation of the dashboard backend.
// It serves the same REST surface as the real service, enforces the
// server side of the task lifecycle, and signs HS256 bearer tokens. It
// backs the integration tests and `crmdash mock-server`.
package mockapi

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

const localsActor = "actor"

type userRecord struct {
	actor    model.Actor
	password string
}

// Server is the mock backend. All state is in memory.
type Server struct {
	app      *fiber.App
	secret   []byte
	tokenTTL time.Duration
	clock    timetrack.Clock
	log      lgr.L

	mu      sync.Mutex
	users   map[string]userRecord
	byEmail map[string]string
	tasks   map[string]*model.Task

	ln net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithClock drives timestamps and token expiry from c.
func WithClock(c timetrack.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithSecret sets the HS256 signing key.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithTokenTTL sets how long issued tokens stay valid.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithLogger sets the request logger.
func WithLogger(l lgr.L) Option {
	return func(s *Server) { s.log = l }
}

// New creates a server with no users and no tasks.
func New(opts ...Option) *Server {
	s := &Server{
		secret:   []byte("crmdash-mock-secret"),
		tokenTTL: 24 * time.Hour,
		clock:    timetrack.SystemClock{},
		log:      lgr.NoOp,
		users:    make(map[string]userRecord),
		byEmail:  make(map[string]string),
		tasks:    make(map[string]*model.Task),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return reject(c, code, err.Error())
		},
	})
	s.routes()
	return s
}

// newID returns a 24-hex-character identifier.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func (s *Server) routes() {
	s.app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		s.log.Logf("[DEBUG] mockapi %s %s -> %d", c.Method(), c.Path(), c.Response().StatusCode())
		return err
	})

	api := s.app.Group("/api")
	api.Post("/auth/login", s.login)

	authed := api.Group("", s.verify)
	authed.Get("/employees", s.listEmployees)
	authed.Get("/tasks", s.listTasks)
	authed.Get("/tasks/stats", s.taskStats)
	authed.Post("/tasks", s.createTask)
	authed.Post("/tasks/:id/start", s.startTask)
	authed.Post("/tasks/:id/stop", s.stopTask)
	authed.Post("/tasks/:id/complete", s.completeTask)
	authed.Put("/tasks/:id/progress", s.updateProgress)
	authed.Post("/tasks/:id/assignees", s.addAssignee)
	authed.Delete("/tasks/:id/assignees", s.removeAssignee)
}

// App exposes the fiber app, e.g. for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return s.app.Listener(ln)
}

// Start listens on addr in the background and returns the base URL.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", addr, err)
	}
	go func() {
		if err := s.Serve(ln); err != nil {
			s.log.Logf("[WARN] mockapi stopped: %v", err)
		}
	}()
	return "http://" + ln.Addr().String(), nil
}

// Shutdown stops serving.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// AddUser registers a user. An empty ID is generated. Returns the stored
// actor.
func (s *Server) AddUser(a model.Actor, password string) model.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = newID()
	}
	s.users[a.ID] = userRecord{actor: a, password: password}
	if a.Email != "" {
		s.byEmail[strings.ToLower(a.Email)] = a.ID
	}
	return a
}

// IssueToken signs an access token for userID.
func (s *Server) IssueToken(userID string) (string, error) {
	s.mu.Lock()
	_, ok := s.users[userID]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("issuing token: unknown user %s", userID)
	}

	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// Seed stores tasks as given, generating IDs where missing.
func (s *Server) Seed(tasks ...model.Task) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = newID()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = s.clock.Now()
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
		s.populate(&t)
		stored := t
		s.tasks[t.ID] = &stored
		out = append(out, stored)
	}
	return out
}

// Task returns a copy of the stored task.
func (s *Server) Task(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, false
	}
	return cloneTask(*t), true
}

// verify authenticates the bearer token and stores the actor in locals.
func (s *Server) verify(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	raw := strings.TrimPrefix(header, "Bearer ")
	if header == "" || raw == header {
		return reject(c, fiber.StatusUnauthorized, "Not logged in")
	}

	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return reject(c, fiber.StatusUnauthorized, "Invalid token")
	}
	if !claims.VerifyExpiresAt(s.clock.Now(), true) {
		return reject(c, fiber.StatusUnauthorized, "Token expired")
	}

	s.mu.Lock()
	rec, ok := s.users[claims.Subject]
	s.mu.Unlock()
	if !ok {
		return reject(c, fiber.StatusUnauthorized, "User not found")
	}

	c.Locals(localsActor, rec.actor)
	return c.Next()
}

func actorFrom(c *fiber.Ctx) model.Actor {
	a, _ := c.Locals(localsActor).(model.Actor)
	return a
}

func respond(c *fiber.Ctx, code int, data interface{}) error {
	return c.Status(code).JSON(fiber.Map{"success": true, "data": data})
}

func reject(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(fiber.Map{"success": false, "message": message})
}
