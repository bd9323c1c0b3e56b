package mockapi

import (
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nhle/crm-dashboard/internal/access"
	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/model"
)

var validate = validator.New()

func (s *Server) login(c *fiber.Ctx) error {
	var req api.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return reject(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return reject(c, fiber.StatusBadRequest, "Email and password are required")
	}

	s.mu.Lock()
	id, found := s.byEmail[strings.ToLower(req.Email)]
	rec := s.users[id]
	s.mu.Unlock()

	if !found || rec.password != req.Password {
		return reject(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	token, err := s.IssueToken(rec.actor.ID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, api.LoginResult{
		User:   api.UserFromModel(rec.actor),
		Tokens: api.Tokens{AccessToken: token, RefreshToken: uuid.NewString()},
	})
}

func (s *Server) listEmployees(c *fiber.Ctx) error {
	if !access.CanManageTasks(actorFrom(c)) {
		return reject(c, fiber.StatusForbidden, "Access denied")
	}

	s.mu.Lock()
	users := make([]api.User, 0, len(s.users))
	for _, rec := range s.users {
		users = append(users, api.UserFromModel(rec.actor))
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].FirstName != users[j].FirstName {
			return users[i].FirstName < users[j].FirstName
		}
		return users[i].ID < users[j].ID
	})
	return respond(c, fiber.StatusOK, fiber.Map{"employees": users})
}

// visible returns the tasks the actor may see, newest first. Overdue
// marking is applied first. Caller holds s.mu.
func (s *Server) visible(a model.Actor) []model.Task {
	s.markOverdue()

	all := access.CanManageTasks(a)
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if all || t.IsAssignee(a.ID) {
			out = append(out, cloneTask(*t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Server) listTasks(c *fiber.Ctx) error {
	a := actorFrom(c)
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	limit, _ := strconv.Atoi(c.Query("limit"))

	s.mu.Lock()
	tasks := s.visible(a)
	s.mu.Unlock()

	wire := make([]api.Task, 0, len(tasks))
	for _, t := range tasks {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		wire = append(wire, api.TaskFromModel(t))
		if limit > 0 && len(wire) == limit {
			break
		}
	}
	return respond(c, fiber.StatusOK, fiber.Map{"tasks": wire})
}

func (s *Server) taskStats(c *fiber.Ctx) error {
	s.mu.Lock()
	tasks := s.visible(actorFrom(c))
	s.mu.Unlock()

	stats := model.TaskStats{TotalTasks: len(tasks), ByStatus: make(map[model.TaskStatus]int)}
	for _, t := range tasks {
		stats.ByStatus[t.Status]++
		if t.Status == model.StatusOverdue {
			stats.OverdueTasks++
		}
	}
	return respond(c, fiber.StatusOK, fiber.Map{"stats": api.StatsFromModel(stats)})
}

func (s *Server) createTask(c *fiber.Ctx) error {
	a := actorFrom(c)
	if !access.CanManageTasks(a) {
		return reject(c, fiber.StatusForbidden, "Only managers can create tasks")
	}

	var req api.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return reject(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return reject(c, fiber.StatusBadRequest, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	creator := a.Ref()
	t := model.Task{
		ID:             newID(),
		Title:          req.Title,
		Description:    req.Description,
		Status:         model.StatusPending,
		Priority:       model.Priority(req.Priority),
		DueDate:        req.DueDate,
		Progress:       model.Progress{Percentage: 0, CurrentPhase: model.PhasePlanning},
		AssignedTo:     []model.Assignee{},
		TimeTracking:   []model.Tracker{},
		ProjectID:      req.Project,
		EstimatedHours: req.EstimatedHours,
		Category:       req.Category,
		CreatedBy:      &creator,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}

	seen := make(map[string]bool)
	for _, id := range req.AssignedTo {
		if seen[id] {
			continue
		}
		seen[id] = true
		rec, found := s.users[id]
		if !found {
			return reject(c, fiber.StatusBadRequest, "Unknown assignee "+id)
		}
		t.AssignedTo = append(t.AssignedTo, model.Assignee{User: rec.actor.Ref(), Role: "assignee"})
	}

	s.tasks[t.ID] = &t
	return respond(c, fiber.StatusCreated, fiber.Map{"task": api.TaskFromModel(cloneTask(t))})
}

// withTask loads :id, checks that the actor may mutate it and runs fn
// under the lock. fn returns an HTTP status and message on rejection.
func (s *Server) withTask(c *fiber.Ctx, manage bool, fn func(a model.Actor, t *model.Task) (int, string)) error {
	a := actorFrom(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.markOverdue()
	t, found := s.tasks[c.Params("id")]
	if !found {
		return reject(c, fiber.StatusNotFound, "Task not found")
	}

	allowed := access.CanMutateTask(a, *t)
	if manage {
		allowed = access.CanManageTasks(a)
	}
	if !allowed {
		return reject(c, fiber.StatusForbidden, "You don't have permission to modify this task")
	}

	if code, msg := fn(a, t); code != 0 {
		return reject(c, code, msg)
	}
	t.UpdatedAt = s.clock.Now()
	return respond(c, fiber.StatusOK, fiber.Map{"task": api.TaskFromModel(cloneTask(*t))})
}

func (s *Server) startTask(c *fiber.Ctx) error {
	return s.withTask(c, false, func(a model.Actor, t *model.Task) (int, string) {
		return s.start(a, t)
	})
}

func (s *Server) stopTask(c *fiber.Ctx) error {
	return s.withTask(c, false, func(a model.Actor, t *model.Task) (int, string) {
		return s.stop(a, t)
	})
}

func (s *Server) completeTask(c *fiber.Ctx) error {
	return s.withTask(c, false, func(a model.Actor, t *model.Task) (int, string) {
		return s.complete(a, t)
	})
}

func (s *Server) updateProgress(c *fiber.Ctx) error {
	var req api.ProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return reject(c, fiber.StatusBadRequest, "Invalid request body")
	}
	return s.withTask(c, false, func(a model.Actor, t *model.Task) (int, string) {
		if err := validate.Struct(req); err != nil {
			return fiber.StatusBadRequest, "Percentage must be 0-100 and phase must be valid"
		}
		t.Progress = model.Progress{Percentage: req.Percentage, CurrentPhase: model.Phase(req.Phase)}
		return 0, ""
	})
}

func (s *Server) addAssignee(c *fiber.Ctx) error {
	var req api.AssigneeRequest
	if err := c.BodyParser(&req); err != nil {
		return reject(c, fiber.StatusBadRequest, "Invalid request body")
	}
	return s.withTask(c, true, func(a model.Actor, t *model.Task) (int, string) {
		if err := validate.Struct(req); err != nil {
			return fiber.StatusBadRequest, "userId is required"
		}
		rec, found := s.users[req.UserID]
		if !found {
			return fiber.StatusNotFound, "User not found"
		}
		if t.IsAssignee(req.UserID) {
			return fiber.StatusConflict, "User is already assigned to this task"
		}
		t.AssignedTo = append(t.AssignedTo, model.Assignee{User: rec.actor.Ref(), Role: "assignee"})
		return 0, ""
	})
}

func (s *Server) removeAssignee(c *fiber.Ctx) error {
	var req api.AssigneeRequest
	if err := c.BodyParser(&req); err != nil {
		return reject(c, fiber.StatusBadRequest, "Invalid request body")
	}
	return s.withTask(c, true, func(a model.Actor, t *model.Task) (int, string) {
		if err := validate.Struct(req); err != nil {
			return fiber.StatusBadRequest, "userId is required"
		}
		kept := t.AssignedTo[:0]
		for _, as := range t.AssignedTo {
			if as.User.ID != req.UserID {
				kept = append(kept, as)
			}
		}
		if len(kept) == len(t.AssignedTo) {
			return fiber.StatusNotFound, "User is not assigned to this task"
		}
		t.AssignedTo = kept
		return 0, ""
	})
}
