package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/nhle/crm-dashboard/internal/model"
)

// UserRef is a user reference as the backend sends it: either a bare id
// string or a populated object.
type UserRef struct {
	ID          string `json:"_id"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Designation string `json:"designation,omitempty"`
}

// UnmarshalJSON accepts both the id-only and the populated forms.
func (u *UserRef) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*u = UserRef{ID: id}
		return nil
	}
	type plain UserRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = UserRef(p)
	return nil
}

// ProjectRef is a project reference, id-only or populated.
type ProjectRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

// UnmarshalJSON accepts both the id-only and the populated forms.
func (p *ProjectRef) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*p = ProjectRef{ID: id}
		return nil
	}
	type plain ProjectRef
	var pp plain
	if err := json.Unmarshal(data, &pp); err != nil {
		return err
	}
	*p = ProjectRef(pp)
	return nil
}

// Assignee is one entry of a task's assignedTo list.
type Assignee struct {
	User UserRef `json:"user"`
	Role string  `json:"role,omitempty"`
}

// Progress is the wire form of the phase-based progress.
type Progress struct {
	Percentage   int    `json:"percentage"`
	CurrentPhase string `json:"currentPhase"`
}

// Session is a closed time-tracking interval. Duration is milliseconds.
type Session struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Duration  int64     `json:"duration"`
}

// Tracker is a per-user time-tracking record. TotalTimeSpent is
// milliseconds.
type Tracker struct {
	User                UserRef    `json:"user"`
	IsActive            bool       `json:"isActive"`
	CurrentSessionStart *time.Time `json:"currentSessionStart"`
	TotalTimeSpent      int64      `json:"totalTimeSpent"`
	Sessions            []Session  `json:"sessions"`
}

// Task is the backend's task document.
type Task struct {
	ID             string      `json:"_id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Status         string      `json:"status"`
	Priority       string      `json:"priority"`
	DueDate        *time.Time  `json:"dueDate,omitempty"`
	AssignedTo     []Assignee  `json:"assignedTo"`
	Progress       Progress    `json:"progress"`
	TimeTracking   []Tracker   `json:"timeTracking"`
	Project        *ProjectRef `json:"project,omitempty"`
	EstimatedHours float64     `json:"estimatedHours"`
	Category       string      `json:"category,omitempty"`
	CreatedBy      *UserRef    `json:"createdBy,omitempty"`
	CompletedDate  *time.Time  `json:"completedDate,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Stats is the wire form of GET /api/tasks/stats.
type Stats struct {
	TotalTasks   int            `json:"totalTasks"`
	ByStatus     map[string]int `json:"byStatus"`
	OverdueTasks int            `json:"overdueTasks"`
}

// User is the signed-in user returned by login and the employee directory.
type User struct {
	ID          string `json:"_id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Designation string `json:"designation,omitempty"`
}

// Tokens is the token pair issued at login.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type taskData struct {
	Task Task `json:"task"`
}

type tasksData struct {
	Tasks []Task `json:"tasks"`
}

type statsData struct {
	Stats Stats `json:"stats"`
}

type employeesData struct {
	Employees []User `json:"employees"`
}

// LoginResult is the data of a successful POST /api/auth/login.
type LoginResult struct {
	User   User   `json:"user"`
	Tokens Tokens `json:"tokens"`
}

func msToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func (u UserRef) toModel() model.UserRef {
	return model.UserRef{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Designation: u.Designation,
	}
}

func userRefFromModel(u model.UserRef) UserRef {
	return UserRef{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Designation: u.Designation,
	}
}

// ToModel converts the wire user into the signed-in actor.
func (u User) ToModel() model.Actor {
	return model.Actor{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Role:        model.Role(u.Role),
		Designation: u.Designation,
	}
}

// UserFromModel converts an actor into its wire form.
func UserFromModel(a model.Actor) User {
	return User{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Email:       a.Email,
		Role:        string(a.Role),
		Designation: a.Designation,
	}
}

// ToModel converts the wire stats.
func (s Stats) ToModel() model.TaskStats {
	byStatus := make(map[model.TaskStatus]int, len(s.ByStatus))
	for k, v := range s.ByStatus {
		byStatus[model.TaskStatus(k)] = v
	}
	return model.TaskStats{
		TotalTasks:   s.TotalTasks,
		ByStatus:     byStatus,
		OverdueTasks: s.OverdueTasks,
	}
}

// StatsFromModel converts stats into their wire form.
func StatsFromModel(s model.TaskStats) Stats {
	byStatus := make(map[string]int, len(s.ByStatus))
	for k, v := range s.ByStatus {
		byStatus[string(k)] = v
	}
	return Stats{TotalTasks: s.TotalTasks, ByStatus: byStatus, OverdueTasks: s.OverdueTasks}
}

// ToModel maps a wire task onto the domain model.
func (t Task) ToModel() model.Task {
	task := model.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      model.TaskStatus(t.Status),
		Priority:    model.Priority(t.Priority),
		DueDate:     t.DueDate,
		Progress: model.Progress{
			Percentage:   t.Progress.Percentage,
			CurrentPhase: model.Phase(t.Progress.CurrentPhase),
		},
		EstimatedHours: t.EstimatedHours,
		Category:       t.Category,
		CompletedDate:  t.CompletedDate,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}

	if t.Project != nil {
		task.ProjectID = t.Project.ID
		task.ProjectName = t.Project.Name
	}
	if t.CreatedBy != nil {
		ref := t.CreatedBy.toModel()
		task.CreatedBy = &ref
	}

	task.AssignedTo = make([]model.Assignee, 0, len(t.AssignedTo))
	for _, a := range t.AssignedTo {
		task.AssignedTo = append(task.AssignedTo, model.Assignee{User: a.User.toModel(), Role: a.Role})
	}

	task.TimeTracking = make([]model.Tracker, 0, len(t.TimeTracking))
	for _, tr := range t.TimeTracking {
		mt := model.Tracker{
			User:           tr.User.toModel(),
			IsActive:       tr.IsActive,
			TotalTimeSpent: msToDuration(tr.TotalTimeSpent),
			Sessions:       make([]model.TimeSession, 0, len(tr.Sessions)),
		}
		if tr.IsActive {
			mt.CurrentSessionStart = tr.CurrentSessionStart
		}
		for _, s := range tr.Sessions {
			mt.Sessions = append(mt.Sessions, model.TimeSession{
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				Duration:  msToDuration(s.Duration),
			})
		}
		task.TimeTracking = append(task.TimeTracking, mt)
	}

	return task
}

// TaskFromModel converts a domain task into its wire form.
func TaskFromModel(t model.Task) Task {
	w := Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Progress: Progress{
			Percentage:   t.Progress.Percentage,
			CurrentPhase: string(t.Progress.CurrentPhase),
		},
		EstimatedHours: t.EstimatedHours,
		Category:       t.Category,
		CompletedDate:  t.CompletedDate,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		AssignedTo:     make([]Assignee, 0, len(t.AssignedTo)),
		TimeTracking:   make([]Tracker, 0, len(t.TimeTracking)),
	}

	if t.ProjectID != "" {
		w.Project = &ProjectRef{ID: t.ProjectID, Name: t.ProjectName}
	}
	if t.CreatedBy != nil {
		ref := userRefFromModel(*t.CreatedBy)
		w.CreatedBy = &ref
	}
	for _, a := range t.AssignedTo {
		w.AssignedTo = append(w.AssignedTo, Assignee{User: userRefFromModel(a.User), Role: a.Role})
	}
	for _, tr := range t.TimeTracking {
		wt := Tracker{
			User:                userRefFromModel(tr.User),
			IsActive:            tr.IsActive,
			CurrentSessionStart: tr.CurrentSessionStart,
			TotalTimeSpent:      tr.TotalTimeSpent.Milliseconds(),
			Sessions:            make([]Session, 0, len(tr.Sessions)),
		}
		for _, s := range tr.Sessions {
			wt.Sessions = append(wt.Sessions, Session{
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				Duration:  s.Duration.Milliseconds(),
			})
		}
		w.TimeTracking = append(w.TimeTracking, wt)
	}

	return w
}
