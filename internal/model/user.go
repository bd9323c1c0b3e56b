package model

import "strings"

// Role is the account type assigned by the backend.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleEmployee       Role = "employee"
)

// Designations refine the employee role.
const (
	DesignationProjectManager = "project_manager"
	DesignationSales          = "sales"
)

// UserRef is a read-only projection of a user referenced by a task.
type UserRef struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Designation string `json:"designation,omitempty"`
}

// DisplayName returns "First Last", falling back to the ID.
func (u UserRef) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.ID
	}
	return name
}

// Actor is the signed-in user on whose behalf requests are made.
type Actor struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Designation string `json:"designation"`
}

// Ref projects the actor into a UserRef.
func (a Actor) Ref() UserRef {
	return UserRef{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Designation: a.Designation,
	}
}

// DisplayName returns the actor's full name.
func (a Actor) DisplayName() string {
	return a.Ref().DisplayName()
}
