package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// humanize turns a snake_case enum value into lower-case words.
func humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

// Label returns the status in title case, e.g. "In Progress".
func (s TaskStatus) Label() string { return titleCaser.String(humanize(string(s))) }

// Words returns the status as plain words, e.g. "in progress".
func (s TaskStatus) Words() string { return humanize(string(s)) }

// Label returns the priority in title case.
func (p Priority) Label() string { return titleCaser.String(string(p)) }

// Label returns the phase in title case.
func (ph Phase) Label() string { return titleCaser.String(string(ph)) }

// Label returns the role in title case, e.g. "Project Manager".
func (r Role) Label() string { return titleCaser.String(humanize(string(r))) }

// AssigneeNames joins the display names of every assignee, or returns
// "Unknown" when there are none.
func (t Task) AssigneeNames() string {
	if len(t.AssignedTo) == 0 {
		return "Unknown"
	}
	names := make([]string, 0, len(t.AssignedTo))
	for _, a := range t.AssignedTo {
		names = append(names, a.User.DisplayName())
	}
	return strings.Join(names, ", ")
}
