package access

import "github.com/nhle/crm-dashboard/internal/model"

// Dashboard is the closed set of role-specific dashboards.
type Dashboard int

const (
	DashboardEmployee Dashboard = iota
	DashboardAdmin
	DashboardProjectManager
	DashboardSales
)

// Section is one screen reachable from a dashboard.
type Section string

const (
	SectionTasks         Section = "tasks"
	SectionTimeTracking  Section = "time"
	SectionNotifications Section = "notifications"
)

// DashboardSpec describes what a dashboard shows and does.
type DashboardSpec struct {
	Title    string
	Sections []Section

	// Polls is true when the dashboard refreshes the task list on a
	// fixed interval and raises status-change notifications.
	Polls bool

	// ManagesTasks enables create and assignee management.
	ManagesTasks bool
}

var dashboards = map[Dashboard]DashboardSpec{
	DashboardAdmin: {
		Title:        "Admin Dashboard",
		Sections:     []Section{SectionTasks, SectionTimeTracking, SectionNotifications},
		Polls:        true,
		ManagesTasks: true,
	},
	DashboardProjectManager: {
		Title:        "Project Manager Dashboard",
		Sections:     []Section{SectionTasks, SectionTimeTracking, SectionNotifications},
		Polls:        true,
		ManagesTasks: true,
	},
	DashboardEmployee: {
		Title:    "Employee Dashboard",
		Sections: []Section{SectionTasks, SectionTimeTracking},
	},
	DashboardSales: {
		Title:    "Sales Dashboard",
		Sections: []Section{SectionTasks, SectionTimeTracking},
	},
}

// ResolveDashboard picks the dashboard for an actor. It is evaluated once
// when the session starts.
func ResolveDashboard(a model.Actor) Dashboard {
	switch {
	case a.Role == model.RoleAdmin:
		return DashboardAdmin
	case CanManageTasks(a):
		return DashboardProjectManager
	case a.Role == model.RoleEmployee && a.Designation == model.DesignationSales:
		return DashboardSales
	default:
		return DashboardEmployee
	}
}

// Spec returns the dashboard description from the lookup table.
func (d Dashboard) Spec() DashboardSpec {
	spec, ok := dashboards[d]
	if !ok {
		return dashboards[DashboardEmployee]
	}
	return spec
}

// Has reports whether the dashboard includes the section.
func (d Dashboard) Has(s Section) bool {
	for _, sec := range d.Spec().Sections {
		if sec == s {
			return true
		}
	}
	return false
}

func (d Dashboard) String() string {
	switch d {
	case DashboardAdmin:
		return "admin"
	case DashboardProjectManager:
		return "project_manager"
	case DashboardSales:
		return "sales"
	default:
		return "employee"
	}
}
