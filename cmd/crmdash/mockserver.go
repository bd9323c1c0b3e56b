package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nhle/crm-dashboard/internal/mockapi"
	"github.com/nhle/crm-dashboard/internal/model"
)

const demoPassword = "password"

func runMockServer(args []string) error {
	mockFlags := flag.NewFlagSet("mock-server", flag.ContinueOnError)
	addr := mockFlags.String("addr", "127.0.0.1:5000", "Listen address")
	empty := mockFlags.Bool("empty", false, "Start without demo users and tasks")
	if err := mockFlags.Parse(args); err != nil {
		return err
	}

	log := newLogger(os.Stderr, true)
	srv := mockapi.New(mockapi.WithLogger(log), mockapi.WithClock(clock))
	if !*empty {
		seedDemo(srv, clock.Now())
	}

	url, err := srv.Start(*addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Mock backend listening on %s\n", url)
	if !*empty {
		fmt.Fprintf(out, "Demo accounts (password %q): admin@demo.test, pm@demo.test, dev@demo.test, sales@demo.test\n", demoPassword)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Logf("[INFO] shutting down mock backend")
	return srv.Shutdown()
}

// seedDemo registers one user per dashboard and a handful of tasks.
func seedDemo(srv *mockapi.Server, now time.Time) {
	srv.AddUser(model.Actor{
		ID: "u-admin", FirstName: "Ada", LastName: "Admin",
		Email: "admin@demo.test", Role: model.RoleAdmin,
	}, demoPassword)
	pm := srv.AddUser(model.Actor{
		ID: "u-pm", FirstName: "Petra", LastName: "Manager",
		Email: "pm@demo.test", Role: model.RoleProjectManager,
	}, demoPassword)
	dev := srv.AddUser(model.Actor{
		ID: "u-dev", FirstName: "Dan", LastName: "Developer",
		Email: "dev@demo.test", Role: model.RoleEmployee, Designation: "developer",
	}, demoPassword)
	sales := srv.AddUser(model.Actor{
		ID: "u-sales", FirstName: "Sam", LastName: "Seller",
		Email: "sales@demo.test", Role: model.RoleEmployee, Designation: model.DesignationSales,
	}, demoPassword)

	day := func(d int) *time.Time {
		t := now.AddDate(0, 0, d)
		return &t
	}
	assign := func(users ...model.Actor) []model.Assignee {
		refs := make([]model.Assignee, 0, len(users))
		for _, u := range users {
			refs = append(refs, model.Assignee{User: u.Ref(), Role: "assignee"})
		}
		return refs
	}
	creator := pm.Ref()

	srv.Seed(
		model.Task{
			Title:          "Prepare Q3 pipeline review",
			Description:    "Collect open deals and forecast numbers.",
			Status:         model.StatusPending,
			Priority:       model.PriorityHigh,
			DueDate:        day(3),
			AssignedTo:     assign(sales),
			Progress:       model.Progress{CurrentPhase: model.PhasePlanning},
			EstimatedHours: 6,
			Category:       "sales",
			CreatedBy:      &creator,
		},
		model.Task{
			Title:          "Fix invoice export rounding",
			Description:    "Totals are off by one cent on multi-currency invoices.",
			Status:         model.StatusPending,
			Priority:       model.PriorityCritical,
			DueDate:        day(1),
			AssignedTo:     assign(dev),
			Progress:       model.Progress{Percentage: 20, CurrentPhase: model.PhaseDevelopment},
			EstimatedHours: 4,
			Category:       "engineering",
			CreatedBy:      &creator,
		},
		model.Task{
			Title:          "Onboard new client workspace",
			Status:         model.StatusPending,
			Priority:       model.PriorityMedium,
			DueDate:        day(7),
			AssignedTo:     assign(dev, sales),
			Progress:       model.Progress{CurrentPhase: model.PhasePlanning},
			EstimatedHours: 10,
			Category:       "onboarding",
			CreatedBy:      &creator,
		},
		model.Task{
			Title:      "Update CRM field mapping",
			Status:     model.StatusPending,
			Priority:   model.PriorityLow,
			DueDate:    day(-2),
			AssignedTo: assign(dev),
			Progress:   model.Progress{CurrentPhase: model.PhasePlanning},
			Category:   "engineering",
			CreatedBy:  &creator,
		},
	)
}
