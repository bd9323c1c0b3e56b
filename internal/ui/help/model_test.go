package help

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/crm-dashboard/internal/keys"
)

func TestFullHelpHidesManagementForAssignees(t *testing.T) {
	km := keys.DefaultKeyMap()

	contains := func(groups [][]string, want string) bool {
		for _, g := range groups {
			for _, k := range g {
				if k == want {
					return true
				}
			}
		}
		return false
	}
	names := func(b bindings) [][]string {
		var out [][]string
		for _, g := range b.FullHelp() {
			var row []string
			for _, kb := range g {
				row = append(row, kb.Help().Desc)
			}
			out = append(out, row)
		}
		return out
	}

	manager := names(bindings{km: km, manages: true})
	assert.True(t, contains(manager, "new task"))
	assert.True(t, contains(manager, "notifications"))

	employee := names(bindings{km: km})
	assert.False(t, contains(employee, "new task"))
	assert.False(t, contains(employee, "add assignee"))
	assert.True(t, contains(employee, "start"))
}
