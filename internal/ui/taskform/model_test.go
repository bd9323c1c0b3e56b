package taskform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-dashboard/internal/model"
)

func TestBuildRequest(t *testing.T) {
	req, err := BuildRequest(Values{
		Title:          "  Call back lead  ",
		Priority:       model.PriorityHigh,
		Assignees:      []string{"u1", "u2"},
		DueDate:        "2026-03-10",
		EstimatedHours: "2.5",
		Category:       "sales",
	})
	require.NoError(t, err)

	assert.Equal(t, "Call back lead", req.Title)
	assert.Equal(t, "high", req.Priority)
	assert.Equal(t, []string{"u1", "u2"}, req.AssignedTo)
	assert.Equal(t, 2.5, req.EstimatedHours)
	require.NotNil(t, req.DueDate)
	assert.Equal(t, time.Date(2026, 3, 10, 23, 59, 59, 0, time.Local), *req.DueDate)
}

func TestBuildRequestOptionalFields(t *testing.T) {
	req, err := BuildRequest(Values{Title: "x"})
	require.NoError(t, err)
	assert.Empty(t, req.AssignedTo)
	assert.Nil(t, req.DueDate)
	assert.Zero(t, req.EstimatedHours)
}

func TestBuildRequestRejectsBadInput(t *testing.T) {
	_, err := BuildRequest(Values{Title: "x", DueDate: "10/03/2026"})
	assert.Error(t, err)

	_, err = BuildRequest(Values{Title: "x", EstimatedHours: "lots"})
	assert.Error(t, err)
}

func TestValidators(t *testing.T) {
	assert.Error(t, validateRequired("Title")("   "))
	assert.NoError(t, validateOptionalDate(""))
	assert.Error(t, validateOptionalDate("tomorrow"))
	assert.Error(t, validateHours("-1"))
	assert.NoError(t, validateHours("3"))
}
