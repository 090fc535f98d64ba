package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskboard/taskboard-api/internal/models"
)

func strptr(s string) *string { return &s }

func TestCanView(t *testing.T) {
	admin := &models.User{ID: "admin-1", Role: models.RoleAdmin}
	creator := &models.User{ID: "creator-1", Role: models.RoleUser}
	assignee := &models.User{ID: "assignee-1", Role: models.RoleUser}
	stranger := &models.User{ID: "stranger-1", Role: models.RoleUser}

	task := &models.Task{
		ID:         "task-1",
		CreatedBy:  creator.ID,
		AssignedTo: strptr(assignee.ID),
	}
	unassigned := &models.Task{
		ID:        "task-2",
		CreatedBy: creator.ID,
	}

	tests := []struct {
		name string
		user *models.User
		task *models.Task
		want bool
	}{
		{"admin sees everything", admin, task, true},
		{"creator sees own task", creator, task, true},
		{"assignee sees assigned task", assignee, task, true},
		{"stranger sees nothing", stranger, task, false},
		{"assignee of another task sees nothing", assignee, unassigned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(tt.user, tt.task))
		})
	}
}

func TestCanMutate(t *testing.T) {
	admin := &models.User{ID: "admin-1", Role: models.RoleAdmin}
	creator := &models.User{ID: "creator-1", Role: models.RoleUser}
	assignee := &models.User{ID: "assignee-1", Role: models.RoleUser}
	stranger := &models.User{ID: "stranger-1", Role: models.RoleUser}

	task := &models.Task{
		ID:         "task-1",
		CreatedBy:  creator.ID,
		AssignedTo: strptr(assignee.ID),
	}

	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{"admin may mutate", admin, true},
		{"creator may mutate", creator, true},
		{"assignee may not mutate", assignee, false},
		{"stranger may not mutate", stranger, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMutate(tt.user, task))
		})
	}
}

// Assignment grants visibility but never mutation; the two predicates must
// stay asymmetric.
func TestAssigneeVisibilityWithoutMutation(t *testing.T) {
	assignee := &models.User{ID: "assignee-1", Role: models.RoleUser}
	task := &models.Task{
		ID:         "task-1",
		CreatedBy:  "creator-1",
		AssignedTo: strptr(assignee.ID),
	}

	assert.True(t, CanView(assignee, task))
	assert.False(t, CanMutate(assignee, task))
}
