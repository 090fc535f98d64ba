// Package authz holds the row-level access rules for tasks.
//
// Two pure predicates decide what a requester may do with a single task,
// and VisibleTo expresses the view predicate as a query scope so listings
// never return rows the requester could not fetch individually. Handlers
// and middleware call these instead of re-deriving role checks per route.
package authz

import (
	"gorm.io/gorm"

	"github.com/taskboard/taskboard-api/internal/models"
)

// CanView reports whether the user may read the task: administrators see
// everything, others only tasks they created or are assigned to.
func CanView(user *models.User, task *models.Task) bool {
	if user.IsAdmin() {
		return true
	}
	if task.CreatedBy == user.ID {
		return true
	}
	return task.AssignedTo != nil && *task.AssignedTo == user.ID
}

// CanMutate reports whether the user may update or delete the task.
// Assignment alone grants visibility, never mutation.
func CanMutate(user *models.User, task *models.Task) bool {
	return user.IsAdmin() || task.CreatedBy == user.ID
}

// VisibleTo returns a GORM scope restricting a tasks query to rows CanView
// would allow. Administrators get no restriction.
func VisibleTo(user *models.User) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if user.IsAdmin() {
			return db
		}
		return db.Where("tasks.created_by = ? OR tasks.assigned_to = ?", user.ID, user.ID)
	}
}
