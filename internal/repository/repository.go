package repository

import (
	"github.com/taskboard/taskboard-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id string, preload ...string) (*models.Task, error)

	// List retrieves tasks visible to the filter's requester, with
	// filtering, sorting and pagination. Returns the page and the total
	// matching row count.
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete deletes a task and its attachment rows, returning the file
	// paths of the removed attachments so callers can unlink them.
	Delete(id string) ([]string, error)
}

// TaskFilter holds the query-builder inputs for listing tasks. Each set
// field becomes one conjunctive parameterized predicate; Requester supplies
// the visibility fragment.
type TaskFilter struct {
	Requester *models.User
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// List retrieves users ordered by creation time, newest first.
	List(page, limit int) ([]models.User, int64, error)

	// Update updates a user
	Update(user *models.User) error

	// Delete deletes a user, cascading to the tasks they created (and
	// those tasks' attachment rows) and clearing assignments elsewhere.
	// Returns the file paths of removed attachments.
	Delete(id string) ([]string, error)
}

// AttachmentRepository defines the interface for attachment metadata access
type AttachmentRepository interface {
	// CreateBatch inserts attachment rows for a task. The per-task cap is
	// re-checked inside the insert transaction; ErrAttachmentLimit is
	// returned when existing + new would exceed it.
	CreateBatch(taskID string, attachments []models.TaskAttachment, maxPerTask int) error

	// FindByTaskAndFilename finds an attachment by its stored filename.
	FindByTaskAndFilename(taskID, filename string) (*models.TaskAttachment, error)

	// CountByTask counts the attachments recorded for a task.
	CountByTask(taskID string) (int64, error)
}
