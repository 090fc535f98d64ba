package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/taskboard/taskboard-api/internal/authz"
	"github.com/taskboard/taskboard-api/internal/models"
)

// sortColumns whitelists the sortable fields. Anything else is rejected at
// the validation boundary before a filter reaches List.
var sortColumns = map[string]string{
	"created_at": "tasks.created_at",
	"due_date":   "tasks.due_date",
	"priority":   "tasks.priority",
	"status":     "tasks.status",
}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id string, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, "tasks.id = ?", id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with visibility restriction, filtering, sorting and
// pagination. The predicates are ANDed together, each carrying its own bound
// value; the total is counted with the same predicate set before the page is
// cut.
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{}).Scopes(authz.VisibleTo(filter.Requester))

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(tasks.title) LIKE ? OR LOWER(tasks.description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "tasks.created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	listQuery := query.Order(column + " " + direction)

	if filter.Page > 0 && filter.Limit > 0 {
		offset := (filter.Page - 1) * filter.Limit
		listQuery = listQuery.Offset(offset).Limit(filter.Limit)
	}

	if err := listQuery.Preload("Creator").Preload("Assignee").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// Delete deletes a task and its attachment rows in one transaction. File
// removal is the caller's problem; the paths are returned for best-effort
// cleanup after the transaction commits.
func (r *GormTaskRepository) Delete(id string) ([]string, error) {
	var paths []string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TaskAttachment{}).
			Where("task_id = ?", id).
			Pluck("file_path", &paths).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAttachment{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}
