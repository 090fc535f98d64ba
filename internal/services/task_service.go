package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"github.com/taskboard/taskboard-api/internal/storage"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTitleRequired    = errors.New("title is required")
	ErrTitleEmpty       = errors.New("title cannot be empty")
	ErrAssigneeNotFound = errors.New("assigned user not found")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	files    storage.Storage
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, files storage.Storage) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		files:    files,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// ListTasks returns the page of tasks visible to the requester plus the
// total matching count.
func (s *TaskService) ListTasks(requester *models.User, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Requester: requester,
		Status:    input.Status,
		Priority:  input.Priority,
		Search:    input.Search,
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
		Page:      input.Page,
		Limit:     input.Limit,
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	AssignedTo  *string
}

// CreateTask creates a task owned by the requester. An assignee, when
// supplied, must exist at this point; a later deletion clears the reference
// instead.
func (s *TaskService) CreateTask(creator *models.User, input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}

	if input.AssignedTo != nil {
		if err := s.ensureUserExists(*input.AssignedTo); err != nil {
			return nil, err
		}
	}

	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   creator.ID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
}

// UpdateTaskInput represents input for updating a task. Nil pointers mean
// "leave unchanged"; the Clear flags carry an explicit null from the request
// body for the two nullable columns.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	DueDate       *time.Time
	ClearDueDate  bool
	AssignedTo    *string
	ClearAssignee bool
}

func (in UpdateTaskInput) empty() bool {
	return in.Title == nil &&
		in.Description == nil &&
		in.Status == nil &&
		in.Priority == nil &&
		in.DueDate == nil && !in.ClearDueDate &&
		in.AssignedTo == nil && !in.ClearAssignee
}

// UpdateTask applies a partial update to a task the caller has already been
// authorized to mutate.
func (s *TaskService) UpdateTask(taskID string, input UpdateTaskInput) (*models.Task, error) {
	if input.empty() {
		return nil, ErrNoFieldsToUpdate
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.ClearAssignee {
		task.AssignedTo = nil
	} else if input.AssignedTo != nil {
		if err := s.ensureUserExists(*input.AssignedTo); err != nil {
			return nil, err
		}
		task.AssignedTo = input.AssignedTo
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
}

// DeleteTask removes the task, its attachment rows and, best effort, the
// stored files. A file left behind after a crash is accepted.
func (s *TaskService) DeleteTask(taskID string) error {
	paths, err := s.taskRepo.Delete(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	for _, p := range paths {
		if err := s.files.Remove(p); err != nil {
			log.Printf("failed to remove attachment file %s: %v", p, err)
		}
	}

	return nil
}

func (s *TaskService) ensureUserExists(id string) error {
	if _, err := s.userRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to check assignee: %w", err)
	}
	return nil
}
