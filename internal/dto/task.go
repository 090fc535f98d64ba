package dto

import (
	"time"

	"github.com/taskboard/taskboard-api/internal/models"
)

// AttachmentDTO represents an attachment in API responses.
type AttachmentDTO struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}

// TaskDTO represents a task in API responses. Creator and assignee emails
// are surfaced directly so clients need no second round trip.
type TaskDTO struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Status          models.TaskStatus   `json:"status"`
	Priority        models.TaskPriority `json:"priority"`
	DueDate         *time.Time          `json:"due_date"`
	CreatedBy       string              `json:"created_by"`
	AssignedTo      *string             `json:"assigned_to"`
	CreatedByEmail  string              `json:"created_by_email,omitempty"`
	AssignedToEmail string              `json:"assigned_to_email,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Attachments     []AttachmentDTO     `json:"attachments,omitempty"`
}

// TaskListDTO is the listing payload: one page of tasks plus pagination
// metadata.
type TaskListDTO struct {
	Tasks      []TaskDTO  `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

// ToAttachmentDTO converts a TaskAttachment model to AttachmentDTO
func ToAttachmentDTO(attachment models.TaskAttachment) AttachmentDTO {
	return AttachmentDTO{
		ID:           attachment.ID,
		Filename:     attachment.Filename,
		OriginalName: attachment.OriginalName,
		MimeType:     attachment.MimeType,
		Size:         attachment.Size,
		CreatedAt:    attachment.CreatedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		CreatedBy:   task.CreatedBy,
		AssignedTo:  task.AssignedTo,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Emails come from preloaded relations when present
	if task.Creator != nil {
		dto.CreatedByEmail = task.Creator.Email
	}
	if task.Assignee != nil {
		dto.AssignedToEmail = task.Assignee.Email
	}

	if len(task.Attachments) > 0 {
		dto.Attachments = make([]AttachmentDTO, len(task.Attachments))
		for i, attachment := range task.Attachments {
			dto.Attachments[i] = ToAttachmentDTO(attachment)
		}
	}

	return dto
}

// ToTaskListDTO converts a page of tasks to TaskListDTO.
func ToTaskListDTO(tasks []models.Task, page, limit int, total int64) TaskListDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListDTO{
		Tasks:      items,
		Pagination: NewPagination(page, limit, total),
	}
}
