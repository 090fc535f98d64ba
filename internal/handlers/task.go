package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskboard/taskboard-api/internal/constants"
	"github.com/taskboard/taskboard-api/internal/dto"
	apierrors "github.com/taskboard/taskboard-api/internal/errors"
	"github.com/taskboard/taskboard-api/internal/middleware"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/services"
)

// TaskHandler coordinates task CRUD and attachment HTTP handlers.
type TaskHandler struct {
	taskService       *services.TaskService
	attachmentService *services.AttachmentService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, attachmentService *services.AttachmentService) *TaskHandler {
	return &TaskHandler{
		taskService:       taskService,
		attachmentService: attachmentService,
	}
}

// ListTasks returns the filtered, sorted, paginated listing of tasks
// visible to the requester.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, exists := middleware.CurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type ListTasksQuery struct {
		Page      *int   `form:"page" binding:"omitempty,min=1"`
		Limit     *int   `form:"limit" binding:"omitempty,min=1,max=100"`
		Status    string `form:"status" binding:"omitempty,oneof=pending in_progress completed"`
		Priority  string `form:"priority" binding:"omitempty,oneof=low medium high"`
		SortBy    string `form:"sortBy" binding:"omitempty,oneof=created_at due_date priority status"`
		SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
		Search    string `form:"search"`
	}

	var q ListTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters")
		return
	}

	page := constants.DefaultPage
	if q.Page != nil {
		page = *q.Page
	}
	limit := constants.DefaultPageSize
	if q.Limit != nil {
		limit = *q.Limit
	}
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder := q.SortOrder
	if sortOrder == "" {
		sortOrder = "desc"
	}

	input := services.ListTasksInput{
		Search:    q.Search,
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Page:      page,
		Limit:     limit,
	}
	if q.Status != "" {
		status := models.TaskStatus(q.Status)
		input.Status = &status
	}
	if q.Priority != "" {
		priority := models.TaskPriority(q.Priority)
		input.Priority = &priority
	}

	tasks, total, err := h.taskService.ListTasks(user, input)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.OK(dto.ToTaskListDTO(tasks, page, limit, total)))
}

// GetTask returns a single task with its attachments. The task is loaded
// and authorized by RequireTaskAccess.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, exists := middleware.TaskFromContext(c)
	if !exists {
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, dto.OK(gin.H{
		"task": dto.ToTaskDTO(*task),
	}))
}

// CreateTask creates a task owned by the requester.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, exists := middleware.CurrentUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string  `json:"title" binding:"required,max=255"`
		Description string  `json:"description"`
		Status      string  `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
		Priority    string  `json:"priority" binding:"omitempty,oneof=low medium high"`
		DueDate     *string `json:"due_date"`
		AssignedTo  *string `json:"assigned_to"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		apierrors.BadRequest(c, "Due date must be a valid date in ISO format")
		return
	}

	task, err := h.taskService.CreateTask(user, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     dueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.OKWithMessage("Task created successfully", gin.H{
		"task": dto.ToTaskDTO(*task),
	}))
}

// UpdateTask applies a partial update: only keys present in the body
// change, an explicit null clears due_date or assigned_to, and an empty
// body is rejected.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, exists := middleware.TaskFromContext(c)
	if !exists {
		apierrors.InternalError(c, "")
		return
	}

	input, err := bindTaskUpdate(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	updated, err := h.taskService.UpdateTask(task.ID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMessage("Task updated successfully", gin.H{
		"task": dto.ToTaskDTO(*updated),
	}))
}

// DeleteTask deletes a task, its attachment rows and the stored files.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, exists := middleware.TaskFromContext(c)
	if !exists {
		apierrors.InternalError(c, "")
		return
	}

	if err := h.taskService.DeleteTask(task.ID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMessage("Task deleted successfully", nil))
}

// UploadAttachments accepts up to 3 PDF files for a task.
func (h *TaskHandler) UploadAttachments(c *gin.Context) {
	task, exists := middleware.TaskFromContext(c)
	if !exists {
		apierrors.InternalError(c, "")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		apierrors.BadRequest(c, "Invalid multipart form")
		return
	}

	attachments, err := h.attachmentService.Upload(task.ID, form.File["files"])
	if err != nil {
		respondTaskError(c, err)
		return
	}

	items := make([]dto.AttachmentDTO, len(attachments))
	for i, attachment := range attachments {
		items[i] = dto.ToAttachmentDTO(attachment)
	}

	c.JSON(http.StatusOK, dto.OKWithMessage("Files uploaded successfully", gin.H{
		"attachments": items,
	}))
}

// DownloadAttachment streams a stored attachment with its original name.
func (h *TaskHandler) DownloadAttachment(c *gin.Context) {
	task, exists := middleware.TaskFromContext(c)
	if !exists {
		apierrors.InternalError(c, "")
		return
	}

	attachment, path, err := h.attachmentService.Download(task.ID, c.Param("filename"))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.Header("Content-Type", attachment.MimeType)
	c.FileAttachment(path, attachment.OriginalName)
}

// bindTaskUpdate reads the raw body once to tell "absent" from "explicitly
// null" for the nullable fields, then validates the typed values.
func bindTaskUpdate(c *gin.Context) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	raw, err := c.GetRawData()
	if err != nil {
		return input, errors.New("Invalid request body")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return input, errors.New("Invalid request body")
	}
	if len(fields) == 0 {
		return input, errors.New("No fields to update")
	}

	if v, ok := fields["title"]; ok {
		var title string
		if err := json.Unmarshal(v, &title); err != nil {
			return input, errors.New("Invalid title")
		}
		if len(title) > constants.MaxTitleLength {
			return input, errors.New("Title must not exceed 255 characters")
		}
		input.Title = &title
	}
	if v, ok := fields["description"]; ok {
		var description string
		if err := json.Unmarshal(v, &description); err != nil {
			return input, errors.New("Invalid description")
		}
		input.Description = &description
	}
	if v, ok := fields["status"]; ok {
		var status models.TaskStatus
		if err := json.Unmarshal(v, &status); err != nil || !status.Valid() {
			return input, errors.New("Invalid status")
		}
		input.Status = &status
	}
	if v, ok := fields["priority"]; ok {
		var priority models.TaskPriority
		if err := json.Unmarshal(v, &priority); err != nil || !priority.Valid() {
			return input, errors.New("Invalid priority")
		}
		input.Priority = &priority
	}
	if v, ok := fields["due_date"]; ok {
		var s *string
		if err := json.Unmarshal(v, &s); err != nil {
			return input, errors.New("Due date must be a valid date in ISO format")
		}
		if s == nil {
			input.ClearDueDate = true
		} else {
			dueDate, err := parseDueDate(s)
			if err != nil {
				return input, errors.New("Due date must be a valid date in ISO format")
			}
			input.DueDate = dueDate
		}
	}
	if v, ok := fields["assigned_to"]; ok {
		var s *string
		if err := json.Unmarshal(v, &s); err != nil {
			return input, errors.New("Invalid assigned_to")
		}
		if s == nil {
			input.ClearAssignee = true
		} else {
			input.AssignedTo = s
		}
	}

	return input, nil
}

// parseDueDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDueDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}

	if t, err := time.Parse("2006-01-02", *s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrAssigneeNotFound),
		errors.Is(err, services.ErrNoFieldsToUpdate),
		errors.Is(err, services.ErrNoFiles),
		errors.Is(err, services.ErrTooManyAttachments),
		errors.Is(err, services.ErrNotPDF),
		errors.Is(err, services.ErrFileTooLarge):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAttachmentNotFound):
		apierrors.NotFound(c, "File not found")
	default:
		apierrors.InternalError(c, "")
	}
}
