package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskboard/taskboard-api/internal/authz"
	"github.com/taskboard/taskboard-api/internal/constants"
	apierrors "github.com/taskboard/taskboard-api/internal/errors"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
)

// RequireTaskAccess loads the task from the :id parameter and checks the
// visibility predicate. Existence is checked first; a task the requester
// cannot see answers 404 as well, so the response never leaks that the row
// exists.
func RequireTaskAccess(tasks repository.TaskRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := CurrentUser(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := tasks.FindByID(c.Param("id"), "Creator", "Assignee", "Attachments")
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Task not found")
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		if !authz.CanView(user, task) {
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// RequireTaskOwner gates mutation to the creator or an administrator. Runs
// after RequireTaskAccess, so a visible-but-not-mutable task answers 403
// while an invisible one already answered 404.
func RequireTaskOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := CurrentUser(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, exists := TaskFromContext(c)
		if !exists {
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}

		if !authz.CanMutate(user, task) {
			apierrors.Forbidden(c, "Access denied - you can only manage your own tasks")
			c.Abort()
			return
		}

		c.Next()
	}
}

// TaskFromContext retrieves the task loaded by RequireTaskAccess.
func TaskFromContext(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}

	task, ok := value.(*models.Task)
	if !ok {
		return nil, false
	}
	return task, true
}
