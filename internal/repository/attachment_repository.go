package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/taskboard/taskboard-api/internal/models"
)

// ErrAttachmentLimit is returned when inserting attachments would push a
// task over its per-task cap.
var ErrAttachmentLimit = errors.New("attachment repository: per-task attachment limit exceeded")

// GormAttachmentRepository is a GORM implementation of AttachmentRepository
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// CreateBatch inserts the attachment rows inside one transaction, counting
// existing rows first so concurrent batches serialize on the insert instead
// of racing an unguarded application-level pre-check.
func (r *GormAttachmentRepository) CreateBatch(taskID string, attachments []models.TaskAttachment, maxPerTask int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.TaskAttachment{}).
			Where("task_id = ?", taskID).
			Count(&existing).Error; err != nil {
			return err
		}

		if existing+int64(len(attachments)) > int64(maxPerTask) {
			return ErrAttachmentLimit
		}

		for i := range attachments {
			attachments[i].TaskID = taskID
		}

		return tx.Create(&attachments).Error
	})
}

// FindByTaskAndFilename finds an attachment by its stored filename.
func (r *GormAttachmentRepository) FindByTaskAndFilename(taskID, filename string) (*models.TaskAttachment, error) {
	var attachment models.TaskAttachment
	err := r.db.Where("task_id = ? AND filename = ?", taskID, filename).
		First(&attachment).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

// CountByTask counts the attachments recorded for a task.
func (r *GormAttachmentRepository) CountByTask(taskID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.TaskAttachment{}).
		Where("task_id = ?", taskID).
		Count(&count).Error
	return count, err
}
