package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskAttachment records the metadata of an uploaded file. The file itself
// lives under the storage directory; Filename is the system-generated name
// on disk, OriginalName the untrusted user-supplied one.
type TaskAttachment struct {
	ID           string    `gorm:"type:uuid;primarykey" json:"id"`
	TaskID       string    `gorm:"type:uuid;not null;index" json:"task_id"`
	Filename     string    `gorm:"type:varchar(255);not null" json:"filename"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_name"`
	MimeType     string    `gorm:"type:varchar(100);not null" json:"mime_type"`
	Size         int64     `gorm:"not null" json:"size"`
	FilePath     string    `gorm:"type:varchar(500);not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	Task *Task `gorm:"foreignKey:TaskID" json:"-"`
}

func (a *TaskAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
