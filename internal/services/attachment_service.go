package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taskboard/taskboard-api/internal/constants"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"github.com/taskboard/taskboard-api/internal/storage"
)

var (
	ErrNoFiles            = errors.New("no files uploaded")
	ErrTooManyAttachments = errors.New("maximum 3 attachments allowed per task")
	ErrNotPDF             = errors.New("only PDF files are allowed")
	ErrFileTooLarge       = errors.New("file exceeds the 5 MiB limit")
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// AttachmentService handles upload and download of task attachments.
type AttachmentService struct {
	attachmentRepo repository.AttachmentRepository
	files          storage.Storage
}

// NewAttachmentService creates a new AttachmentService.
func NewAttachmentService(attachmentRepo repository.AttachmentRepository, files storage.Storage) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		files:          files,
	}
}

// Upload validates and persists a batch of PDF attachments for a task. The
// first invalid file rejects the whole batch. Files hit storage before their
// metadata rows; when the metadata transaction fails the written files stay
// behind as orphans (accepted, not compensated).
func (s *AttachmentService) Upload(taskID string, files []*multipart.FileHeader) ([]models.TaskAttachment, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > constants.MaxAttachmentsPerTask {
		return nil, ErrTooManyAttachments
	}

	for _, fh := range files {
		if fh.Header.Get("Content-Type") != constants.AttachmentMimeType {
			return nil, ErrNotPDF
		}
		if fh.Size > constants.MaxAttachmentSize {
			return nil, ErrFileTooLarge
		}
	}

	existing, err := s.attachmentRepo.CountByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attachments: %w", err)
	}
	if existing+int64(len(files)) > constants.MaxAttachmentsPerTask {
		return nil, ErrTooManyAttachments
	}

	attachments := make([]models.TaskAttachment, 0, len(files))
	for _, fh := range files {
		original := filepath.Base(fh.Filename)
		stored := uuid.NewString() + "-" + original

		src, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}

		path, err := s.files.Save(stored, src)
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to store file: %w", err)
		}

		attachments = append(attachments, models.TaskAttachment{
			TaskID:       taskID,
			Filename:     stored,
			OriginalName: original,
			MimeType:     constants.AttachmentMimeType,
			Size:         fh.Size,
			FilePath:     path,
		})
	}

	if err := s.attachmentRepo.CreateBatch(taskID, attachments, constants.MaxAttachmentsPerTask); err != nil {
		if errors.Is(err, repository.ErrAttachmentLimit) {
			return nil, ErrTooManyAttachments
		}
		return nil, fmt.Errorf("failed to record attachments: %w", err)
	}

	return attachments, nil
}

// Download resolves a stored filename to its metadata and on-disk location.
func (s *AttachmentService) Download(taskID, filename string) (*models.TaskAttachment, string, error) {
	attachment, err := s.attachmentRepo.FindByTaskAndFilename(taskID, filename)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrAttachmentNotFound
		}
		return nil, "", fmt.Errorf("failed to find attachment: %w", err)
	}

	path, err := s.files.Path(attachment.Filename)
	if err != nil {
		return nil, "", ErrAttachmentNotFound
	}

	return attachment, path, nil
}
