package constants

// Validation limits
const (
	MinPasswordLength = 6
	MaxTitleLength    = 255
)

// Attachment limits
const (
	MaxAttachmentsPerTask = 3
	MaxAttachmentSize     = 5 << 20 // 5 MiB
	AttachmentMimeType    = "application/pdf"
)

// Pagination defaults
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Gin context keys
const (
	ContextKeyUser = "current_user"
	ContextKeyTask = "task"
)
