package biz

import "errors"

// Record lookup
var (
	ErrRecordNotFound = errors.New("file record not found")
)

// Policy violations — rejected, never retried
var (
	ErrRetentionExpired = errors.New("restore window has expired")
	ErrAlreadyArchived  = errors.New("file is already archived")
	ErrNotArchived      = errors.New("file is not archived")
	ErrNotArchivable    = errors.New("only active files can be archived")
	ErrNotTrashed       = errors.New("file is not in trash")
	ErrNotTrashable     = errors.New("file cannot be moved to trash in its current state")
	ErrReasonRequired   = errors.New("archive reason is required")
)

// Conflicts
var (
	ErrAlreadyProcessed   = errors.New("scheduled upload has already been processed")
	ErrVersionLockTimeout = errors.New("timed out waiting for version assignment lock")
)

// Validation
var (
	ErrFileNameRequired = errors.New("file name is required")
	ErrCategoryRequired = errors.New("category is required")
	ErrEmptyFile        = errors.New("file content is empty")
)
