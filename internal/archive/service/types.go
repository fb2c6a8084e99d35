package service

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/file-archive-backend/internal/archive/biz"
	"github.com/lk2023060901/file-archive-backend/internal/pkg/response"
)

// FileRecordResponse is the API shape of a record. The legacy boolean
// flags are derived from the lifecycle state for client compatibility.
type FileRecordResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	Extension   string `json:"extension,omitempty"`
	Category    string `json:"category"`
	ItemID      string `json:"item_id,omitempty"`
	Version     int    `json:"version"`
	Size        int64  `json:"size"`
	Description string `json:"description,omitempty"`

	State       string `json:"state"`
	IsScheduled bool   `json:"is_scheduled"`
	IsProcessed bool   `json:"is_processed"`
	IsDeleted   bool   `json:"is_deleted"`
	IsArchived  bool   `json:"is_archived"`

	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`

	DeletedBy string     `json:"deleted_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	ArchivedBy     string     `json:"archived_by,omitempty"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	ArchivedReason string     `json:"archived_reason,omitempty"`
}

func toRecordResponse(record *biz.FileRecord) *FileRecordResponse {
	return &FileRecordResponse{
		ID:          record.ID,
		FileName:    record.FileName,
		Extension:   record.Extension,
		Category:    record.Category,
		ItemID:      record.ItemID,
		Version:     record.Version,
		Size:        record.Size,
		Description: record.Description,

		State:       string(record.State),
		IsScheduled: record.Scheduled,
		IsProcessed: record.Processed,
		IsDeleted:   record.State == biz.StateTrashed,
		IsArchived:  record.State == biz.StateArchived,

		CreatedBy: record.CreatedBy,
		CreatedAt: record.CreatedAt,
		UpdatedBy: record.UpdatedBy,
		UpdatedAt: record.UpdatedAt,

		DeletedBy: record.DeletedBy,
		DeletedAt: record.DeletedAt,

		ArchivedBy:     record.ArchivedBy,
		ArchivedAt:     record.ArchivedAt,
		ArchivedReason: record.ArchivedReason,
	}
}

func toRecordResponses(records []*biz.FileRecord) []*FileRecordResponse {
	responses := make([]*FileRecordResponse, len(records))
	for i, record := range records {
		responses[i] = toRecordResponse(record)
	}
	return responses
}

// handleError maps the lifecycle error taxonomy onto HTTP statuses:
// policy violations and conflicts are 409, missing records 404,
// validation 400, everything else 500.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrRecordNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, biz.ErrRetentionExpired),
		errors.Is(err, biz.ErrAlreadyArchived),
		errors.Is(err, biz.ErrNotArchived),
		errors.Is(err, biz.ErrNotArchivable),
		errors.Is(err, biz.ErrNotTrashed),
		errors.Is(err, biz.ErrNotTrashable),
		errors.Is(err, biz.ErrAlreadyProcessed):
		response.Conflict(c, err.Error())
	case errors.Is(err, biz.ErrReasonRequired),
		errors.Is(err, biz.ErrFileNameRequired),
		errors.Is(err, biz.ErrCategoryRequired),
		errors.Is(err, biz.ErrEmptyFile):
		response.BadRequest(c, err.Error())
	case errors.Is(err, biz.ErrVersionLockTimeout):
		response.Error(c, http.StatusServiceUnavailable, err.Error())
	default:
		response.InternalError(c, err.Error())
	}
}

// actor resolves the acting user injected by the gateway; auth itself
// is out of scope here.
func actor(c *gin.Context) string {
	if name := c.GetHeader("X-Actor"); name != "" {
		return name
	}
	return "anonymous"
}
