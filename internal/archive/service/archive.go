package service

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/file-archive-backend/internal/pkg/response"
	"go.uber.org/zap"
)

type archiveRequest struct {
	Reason string `json:"reason"`
}

// Archive manually archives a single file; a reason is required
func (s *FileService) Archive(c *gin.Context) {
	id := c.Param("id")

	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	record, err := s.uc.Archive(c.Request.Context(), id, actor(c), req.Reason)
	if err != nil {
		s.logger.Warn("failed to archive file", zap.String("id", id), zap.Error(err))
		handleError(c, err)
		return
	}
	response.Success(c, toRecordResponse(record))
}

// Unarchive reverses an archival; no reason required
func (s *FileService) Unarchive(c *gin.Context) {
	id := c.Param("id")
	record, err := s.uc.Unarchive(c.Request.Context(), id, actor(c))
	if err != nil {
		s.logger.Warn("failed to unarchive file", zap.String("id", id), zap.Error(err))
		handleError(c, err)
		return
	}
	response.Success(c, toRecordResponse(record))
}

// ListArchived lists archived records, optionally filtered by owner
func (s *FileService) ListArchived(c *gin.Context) {
	records, err := s.uc.ListArchived(c.Request.Context(), c.Query("owner"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toRecordResponses(records))
}

// TriggerSweep runs the inactivity archival sweep synchronously with an
// optional threshold_days override. Scheduled and manual runs share the
// same sweep logic.
func (s *FileService) TriggerSweep(c *gin.Context) {
	threshold := 0
	if raw := c.Query("threshold_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.BadRequest(c, "threshold_days must be a non-negative integer")
			return
		}
		threshold = parsed
	}

	result, err := s.uc.ArchiveSweep(c.Request.Context(), threshold)
	if err != nil {
		s.logger.Error("manual sweep failed", zap.Error(err))
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
