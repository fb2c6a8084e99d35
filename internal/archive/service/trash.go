package service

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/file-archive-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// Delete soft-deletes a file into trash; idempotent on trashed records
func (s *FileService) Delete(c *gin.Context) {
	id := c.Param("id")
	record, err := s.uc.Delete(c.Request.Context(), id, actor(c))
	if err != nil {
		s.logger.Error("failed to delete file", zap.String("id", id), zap.Error(err))
		handleError(c, err)
		return
	}
	response.Success(c, toRecordResponse(record))
}

// Restore brings a trashed file back within its rescue window
func (s *FileService) Restore(c *gin.Context) {
	id := c.Param("id")
	record, err := s.uc.Restore(c.Request.Context(), id, actor(c))
	if err != nil {
		s.logger.Warn("failed to restore file", zap.String("id", id), zap.Error(err))
		handleError(c, err)
		return
	}
	response.Success(c, toRecordResponse(record))
}

// Purge permanently removes a trashed file, bypassing the expiry check
func (s *FileService) Purge(c *gin.Context) {
	id := c.Param("id")
	if err := s.uc.Purge(c.Request.Context(), id); err != nil {
		s.logger.Error("failed to purge file", zap.String("id", id), zap.Error(err))
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id, "purged": true})
}

// ListTrash returns the trash contents with per-record rescue windows
func (s *FileService) ListTrash(c *gin.Context) {
	entries, err := s.uc.ListTrash(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, entries)
}

// TrashStats returns the on-demand trash snapshot
func (s *FileService) TrashStats(c *gin.Context) {
	stats, err := s.uc.TrashStats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}
