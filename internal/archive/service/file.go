package service

import (
	"io"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/file-archive-backend/internal/archive/biz"
	"github.com/lk2023060901/file-archive-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// FileService exposes the lifecycle operations over HTTP
type FileService struct {
	uc     *biz.FileUseCase
	logger *zap.Logger
}

// NewFileService creates the file service
func NewFileService(uc *biz.FileUseCase, logger *zap.Logger) *FileService {
	return &FileService{uc: uc, logger: logger}
}

// RegisterRoutes mounts the lifecycle API onto the router group
func (s *FileService) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/files", s.Upload)
	api.GET("/files/:id", s.Get)
	api.GET("/files/latest", s.GetLatest)
	api.DELETE("/files/:id", s.Delete)
	api.POST("/files/:id/restore", s.Restore)
	api.DELETE("/files/:id/purge", s.Purge)
	api.POST("/files/:id/archive", s.Archive)
	api.POST("/files/:id/unarchive", s.Unarchive)
	api.DELETE("/scheduled/:id", s.WithdrawScheduled)
	api.GET("/trash", s.ListTrash)
	api.GET("/trash/stats", s.TrashStats)
	api.GET("/archived", s.ListArchived)
	api.POST("/archive/sweep", s.TriggerSweep)
}

// Upload accepts a multipart upload with an optional RFC3339
// release_time field that defers activation.
func (s *FileService) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "invalid file or field name is not 'file'")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.InternalError(c, "failed to read file")
		return
	}

	var releaseTime *time.Time
	if raw := c.PostForm("release_time"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "release_time must be RFC3339")
			return
		}
		releaseTime = &parsed
	}

	fileName := header.Filename
	req := &biz.UploadRequest{
		FileName:    fileName,
		Extension:   filepath.Ext(fileName),
		Category:    c.PostForm("category"),
		ItemID:      c.PostForm("item_id"),
		Description: c.PostForm("description"),
		Data:        data,
		Actor:       actor(c),
		ReleaseTime: releaseTime,
	}

	s.logger.Info("file upload",
		zap.String("file_name", fileName),
		zap.String("category", req.Category),
		zap.Int("size", len(data)),
		zap.Bool("scheduled", releaseTime != nil))

	record, err := s.uc.Upload(c.Request.Context(), req)
	if err != nil {
		s.logger.Error("failed to upload file", zap.Error(err))
		handleError(c, err)
		return
	}

	response.Created(c, toRecordResponse(record))
}

// Get fetches one record by id
func (s *FileService) Get(c *gin.Context) {
	record, err := s.uc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toRecordResponse(record))
}

// GetLatest resolves the newest visible version under a grouping key
func (s *FileService) GetLatest(c *gin.Context) {
	fileName := c.Query("file_name")
	category := c.Query("category")
	if fileName == "" || category == "" {
		response.BadRequest(c, "file_name and category are required")
		return
	}

	record, err := s.uc.GetLatestByKey(c.Request.Context(), fileName, category, c.Query("item_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toRecordResponse(record))
}

// WithdrawScheduled cancels a pending scheduled upload
func (s *FileService) WithdrawScheduled(c *gin.Context) {
	id := c.Param("id")
	if err := s.uc.WithdrawScheduled(c.Request.Context(), id, actor(c)); err != nil {
		s.logger.Error("failed to withdraw scheduled upload", zap.String("id", id), zap.Error(err))
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id, "withdrawn": true})
}
