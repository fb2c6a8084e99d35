package worker

import (
	"context"
	"time"

	"github.com/lk2023060901/file-archive-backend/internal/archive/biz"
	"go.uber.org/zap"
)

// NewTrashReaper permanently deletes trashed records past the retention
// window. Physical-delete failures never block record removal.
func NewTrashReaper(uc *biz.FileUseCase, interval time.Duration, logger *zap.Logger) *Loop {
	return NewLoop("trash-reaper", interval, func(ctx context.Context) error {
		purged, err := uc.ReapExpired(ctx)
		if err != nil {
			return err
		}
		if purged > 0 {
			logger.Info("purged expired trash", zap.Int("count", purged))
		}
		return nil
	}, logger)
}
