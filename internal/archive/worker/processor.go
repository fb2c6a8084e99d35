package worker

import (
	"context"
	"time"

	"github.com/lk2023060901/file-archive-backend/internal/archive/biz"
	"go.uber.org/zap"
)

// NewScheduledUploadProcessor polls for staged uploads whose release
// time has arrived and promotes them into active storage. Each record
// is processed independently; a failure leaves the record pending for
// the next poll.
func NewScheduledUploadProcessor(uc *biz.FileUseCase, interval time.Duration, logger *zap.Logger) *Loop {
	return NewLoop("scheduled-upload-processor", interval, func(ctx context.Context) error {
		processed, err := uc.ProcessDueScheduled(ctx)
		if err != nil {
			return err
		}
		if processed > 0 {
			logger.Info("promoted scheduled uploads", zap.Int("count", processed))
		}
		return nil
	}, logger)
}
