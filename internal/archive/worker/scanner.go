package worker

import (
	"context"
	"time"

	"github.com/lk2023060901/file-archive-backend/internal/archive/biz"
	"go.uber.org/zap"
)

// NewInactivityScanner runs the daily archival sweep over files owned
// by dormant administrators. The manual trigger endpoint calls the same
// ArchiveSweep, so scheduled and on-demand runs cannot diverge.
func NewInactivityScanner(uc *biz.FileUseCase, interval time.Duration, logger *zap.Logger) *Loop {
	return NewLoop("inactivity-scanner", interval, func(ctx context.Context) error {
		// 0 threshold selects the configured default
		_, err := uc.ArchiveSweep(ctx, 0)
		return err
	}, logger)
}
