package biz

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SweepActor is the identity stamped on records archived by the sweep
const SweepActor = "system:inactivity-scanner"

// SweepItem is one archived file in the sweep's capped sample
type SweepItem struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	Category string `json:"category"`
	Owner    string `json:"owner"`
	Version  int    `json:"version"`
}

// SweepResult summarizes one inactivity archival pass
type SweepResult struct {
	ThresholdDays  int         `json:"threshold_days"`
	Cutoff         string      `json:"cutoff"`
	InactiveAdmins []string    `json:"inactive_admins"`
	ArchivedCount  int         `json:"archived_count"`
	FailedCount    int         `json:"failed_count"`
	Sample         []SweepItem `json:"sample"`
}

// ArchiveSweep archives every active file owned by a dormant
// administrator. The scheduled scanner and the manual trigger both call
// this, so behavior cannot diverge. Idempotent: selection is scoped to
// active, non-archived records, so already-archived files never
// re-enter a sweep.
func (uc *FileUseCase) ArchiveSweep(ctx context.Context, thresholdDays int) (*SweepResult, error) {
	if thresholdDays <= 0 {
		thresholdDays = uc.policy.InactivityDays
	}

	now := uc.now()
	cutoff := InactivityCutoff(now, thresholdDays)

	admins, err := uc.admins.ListAdminsWithLastLogin(ctx)
	if err != nil {
		return nil, err
	}

	var inactive []string
	for _, admin := range admins {
		if IsAdminInactive(admin.LastLoginAt, now, thresholdDays) {
			inactive = append(inactive, admin.Name)
		}
	}

	result := &SweepResult{
		ThresholdDays:  thresholdDays,
		Cutoff:         cutoff.Format("2006-01-02"),
		InactiveAdmins: inactive,
	}

	if len(inactive) == 0 {
		uc.logger.Info("inactivity sweep found no dormant admins",
			zap.Int("threshold_days", thresholdDays))
		uc.notifier.Publish("archive.sweep", result)
		return result, nil
	}

	records, err := uc.repo.ListActiveForOwners(ctx, inactive)
	if err != nil {
		return nil, err
	}

	// One reason string per sweep so every file of the pass carries the
	// same audit trail.
	reason := fmt.Sprintf("archived due to owner inactivity; no login since %s", result.Cutoff)

	for _, record := range records {
		if err := record.MarkArchived(SweepActor, reason, now); err != nil {
			uc.logger.Warn("sweep skipped record",
				zap.String("id", record.ID), zap.Error(err))
			result.FailedCount++
			continue
		}
		if err := uc.repo.Update(ctx, record); err != nil {
			uc.logger.Error("sweep failed to persist archival",
				zap.String("id", record.ID), zap.Error(err))
			result.FailedCount++
			continue
		}

		result.ArchivedCount++
		if len(result.Sample) < uc.policy.SweepSampleSize {
			result.Sample = append(result.Sample, SweepItem{
				ID:       record.ID,
				FileName: record.FileName,
				Category: record.Category,
				Owner:    record.CreatedBy,
				Version:  record.Version,
			})
		}
	}

	uc.logger.Info("inactivity sweep finished",
		zap.Int("threshold_days", thresholdDays),
		zap.Int("inactive_admins", len(inactive)),
		zap.Int("archived", result.ArchivedCount),
		zap.Int("failed", result.FailedCount))

	uc.notifier.Publish("archive.sweep", result)

	if uc.mailer != nil {
		if err := uc.mailer.SendSweepSummary(ctx, result); err != nil {
			uc.logger.Warn("failed to send sweep summary mail", zap.Error(err))
		}
	}

	return result, nil
}
