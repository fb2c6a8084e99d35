package biz

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileRecordRepo is the persistence contract for file records. The
// store owns all persisted state; the use case holds transient copies
// during a transition and writes back per record.
type FileRecordRepo interface {
	Create(ctx context.Context, record *FileRecord) error
	GetByID(ctx context.Context, id string) (*FileRecord, error)
	GetLatestByKey(ctx context.Context, fileName, category, itemID string) (*FileRecord, error)
	ListVersions(ctx context.Context, fileName, category string) ([]int, error)
	Update(ctx context.Context, record *FileRecord) error
	HardDelete(ctx context.Context, id string) error
	ListDueScheduled(ctx context.Context, now time.Time) ([]*FileRecord, error)
	ListTrashed(ctx context.Context) ([]*FileRecord, error)
	ListExpiredTrashed(ctx context.Context, cutoff time.Time) ([]*FileRecord, error)
	ListActiveForOwners(ctx context.Context, owners []string) ([]*FileRecord, error)
	ListArchived(ctx context.Context) ([]*FileRecord, error)
	ListArchivedByOwner(ctx context.Context, owner string) ([]*FileRecord, error)
}

// AdminActivityRepo exposes the read-only admin last-login view
type AdminActivityRepo interface {
	ListAdminsWithLastLogin(ctx context.Context) ([]AdminActivity, error)
}

// Notifier is the fire-and-forget broadcast sink for lifecycle events
type Notifier interface {
	Publish(event string, payload interface{})
}

// Mover performs the physical side effects between storage zones.
// Every operation tolerates a missing source file: the record is the
// authoritative state, the filesystem can drift.
type Mover interface {
	WriteStaging(name, ext string, data []byte) (string, error)
	WriteActive(name, ext string, data []byte) (string, error)
	StageToActive(stagedPath, name, ext string) (string, error)
	ActiveToTrash(activePath string, deletedAt time.Time) (string, error)
	TrashToActive(trashPath, originalPath string) (string, error)
	PurgeFromTrash(trashPath string) error
	Remove(path string) error
}

// StatsCache caches the trash stats snapshot for a short TTL. Optional.
type StatsCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration)
}

// SweepMailer sends the optional sweep summary mail. Optional.
type SweepMailer interface {
	SendSweepSummary(ctx context.Context, result *SweepResult) error
}

// Policy holds the time-window knobs the lifecycle engine runs with
type Policy struct {
	RetentionDays   int
	InactivityDays  int
	SweepSampleSize int
	TrashStatsTTL   time.Duration
}

// DefaultPolicy returns the stock policy windows
func DefaultPolicy() Policy {
	return Policy{
		RetentionDays:   DefaultRetentionDays,
		InactivityDays:  DefaultInactivityDays,
		SweepSampleSize: 10,
		TrashStatsTTL:   30 * time.Second,
	}
}

// FileUseCase implements every lifecycle transition: upload placement,
// scheduled processing, trash/restore/purge, and archival.
type FileUseCase struct {
	repo     FileRecordRepo
	admins   AdminActivityRepo
	mover    Mover
	notifier Notifier
	locker   VersionLocker
	cache    StatsCache
	mailer   SweepMailer
	policy   Policy
	logger   *zap.Logger

	now func() time.Time
}

// NewFileUseCase creates the lifecycle use case. cache and mailer may
// be nil.
func NewFileUseCase(
	repo FileRecordRepo,
	admins AdminActivityRepo,
	mover Mover,
	notifier Notifier,
	locker VersionLocker,
	cache StatsCache,
	mailer SweepMailer,
	policy Policy,
	logger *zap.Logger,
) *FileUseCase {
	if policy.RetentionDays <= 0 {
		policy.RetentionDays = DefaultRetentionDays
	}
	if policy.InactivityDays <= 0 {
		policy.InactivityDays = DefaultInactivityDays
	}
	if policy.SweepSampleSize <= 0 {
		policy.SweepSampleSize = 10
	}

	return &FileUseCase{
		repo:     repo,
		admins:   admins,
		mover:    mover,
		notifier: notifier,
		locker:   locker,
		cache:    cache,
		mailer:   mailer,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

// UploadRequest carries one upload into the lifecycle engine
type UploadRequest struct {
	FileName    string
	Extension   string
	Category    string
	ItemID      string
	Description string
	Data        []byte
	Actor       string
	// ReleaseTime defers activation when set to a future instant
	ReleaseTime *time.Time
}

// Upload places a new file version. Version assignment is serialized
// per (fileName, category) key; a release time in the future parks the
// bytes in staging for the scheduled processor.
func (uc *FileUseCase) Upload(ctx context.Context, req *UploadRequest) (*FileRecord, error) {
	if req.FileName == "" {
		return nil, ErrFileNameRequired
	}
	if req.Category == "" {
		return nil, ErrCategoryRequired
	}
	if len(req.Data) == 0 {
		return nil, ErrEmptyFile
	}

	now := uc.now()
	placement := DecideUploadPlacement(req.ReleaseTime, now)

	record := &FileRecord{
		ID:          uuid.New().String(),
		FileName:    req.FileName,
		Extension:   req.Extension,
		Category:    req.Category,
		ItemID:      req.ItemID,
		Size:        int64(len(req.Data)),
		Description: req.Description,
		CreatedBy:   req.Actor,
		UpdatedBy:   req.Actor,
		UpdatedAt:   now,
	}

	if placement.Deferred {
		path, err := uc.mover.WriteStaging(req.FileName, req.Extension, req.Data)
		if err != nil {
			return nil, err
		}
		record.State = StatePending
		record.Scheduled = true
		record.CurrentPath = path
		// CreatedAt carries the release time so the processor finds
		// due records with a plain created_at <= now predicate.
		record.CreatedAt = placement.ReleaseTime
	} else {
		path, err := uc.mover.WriteActive(req.FileName, req.Extension, req.Data)
		if err != nil {
			return nil, err
		}
		record.State = StateActive
		record.CurrentPath = path
		record.CreatedAt = now
	}

	// roll the orphaned bytes back out of the zone on any failure
	// between the write and the record insert
	rollback := func() {
		if rmErr := uc.mover.Remove(record.CurrentPath); rmErr != nil {
			uc.logger.Warn("failed to remove file after upload failure",
				zap.String("path", record.CurrentPath), zap.Error(rmErr))
		}
	}

	release, err := uc.locker.Acquire(ctx, record.GroupKey())
	if err != nil {
		rollback()
		return nil, err
	}
	defer release()

	versions, err := uc.repo.ListVersions(ctx, req.FileName, req.Category)
	if err != nil {
		rollback()
		return nil, err
	}
	record.Version = NextVersion(versions)

	if err := uc.repo.Create(ctx, record); err != nil {
		rollback()
		return nil, err
	}

	if placement.Deferred {
		uc.notifier.Publish("file.scheduled", recordEvent(record))
	} else {
		uc.notifier.Publish("file.uploaded", recordEvent(record))
	}

	return record, nil
}

// WithdrawScheduled removes a pending scheduled upload outright. Once
// the record is processed the withdrawal is a conflict.
func (uc *FileUseCase) WithdrawScheduled(ctx context.Context, id, actor string) error {
	record, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrRecordNotFound
	}
	if record.State != StatePending {
		return ErrAlreadyProcessed
	}

	if err := uc.mover.Remove(record.CurrentPath); err != nil {
		uc.logger.Warn("failed to remove staged file on withdrawal",
			zap.String("id", id), zap.String("path", record.CurrentPath), zap.Error(err))
	}

	if err := uc.repo.HardDelete(ctx, id); err != nil {
		return err
	}

	uc.logger.Info("scheduled upload withdrawn", zap.String("id", id), zap.String("actor", actor))
	uc.notifier.Publish("file.withdrawn", map[string]interface{}{"id": id, "actor": actor})
	return nil
}

// ProcessDueScheduled promotes every due staged upload into active
// storage. Records fail independently: an error on one leaves it
// unprocessed for the next poll and never blocks the rest.
func (uc *FileUseCase) ProcessDueScheduled(ctx context.Context) (int, error) {
	now := uc.now()
	due, err := uc.repo.ListDueScheduled(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, record := range due {
		if err := uc.processOne(ctx, record, now); err != nil {
			uc.logger.Error("failed to process scheduled upload, will retry next poll",
				zap.String("id", record.ID),
				zap.String("file_name", record.FileName),
				zap.Error(err))
			continue
		}
		processed++
	}

	return processed, nil
}

func (uc *FileUseCase) processOne(ctx context.Context, record *FileRecord, now time.Time) error {
	// A missing staged source is terminal: the mover logs it and
	// returns the destination anyway, so the record flips to processed
	// instead of retrying an unrecoverable input forever.
	activePath, err := uc.mover.StageToActive(record.CurrentPath, record.FileName, record.Extension)
	if err != nil {
		return err
	}

	if err := record.MarkProcessed(activePath, now); err != nil {
		return err
	}

	if err := uc.repo.Update(ctx, record); err != nil {
		// bytes are in active storage but the record is stale; leave a
		// loud trail for reconciliation
		uc.logger.Error("record update failed after physical move",
			zap.String("id", record.ID),
			zap.String("moved_to", activePath),
			zap.Error(err))
		return err
	}

	uc.notifier.Publish("file.processed", recordEvent(record))
	return nil
}

// Delete soft-deletes a file into the dated trash zone. Deleting an
// already-trashed record is an idempotent success that leaves DeletedAt
// untouched. Deletion of an archived file clears the archival tag.
func (uc *FileUseCase) Delete(ctx context.Context, id, actor string) (*FileRecord, error) {
	record, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	if record.State == StateTrashed {
		return record, nil
	}
	// reject before the physical move so a pending record keeps its
	// staged bytes for the processor
	if record.State != StateActive && record.State != StateArchived {
		return nil, ErrNotTrashable
	}

	now := uc.now()
	trashPath, err := uc.mover.ActiveToTrash(record.CurrentPath, now)
	if err != nil {
		return nil, err
	}

	if err := record.MarkTrashed(trashPath, actor, now); err != nil {
		return nil, err
	}

	if err := uc.repo.Update(ctx, record); err != nil {
		uc.logger.Error("record update failed after move to trash",
			zap.String("id", record.ID),
			zap.String("moved_to", trashPath),
			zap.Error(err))
		return nil, err
	}

	uc.notifier.Publish("file.trashed", recordEvent(record))
	return record, nil
}

// Restore brings a trashed file back inside its rescue window. Past the
// window the request is a policy violation, not a not-found.
func (uc *FileUseCase) Restore(ctx context.Context, id, actor string) (*FileRecord, error) {
	record, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	if record.State != StateTrashed {
		return nil, ErrNotTrashed
	}

	now := uc.now()
	if record.DeletedAt == nil || !CanRestore(*record.DeletedAt, now, uc.policy.RetentionDays) {
		return nil, ErrRetentionExpired
	}

	restoredPath, err := uc.mover.TrashToActive(record.CurrentPath, record.OriginalPath)
	if err != nil {
		return nil, err
	}

	if err := record.MarkRestored(restoredPath, actor, now); err != nil {
		return nil, err
	}

	if err := uc.repo.Update(ctx, record); err != nil {
		uc.logger.Error("record update failed after restore move",
			zap.String("id", record.ID),
			zap.String("moved_to", restoredPath),
			zap.Error(err))
		return nil, err
	}

	uc.notifier.Publish("file.restored", recordEvent(record))
	return record, nil
}

// Purge permanently removes a trashed record and its bytes. A failed or
// already-gone physical delete is logged and swallowed: the database is
// the system of record for "this file no longer exists".
func (uc *FileUseCase) Purge(ctx context.Context, id string) error {
	record, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrRecordNotFound
	}
	if record.State != StateTrashed {
		return ErrNotTrashed
	}

	if err := uc.mover.PurgeFromTrash(record.CurrentPath); err != nil {
		uc.logger.Warn("physical purge failed, removing record anyway",
			zap.String("id", id),
			zap.String("path", record.CurrentPath),
			zap.Error(err))
	}

	if err := uc.repo.HardDelete(ctx, id); err != nil {
		return err
	}

	uc.notifier.Publish("file.purged", map[string]interface{}{
		"id":        record.ID,
		"file_name": record.FileName,
		"version":   record.Version,
	})
	return nil
}

// ReapExpired purges every trashed record past the retention window.
// Records fail independently.
func (uc *FileUseCase) ReapExpired(ctx context.Context) (int, error) {
	now := uc.now()
	cutoff := now.Add(-time.Duration(uc.policy.RetentionDays) * 24 * time.Hour)

	expired, err := uc.repo.ListExpiredTrashed(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, record := range expired {
		if err := uc.Purge(ctx, record.ID); err != nil {
			uc.logger.Error("reaper failed to purge expired record",
				zap.String("id", record.ID), zap.Error(err))
			continue
		}
		purged++
	}

	return purged, nil
}

// Archive manually archives a single active file with a human-readable
// reason.
func (uc *FileUseCase) Archive(ctx context.Context, id, actor, reason string) (*FileRecord, error) {
	record, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}

	if err := record.MarkArchived(actor, reason, uc.now()); err != nil {
		return nil, err
	}

	if err := uc.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	uc.notifier.Publish("file.archived", recordEvent(record))
	return record, nil
}

// Unarchive reverses an archival; no reason is required
func (uc *FileUseCase) Unarchive(ctx context.Context, id, actor string) (*FileRecord, error) {
	record, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}

	if err := record.MarkUnarchived(actor, uc.now()); err != nil {
		return nil, err
	}

	if err := uc.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	uc.notifier.Publish("file.unarchived", recordEvent(record))
	return record, nil
}

// GetByID loads a single record
func (uc *FileUseCase) GetByID(ctx context.Context, id string) (*FileRecord, error) {
	record, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

// GetLatestByKey resolves the newest version under a grouping key
func (uc *FileUseCase) GetLatestByKey(ctx context.Context, fileName, category, itemID string) (*FileRecord, error) {
	record, err := uc.repo.GetLatestByKey(ctx, fileName, category, itemID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

// TrashEntry is one trashed record with its remaining rescue window
type TrashEntry struct {
	Record        *FileRecord `json:"record"`
	DaysInTrash   int         `json:"days_in_trash"`
	DaysRemaining int         `json:"days_remaining"`
	CanRestore    bool        `json:"can_restore"`
}

// ListTrash returns the current trash contents with per-record windows
func (uc *FileUseCase) ListTrash(ctx context.Context) ([]TrashEntry, error) {
	records, err := uc.repo.ListTrashed(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	entries := make([]TrashEntry, 0, len(records))
	for _, record := range records {
		if record.DeletedAt == nil {
			continue
		}
		entries = append(entries, TrashEntry{
			Record:        record,
			DaysInTrash:   DaysInTrash(*record.DeletedAt, now),
			DaysRemaining: DaysRemaining(*record.DeletedAt, now, uc.policy.RetentionDays),
			CanRestore:    CanRestore(*record.DeletedAt, now, uc.policy.RetentionDays),
		})
	}

	return entries, nil
}

// TrashStats is the on-demand trash snapshot; never persisted
type TrashStats struct {
	Count        int    `json:"count"`
	TotalBytes   int64  `json:"total_bytes"`
	TotalHuman   string `json:"total_human"`
	ExpiringSoon int    `json:"expiring_soon"`
}

const trashStatsCacheKey = "stats:trash"

// TrashStats computes the snapshot from the current trashed set,
// optionally serving a briefly cached copy.
func (uc *FileUseCase) TrashStats(ctx context.Context) (*TrashStats, error) {
	if uc.cache != nil {
		if cached, ok := uc.cache.Get(ctx, trashStatsCacheKey); ok {
			var stats TrashStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	records, err := uc.repo.ListTrashed(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	stats := &TrashStats{Count: len(records)}
	for _, record := range records {
		stats.TotalBytes += record.Size
		if record.DeletedAt != nil &&
			DaysRemaining(*record.DeletedAt, now, uc.policy.RetentionDays) <= ExpiringSoonDays {
			stats.ExpiringSoon++
		}
	}
	stats.TotalHuman = humanize.Bytes(uint64(stats.TotalBytes))

	if uc.cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			uc.cache.Set(ctx, trashStatsCacheKey, string(data), uc.policy.TrashStatsTTL)
		}
	}

	return stats, nil
}

// ListArchived lists archived records, optionally scoped to one owner
func (uc *FileUseCase) ListArchived(ctx context.Context, owner string) ([]*FileRecord, error) {
	if owner == "" {
		return uc.repo.ListArchived(ctx)
	}
	return uc.repo.ListArchivedByOwner(ctx, owner)
}

func recordEvent(record *FileRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":        record.ID,
		"file_name": record.FileName,
		"category":  record.Category,
		"version":   record.Version,
		"state":     record.State,
	}
}
