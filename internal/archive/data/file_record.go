package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lk2023060901/file-archive-backend/internal/archive/biz"
	"github.com/lk2023060901/file-archive-backend/internal/pkg/database"
	"gorm.io/gorm"
)

// FileRecordPO is the database model for file records. The unique index
// over (file_name, category, version) backs up the per-key version lock:
// a racing insert that slipped past the lock fails on the constraint
// instead of producing a duplicate version.
type FileRecordPO struct {
	ID          string `gorm:"type:uuid;primarykey"`
	FileName    string `gorm:"column:file_name;size:255;not null;uniqueIndex:idx_file_key_version,priority:1"`
	Extension   string `gorm:"column:extension;size:20"`
	Category    string `gorm:"column:category;size:100;not null;uniqueIndex:idx_file_key_version,priority:2"`
	ItemID      string `gorm:"column:item_id;size:64;index:idx_file_item"`
	Version     int    `gorm:"column:version;not null;uniqueIndex:idx_file_key_version,priority:3"`
	Size        int64  `gorm:"column:size;not null"`
	Description string `gorm:"column:description;type:text"`

	State     string `gorm:"column:state;size:20;not null;index:idx_file_state"`
	Scheduled bool   `gorm:"column:is_scheduled;not null;default:false"`
	Processed bool   `gorm:"column:is_processed;not null;default:false"`

	CurrentPath  string `gorm:"column:current_path;size:1000;not null"`
	OriginalPath string `gorm:"column:original_path;size:1000"`

	CreatedBy string    `gorm:"column:created_by;size:100;index:idx_file_owner"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_file_created"`
	UpdatedBy string    `gorm:"column:updated_by;size:100"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`

	DeletedBy string     `gorm:"column:deleted_by;size:100"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index:idx_file_deleted"`

	ArchivedBy     string     `gorm:"column:archived_by;size:100"`
	ArchivedAt     *time.Time `gorm:"column:archived_at"`
	ArchivedReason string     `gorm:"column:archived_reason;type:text"`
}

func (FileRecordPO) TableName() string {
	return "file_records"
}

// FileRecordRepo is the gorm-backed record store
type FileRecordRepo struct {
	db *database.DB
}

// NewFileRecordRepo creates the record store
func NewFileRecordRepo(db *database.DB) *FileRecordRepo {
	return &FileRecordRepo{db: db}
}

// Create persists a new record
func (r *FileRecordRepo) Create(ctx context.Context, record *biz.FileRecord) error {
	po := toPO(record)
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("failed to create file record: %w", err)
	}
	return nil
}

// GetByID fetches one record; nil when absent
func (r *FileRecordRepo) GetByID(ctx context.Context, id string) (*biz.FileRecord, error) {
	var po FileRecordPO
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}
	return toDomain(&po), nil
}

// GetLatestByKey resolves the highest visible version under a grouping
// key. Pending and trashed versions are not visible.
func (r *FileRecordRepo) GetLatestByKey(ctx context.Context, fileName, category, itemID string) (*biz.FileRecord, error) {
	query := r.db.WithContext(ctx).
		Where("file_name = ? AND category = ?", fileName, category).
		Where("state NOT IN ?", []string{string(biz.StatePending), string(biz.StateTrashed)})
	if itemID != "" {
		query = query.Where("item_id = ?", itemID)
	}

	var po FileRecordPO
	err := query.Order("version DESC").First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest version: %w", err)
	}
	return toDomain(&po), nil
}

// ListVersions returns every version number in use under a grouping key
func (r *FileRecordRepo) ListVersions(ctx context.Context, fileName, category string) ([]int, error) {
	var versions []int
	err := r.db.WithContext(ctx).Model(&FileRecordPO{}).
		Where("file_name = ? AND category = ?", fileName, category).
		Pluck("version", &versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

// Update writes back the full record state
func (r *FileRecordRepo) Update(ctx context.Context, record *biz.FileRecord) error {
	po := toPO(record)
	if err := r.db.WithContext(ctx).Save(po).Error; err != nil {
		return fmt.Errorf("failed to update file record: %w", err)
	}
	return nil
}

// HardDelete permanently removes the record row
func (r *FileRecordRepo) HardDelete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&FileRecordPO{}).Error; err != nil {
		return fmt.Errorf("failed to hard delete file record: %w", err)
	}
	return nil
}

// ListDueScheduled finds pending uploads whose release time has arrived.
// CreatedAt carries the release time, so the predicate is a plain
// comparison.
func (r *FileRecordRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]*biz.FileRecord, error) {
	return r.list(ctx, r.db.WithContext(ctx).
		Where("state = ? AND created_at <= ?", string(biz.StatePending), now).
		Order("created_at ASC"))
}

// ListTrashed returns every soft-deleted record
func (r *FileRecordRepo) ListTrashed(ctx context.Context) ([]*biz.FileRecord, error) {
	return r.list(ctx, r.db.WithContext(ctx).
		Where("state = ?", string(biz.StateTrashed)).
		Order("deleted_at ASC"))
}

// ListExpiredTrashed returns trashed records deleted at or before cutoff
func (r *FileRecordRepo) ListExpiredTrashed(ctx context.Context, cutoff time.Time) ([]*biz.FileRecord, error) {
	return r.list(ctx, r.db.WithContext(ctx).
		Where("state = ? AND deleted_at <= ?", string(biz.StateTrashed), cutoff).
		Order("deleted_at ASC"))
}

// ListActiveForOwners returns active records owned by any of owners
func (r *FileRecordRepo) ListActiveForOwners(ctx context.Context, owners []string) ([]*biz.FileRecord, error) {
	if len(owners) == 0 {
		return []*biz.FileRecord{}, nil
	}
	return r.list(ctx, r.db.WithContext(ctx).
		Where("state = ? AND created_by IN ?", string(biz.StateActive), owners))
}

// ListArchived returns every archived record
func (r *FileRecordRepo) ListArchived(ctx context.Context) ([]*biz.FileRecord, error) {
	return r.list(ctx, r.db.WithContext(ctx).
		Where("state = ?", string(biz.StateArchived)).
		Order("archived_at DESC"))
}

// ListArchivedByOwner returns archived records for one owner
func (r *FileRecordRepo) ListArchivedByOwner(ctx context.Context, owner string) ([]*biz.FileRecord, error) {
	return r.list(ctx, r.db.WithContext(ctx).
		Where("state = ? AND created_by = ?", string(biz.StateArchived), owner).
		Order("archived_at DESC"))
}

func (r *FileRecordRepo) list(ctx context.Context, query *gorm.DB) ([]*biz.FileRecord, error) {
	var pos []FileRecordPO
	if err := query.Find(&pos).Error; err != nil {
		return nil, fmt.Errorf("failed to list file records: %w", err)
	}

	records := make([]*biz.FileRecord, len(pos))
	for i := range pos {
		records[i] = toDomain(&pos[i])
	}
	return records, nil
}

func toPO(record *biz.FileRecord) *FileRecordPO {
	return &FileRecordPO{
		ID:             record.ID,
		FileName:       record.FileName,
		Extension:      record.Extension,
		Category:       record.Category,
		ItemID:         record.ItemID,
		Version:        record.Version,
		Size:           record.Size,
		Description:    record.Description,
		State:          string(record.State),
		Scheduled:      record.Scheduled,
		Processed:      record.Processed,
		CurrentPath:    record.CurrentPath,
		OriginalPath:   record.OriginalPath,
		CreatedBy:      record.CreatedBy,
		CreatedAt:      record.CreatedAt,
		UpdatedBy:      record.UpdatedBy,
		UpdatedAt:      record.UpdatedAt,
		DeletedBy:      record.DeletedBy,
		DeletedAt:      record.DeletedAt,
		ArchivedBy:     record.ArchivedBy,
		ArchivedAt:     record.ArchivedAt,
		ArchivedReason: record.ArchivedReason,
	}
}

func toDomain(po *FileRecordPO) *biz.FileRecord {
	return &biz.FileRecord{
		ID:             po.ID,
		FileName:       po.FileName,
		Extension:      po.Extension,
		Category:       po.Category,
		ItemID:         po.ItemID,
		Version:        po.Version,
		Size:           po.Size,
		Description:    po.Description,
		State:          biz.LifecycleState(po.State),
		Scheduled:      po.Scheduled,
		Processed:      po.Processed,
		CurrentPath:    po.CurrentPath,
		OriginalPath:   po.OriginalPath,
		CreatedBy:      po.CreatedBy,
		CreatedAt:      po.CreatedAt,
		UpdatedBy:      po.UpdatedBy,
		UpdatedAt:      po.UpdatedAt,
		DeletedBy:      po.DeletedBy,
		DeletedAt:      po.DeletedAt,
		ArchivedBy:     po.ArchivedBy,
		ArchivedAt:     po.ArchivedAt,
		ArchivedReason: po.ArchivedReason,
	}
}
