package biz

import (
	"time"
)

// LifecycleState is the single authoritative lifecycle tag of a record.
// Permanent deletion removes the record entirely and has no state value.
type LifecycleState string

const (
	// StatePending is a scheduled upload waiting in staging for its release time.
	StatePending LifecycleState = "pending"
	// StateActive is a file living in active storage, available for download.
	StateActive LifecycleState = "active"
	// StateTrashed is a soft-deleted file held in a dated trash folder.
	StateTrashed LifecycleState = "trashed"
	// StateArchived is a file put away because its owner went dormant.
	StateArchived LifecycleState = "archived"
)

// Valid reports whether s is a known lifecycle state
func (s LifecycleState) Valid() bool {
	switch s {
	case StatePending, StateActive, StateTrashed, StateArchived:
		return true
	}
	return false
}

// FileRecord is one version of one uploaded file. Versions are numbered
// per (FileName, Category) grouping key, strictly increasing from 1.
type FileRecord struct {
	ID       string
	FileName string
	Extension string
	Category string
	ItemID   string
	Version  int
	Size     int64
	Description string

	State LifecycleState

	// Scheduled marks records that entered through the deferred-upload
	// path; it survives processing as audit history. Processed flips
	// once the staged bytes have been promoted to active storage.
	Scheduled bool
	Processed bool

	// CurrentPath is where the bytes live right now. OriginalPath is
	// remembered only while trashed, for restoration.
	CurrentPath  string
	OriginalPath string

	CreatedBy string
	CreatedAt time.Time
	UpdatedBy string
	UpdatedAt time.Time

	DeletedBy string
	DeletedAt *time.Time

	ArchivedBy     string
	ArchivedAt     *time.Time
	ArchivedReason string
}

// GroupKey identifies the version-numbering group of the record
func (r *FileRecord) GroupKey() string {
	return r.FileName + "\x00" + r.Category
}

// MarkProcessed promotes a pending scheduled record into active storage.
// Terminal once processed.
func (r *FileRecord) MarkProcessed(activePath string, now time.Time) error {
	if r.State != StatePending {
		return ErrAlreadyProcessed
	}
	r.State = StateActive
	r.Processed = true
	r.CurrentPath = activePath
	r.UpdatedAt = now
	return nil
}

// MarkTrashed soft-deletes the record. Trashing an already-trashed
// record is a no-op success and leaves DeletedAt untouched. Deleting an
// archived record is allowed; deletion takes precedence and clears the
// archival tag.
func (r *FileRecord) MarkTrashed(trashPath, actor string, now time.Time) error {
	switch r.State {
	case StateTrashed:
		return nil
	case StateActive, StateArchived:
	case StatePending:
		return ErrNotTrashable
	default:
		return ErrNotTrashable
	}

	if r.State == StateArchived {
		r.clearArchival()
	}

	r.OriginalPath = r.CurrentPath
	r.CurrentPath = trashPath
	r.State = StateTrashed
	r.DeletedBy = actor
	deletedAt := now
	r.DeletedAt = &deletedAt
	r.UpdatedBy = actor
	r.UpdatedAt = now
	return nil
}

// MarkRestored brings a trashed record back to active. The retention
// check belongs to the policy engine; this only guards the transition.
func (r *FileRecord) MarkRestored(restoredPath, actor string, now time.Time) error {
	if r.State != StateTrashed {
		return ErrNotTrashed
	}
	r.State = StateActive
	r.CurrentPath = restoredPath
	r.OriginalPath = ""
	r.DeletedBy = ""
	r.DeletedAt = nil
	r.UpdatedBy = actor
	r.UpdatedAt = now
	return nil
}

// MarkArchived tags an active record as archived due to owner inactivity
// or by manual request. Archival never applies to trashed or pending
// records, and double archival is a conflict.
func (r *FileRecord) MarkArchived(actor, reason string, now time.Time) error {
	switch r.State {
	case StateArchived:
		return ErrAlreadyArchived
	case StateTrashed, StatePending:
		return ErrNotArchivable
	case StateActive:
	default:
		return ErrNotArchivable
	}
	if reason == "" {
		return ErrReasonRequired
	}

	r.State = StateArchived
	r.ArchivedBy = actor
	archivedAt := now
	r.ArchivedAt = &archivedAt
	r.ArchivedReason = reason
	r.UpdatedBy = actor
	r.UpdatedAt = now
	return nil
}

// MarkUnarchived reverses a manual or sweep archival
func (r *FileRecord) MarkUnarchived(actor string, now time.Time) error {
	if r.State != StateArchived {
		return ErrNotArchived
	}
	r.State = StateActive
	r.clearArchival()
	r.UpdatedBy = actor
	r.UpdatedAt = now
	return nil
}

func (r *FileRecord) clearArchival() {
	if r.State == StateArchived {
		r.State = StateActive
	}
	r.ArchivedBy = ""
	r.ArchivedAt = nil
	r.ArchivedReason = ""
}

// AdminActivity maps an administrator identity to its last
// authentication time. Read-only; owned by the user store.
type AdminActivity struct {
	Name        string
	LastLoginAt *time.Time
}
