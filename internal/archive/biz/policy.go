package biz

import (
	"sort"
	"time"
)

// Default time-window policy values; overridable through configuration.
const (
	DefaultRetentionDays  = 7
	DefaultInactivityDays = 30

	// ExpiringSoonDays is the "about to be purged" warning window used
	// by the trash stats snapshot.
	ExpiringSoonDays = 1
)

// Placement is the upload placement decision
type Placement struct {
	Deferred bool
	// ReleaseTime is set only for deferred placements. A deferred
	// record's CreatedAt is stamped with this value so that the
	// scheduled processor finds due records with a plain
	// "created_at <= now" predicate.
	ReleaseTime time.Time
}

// DecideUploadPlacement decides whether an upload enters active storage
// immediately or waits in staging. A release time equal to now is due,
// not deferred.
func DecideUploadPlacement(requestedReleaseTime *time.Time, now time.Time) Placement {
	if requestedReleaseTime == nil || !requestedReleaseTime.After(now) {
		return Placement{Deferred: false}
	}
	return Placement{Deferred: true, ReleaseTime: *requestedReleaseTime}
}

// NextVersion returns the version number for a new upload under a
// (fileName, category) key. It returns 1 when no versions exist,
// otherwise the first free integer scanning upward from 1, falling back
// to max+1. Filling gaps keeps the sequence self-healing after hard
// deletes. Callers must hold the per-key version lock.
func NextVersion(existing []int) int {
	if len(existing) == 0 {
		return 1
	}

	versions := make([]int, len(existing))
	copy(versions, existing)
	sort.Ints(versions)

	next := 1
	for _, v := range versions {
		if v > next {
			return next
		}
		if v == next {
			next++
		}
	}
	return next
}

// DaysInTrash counts whole elapsed days since deletion
func DaysInTrash(deletedAt, now time.Time) int {
	elapsed := now.Sub(deletedAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed.Hours() / 24)
}

// DaysRemaining counts whole days left in the rescue window, never negative
func DaysRemaining(deletedAt, now time.Time, retentionDays int) int {
	remaining := retentionDays - DaysInTrash(deletedAt, now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanRestore reports whether a trashed record is still inside its rescue
// window. The boundary is strict: exactly retentionDays in trash is
// already expired.
func CanRestore(deletedAt, now time.Time, retentionDays int) bool {
	return DaysInTrash(deletedAt, now) < retentionDays
}

// IsExpired is the reaper-side complement of CanRestore
func IsExpired(deletedAt, now time.Time, retentionDays int) bool {
	return !CanRestore(deletedAt, now, retentionDays)
}

// IsAdminInactive reports whether an administrator has been dormant
// longer than thresholdDays. An admin who has never logged in is never
// classified inactive: absence of data is not evidence of inactivity,
// which keeps freshly created accounts out of the sweep.
func IsAdminInactive(lastLoginAt *time.Time, now time.Time, thresholdDays int) bool {
	if lastLoginAt == nil {
		return false
	}
	return now.Sub(*lastLoginAt) > time.Duration(thresholdDays)*24*time.Hour
}

// InactivityCutoff is the login date before which an admin counts as
// dormant; embedded in generated archive reasons.
func InactivityCutoff(now time.Time, thresholdDays int) time.Time {
	return now.Add(-time.Duration(thresholdDays) * 24 * time.Hour)
}
