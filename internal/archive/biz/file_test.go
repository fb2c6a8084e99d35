package biz

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lk2023060901/file-archive-backend/internal/archive/storage"
)

// fakeClock lets tests drive the use case through simulated time
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// memFileRepo is an in-memory FileRecordRepo for use case tests
type memFileRepo struct {
	mu      sync.Mutex
	records map[string]*FileRecord
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{records: make(map[string]*FileRecord)}
}

func clone(r *FileRecord) *FileRecord {
	cp := *r
	return &cp
}

func (m *memFileRepo) Create(_ context.Context, record *FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = clone(record)
	return nil
}

func (m *memFileRepo) GetByID(_ context.Context, id string) (*FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		return clone(r), nil
	}
	return nil, nil
}

func (m *memFileRepo) GetLatestByKey(_ context.Context, fileName, category, itemID string) (*FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *FileRecord
	for _, r := range m.records {
		if r.FileName != fileName || r.Category != category {
			continue
		}
		if itemID != "" && r.ItemID != itemID {
			continue
		}
		if r.State == StatePending || r.State == StateTrashed {
			continue
		}
		if latest == nil || r.Version > latest.Version {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	return clone(latest), nil
}

func (m *memFileRepo) ListVersions(_ context.Context, fileName, category string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var versions []int
	for _, r := range m.records {
		if r.FileName == fileName && r.Category == category {
			versions = append(versions, r.Version)
		}
	}
	return versions, nil
}

func (m *memFileRepo) Update(_ context.Context, record *FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = clone(record)
	return nil
}

func (m *memFileRepo) HardDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memFileRepo) ListDueScheduled(_ context.Context, now time.Time) ([]*FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*FileRecord
	for _, r := range m.records {
		if r.State == StatePending && !r.CreatedAt.After(now) {
			due = append(due, clone(r))
		}
	}
	return due, nil
}

func (m *memFileRepo) ListTrashed(_ context.Context) ([]*FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*FileRecord
	for _, r := range m.records {
		if r.State == StateTrashed {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (m *memFileRepo) ListExpiredTrashed(_ context.Context, cutoff time.Time) ([]*FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*FileRecord
	for _, r := range m.records {
		if r.State == StateTrashed && r.DeletedAt != nil && !r.DeletedAt.After(cutoff) {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (m *memFileRepo) ListActiveForOwners(_ context.Context, owners []string) ([]*FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := make(map[string]bool, len(owners))
	for _, o := range owners {
		set[o] = true
	}

	var out []*FileRecord
	for _, r := range m.records {
		if r.State == StateActive && set[r.CreatedBy] {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (m *memFileRepo) ListArchived(_ context.Context) ([]*FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*FileRecord
	for _, r := range m.records {
		if r.State == StateArchived {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (m *memFileRepo) ListArchivedByOwner(_ context.Context, owner string) ([]*FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*FileRecord
	for _, r := range m.records {
		if r.State == StateArchived && r.CreatedBy == owner {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

// memAdminRepo is a fixed admin last-login view
type memAdminRepo struct {
	admins []AdminActivity
}

func (m *memAdminRepo) ListAdminsWithLastLogin(_ context.Context) ([]AdminActivity, error) {
	return m.admins, nil
}

// memNotifier records published events in order
type memNotifier struct {
	mu     sync.Mutex
	events []string
}

func (m *memNotifier) Publish(event string, _ interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *memNotifier) has(event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e == event {
			return true
		}
	}
	return false
}

type testEngine struct {
	uc       *FileUseCase
	repo     *memFileRepo
	admins   *memAdminRepo
	notifier *memNotifier
	fs       afero.Fs
	clock    *fakeClock
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	fs := afero.NewMemMapFs()
	logger := zap.NewNop()
	repo := newMemFileRepo()
	admins := &memAdminRepo{}
	notifier := &memNotifier{}
	mover := storage.NewMover(fs, "/data/staging", "/data/active", "/data/trash", logger)
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	uc := NewFileUseCase(repo, admins, mover, notifier,
		NewLocalVersionLocker(), nil, nil, DefaultPolicy(), logger)
	uc.now = clock.Now

	return &testEngine{uc: uc, repo: repo, admins: admins, notifier: notifier, fs: fs, clock: clock}
}

func (e *testEngine) upload(t *testing.T, name, category, actor string, release *time.Time) *FileRecord {
	t.Helper()
	record, err := e.uc.Upload(context.Background(), &UploadRequest{
		FileName:    name,
		Extension:   ".pdf",
		Category:    category,
		Data:        []byte("content of " + name),
		Actor:       actor,
		ReleaseTime: release,
	})
	require.NoError(t, err)
	return record
}

func TestUploadValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.uc.Upload(ctx, &UploadRequest{Category: "Invoice", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrFileNameRequired)

	_, err = e.uc.Upload(ctx, &UploadRequest{FileName: "a.pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrCategoryRequired)

	_, err = e.uc.Upload(ctx, &UploadRequest{FileName: "a.pdf", Category: "Invoice"})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestUploadAssignsSequentialVersions(t *testing.T) {
	e := newTestEngine(t)

	r1 := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	r2 := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	other := e.upload(t, "report.pdf", "Contract", "alice", nil)

	assert.Equal(t, 1, r1.Version)
	assert.Equal(t, 2, r2.Version)
	assert.Equal(t, 1, other.Version, "versions are numbered per (name, category) key")

	assert.Equal(t, StateActive, r1.State)
	exists, err := afero.Exists(e.fs, r1.CurrentPath)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, e.notifier.has("file.uploaded"))
}

func TestUploadVersionGapRefilled(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	e.upload(t, "report.pdf", "Invoice", "alice", nil)
	r2 := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	e.upload(t, "report.pdf", "Invoice", "alice", nil)

	_, err := e.uc.Delete(ctx, r2.ID, "alice")
	require.NoError(t, err)
	require.NoError(t, e.uc.Purge(ctx, r2.ID))

	refilled := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	assert.Equal(t, 2, refilled.Version)
}

func TestConcurrentUploadsGetUniqueVersions(t *testing.T) {
	e := newTestEngine(t)

	const n = 10
	results := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := e.uc.Upload(context.Background(), &UploadRequest{
				FileName: "report.pdf",
				Category: "Invoice",
				Data:     []byte("payload"),
				Actor:    "alice",
			})
			if err == nil {
				results <- record.Version
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	count := 0
	for v := range results {
		assert.False(t, seen[v], "version %d assigned twice", v)
		seen[v] = true
		count++
	}
	assert.Equal(t, n, count)
	for v := 1; v <= n; v++ {
		assert.True(t, seen[v], "version %d missing from sequence", v)
	}
}

// failingLocker always refuses the version lock
type failingLocker struct{}

func (failingLocker) Acquire(context.Context, string) (func(), error) {
	return nil, ErrVersionLockTimeout
}

// failingVersionsRepo breaks the version listing only
type failingVersionsRepo struct {
	*memFileRepo
}

func (r *failingVersionsRepo) ListVersions(context.Context, string, string) ([]int, error) {
	return nil, errors.New("store unavailable")
}

func zoneFileCount(t *testing.T, fs afero.Fs, dir string) int {
	t.Helper()
	infos, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	return len(infos)
}

func TestUploadRollsBackBytesOnFailure(t *testing.T) {
	t.Run("lock acquisition fails", func(t *testing.T) {
		e := newTestEngine(t)
		e.uc.locker = failingLocker{}

		_, err := e.uc.Upload(context.Background(), &UploadRequest{
			FileName: "report.pdf",
			Category: "Invoice",
			Data:     []byte("payload"),
			Actor:    "alice",
		})
		assert.ErrorIs(t, err, ErrVersionLockTimeout)
		assert.Zero(t, zoneFileCount(t, e.fs, "/data/active"), "orphaned bytes left in the zone")
	})

	t.Run("version listing fails", func(t *testing.T) {
		e := newTestEngine(t)
		e.uc.repo = &failingVersionsRepo{memFileRepo: newMemFileRepo()}

		release := e.clock.Now().Add(time.Hour)
		_, err := e.uc.Upload(context.Background(), &UploadRequest{
			FileName:    "report.pdf",
			Category:    "Invoice",
			Data:        []byte("payload"),
			Actor:       "alice",
			ReleaseTime: &release,
		})
		assert.Error(t, err)
		assert.Zero(t, zoneFileCount(t, e.fs, "/data/staging"), "orphaned bytes left in the zone")
	})
}

func TestScheduledUploadLifecycle(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	release := e.clock.Now().Add(2 * time.Hour)
	record := e.upload(t, "notes.pdf", "Minutes", "bob", &release)

	assert.Equal(t, StatePending, record.State)
	assert.True(t, record.Scheduled)
	assert.False(t, record.Processed)
	assert.Equal(t, release, record.CreatedAt, "release time is carried in CreatedAt")
	assert.True(t, strings.HasPrefix(record.CurrentPath, "/data/staging/"))
	assert.True(t, e.notifier.has("file.scheduled"))

	// a pending record is not resolvable as the latest version
	_, err := e.uc.GetLatestByKey(ctx, "notes.pdf", "Minutes", "")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	// one hour early: nothing is due yet
	e.clock.Advance(time.Hour)
	processed, err := e.uc.ProcessDueScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)

	// just past the release time the processor promotes it
	e.clock.Advance(time.Hour + time.Second)
	processed, err = e.uc.ProcessDueScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	got, err := e.uc.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, StateActive, got.State)
	assert.True(t, got.Processed)
	assert.True(t, got.Scheduled, "scheduled flag survives processing as audit history")
	assert.True(t, strings.HasPrefix(got.CurrentPath, "/data/active/"))

	exists, err := afero.Exists(e.fs, got.CurrentPath)
	require.NoError(t, err)
	assert.True(t, exists)

	latest, err := e.uc.GetLatestByKey(ctx, "notes.pdf", "Minutes", "")
	require.NoError(t, err)
	assert.Equal(t, record.ID, latest.ID)

	// processing is terminal
	processed, err = e.uc.ProcessDueScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
}

func TestProcessDueScheduledMissingSourceIsTerminal(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	release := e.clock.Now().Add(time.Hour)
	record := e.upload(t, "lost.pdf", "Minutes", "bob", &release)

	// the staged bytes vanish before the release time
	require.NoError(t, e.fs.Remove(record.CurrentPath))

	e.clock.Advance(2 * time.Hour)
	processed, err := e.uc.ProcessDueScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed, "a missing staged source is still processed")

	got, err := e.uc.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, StateActive, got.State)
	assert.True(t, got.Processed)

	// terminal: the record never re-enters a poll
	processed, err = e.uc.ProcessDueScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
}

func TestWithdrawScheduled(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	release := e.clock.Now().Add(time.Hour)
	record := e.upload(t, "draft.pdf", "Minutes", "bob", &release)

	require.NoError(t, e.uc.WithdrawScheduled(ctx, record.ID, "bob"))

	_, err := e.uc.GetByID(ctx, record.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	exists, err := afero.Exists(e.fs, record.CurrentPath)
	require.NoError(t, err)
	assert.False(t, exists, "staged bytes are removed on withdrawal")
	assert.True(t, e.notifier.has("file.withdrawn"))

	assert.ErrorIs(t, e.uc.WithdrawScheduled(ctx, record.ID, "bob"), ErrRecordNotFound)
}

func TestWithdrawProcessedIsConflict(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	release := e.clock.Now().Add(time.Minute)
	record := e.upload(t, "draft.pdf", "Minutes", "bob", &release)

	e.clock.Advance(2 * time.Minute)
	_, err := e.uc.ProcessDueScheduled(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, e.uc.WithdrawScheduled(ctx, record.ID, "bob"), ErrAlreadyProcessed)
}

func TestDeleteMovesToTrashAndIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	activePath := record.CurrentPath

	trashed, err := e.uc.Delete(ctx, record.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StateTrashed, trashed.State)
	assert.Equal(t, activePath, trashed.OriginalPath)
	assert.True(t, strings.HasPrefix(trashed.CurrentPath, "/data/trash/2025-06-01/"),
		"trash is organized by deletion date")
	require.NotNil(t, trashed.DeletedAt)
	firstDeletedAt := *trashed.DeletedAt
	assert.True(t, e.notifier.has("file.trashed"))

	// second delete is a no-op success that keeps the original deletion time
	e.clock.Advance(48 * time.Hour)
	again, err := e.uc.Delete(ctx, record.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, again.DeletedAt)
	assert.Equal(t, firstDeletedAt, *again.DeletedAt)
	assert.Equal(t, trashed.CurrentPath, again.CurrentPath)
}

func TestDeletePendingKeepsStagedBytes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	release := e.clock.Now().Add(time.Hour)
	record := e.upload(t, "draft.pdf", "Minutes", "bob", &release)

	_, err := e.uc.Delete(ctx, record.ID, "bob")
	assert.ErrorIs(t, err, ErrNotTrashable)

	// a rejected delete leaves the record and its staged bytes untouched
	got, err := e.uc.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, StatePending, got.State)
	assert.Equal(t, record.CurrentPath, got.CurrentPath)
	exists, err := afero.Exists(e.fs, record.CurrentPath)
	require.NoError(t, err)
	assert.True(t, exists, "staged bytes must survive a rejected delete")

	// the processor still promotes the upload with its bytes intact
	e.clock.Advance(time.Hour + time.Second)
	processed, err := e.uc.ProcessDueScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	promoted, err := e.uc.GetByID(ctx, record.ID)
	require.NoError(t, err)
	exists, err = afero.Exists(e.fs, promoted.CurrentPath)
	require.NoError(t, err)
	assert.True(t, exists, "promoted record must have bytes in active storage")
}

func TestRestoreWithinWindow(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	originalPath := record.CurrentPath

	_, err := e.uc.Delete(ctx, record.ID, "alice")
	require.NoError(t, err)

	e.clock.Advance(6*24*time.Hour + 23*time.Hour)
	restored, err := e.uc.Restore(ctx, record.ID, "alice")
	require.NoError(t, err)

	assert.Equal(t, StateActive, restored.State)
	assert.Nil(t, restored.DeletedAt)
	assert.Empty(t, restored.OriginalPath)
	assert.Equal(t, originalPath, restored.CurrentPath, "restore prefers the original location")

	exists, err := afero.Exists(e.fs, originalPath)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, e.notifier.has("file.restored"))
}

func TestRestoreAfterRetentionIsRejected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	_, err := e.uc.Delete(ctx, record.ID, "alice")
	require.NoError(t, err)

	e.clock.Advance(7 * 24 * time.Hour)
	_, err = e.uc.Restore(ctx, record.ID, "alice")
	assert.ErrorIs(t, err, ErrRetentionExpired)

	// the record is still there, still trashed
	got, err := e.uc.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, StateTrashed, got.State)
}

func TestRestoreActiveIsRejected(t *testing.T) {
	e := newTestEngine(t)

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	_, err := e.uc.Restore(context.Background(), record.ID, "alice")
	assert.ErrorIs(t, err, ErrNotTrashed)
}

func TestPurgeRemovesRecordAndBytes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	trashed, err := e.uc.Delete(ctx, record.ID, "alice")
	require.NoError(t, err)

	require.NoError(t, e.uc.Purge(ctx, record.ID))

	_, err = e.uc.GetByID(ctx, record.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	exists, err := afero.Exists(e.fs, trashed.CurrentPath)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.True(t, e.notifier.has("file.purged"))
}

func TestPurgeToleratesMissingBytes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	trashed, err := e.uc.Delete(ctx, record.ID, "alice")
	require.NoError(t, err)

	require.NoError(t, e.fs.Remove(trashed.CurrentPath))

	require.NoError(t, e.uc.Purge(ctx, record.ID))
	_, err = e.uc.GetByID(ctx, record.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPurgeActiveIsRejected(t *testing.T) {
	e := newTestEngine(t)

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	assert.ErrorIs(t, e.uc.Purge(context.Background(), record.ID), ErrNotTrashed)
}

func TestReapExpiredPurgesOnlyPastRetention(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	old := e.upload(t, "old.pdf", "Invoice", "alice", nil)
	_, err := e.uc.Delete(ctx, old.ID, "alice")
	require.NoError(t, err)

	e.clock.Advance(5 * 24 * time.Hour)
	fresh := e.upload(t, "fresh.pdf", "Invoice", "alice", nil)
	_, err = e.uc.Delete(ctx, fresh.ID, "alice")
	require.NoError(t, err)

	// old is now 8 days in trash, fresh only 3
	e.clock.Advance(3 * 24 * time.Hour)
	purged, err := e.uc.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = e.uc.GetByID(ctx, old.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	got, err := e.uc.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, StateTrashed, got.State)
}

func TestArchiveAndUnarchive(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)

	archived, err := e.uc.Archive(ctx, record.ID, "admin", "quarterly cleanup")
	require.NoError(t, err)
	assert.Equal(t, StateArchived, archived.State)
	assert.Equal(t, "admin", archived.ArchivedBy)
	assert.Equal(t, "quarterly cleanup", archived.ArchivedReason)
	require.NotNil(t, archived.ArchivedAt)
	assert.True(t, e.notifier.has("file.archived"))

	// double archive is a conflict and changes nothing
	_, err = e.uc.Archive(ctx, record.ID, "admin", "again")
	assert.ErrorIs(t, err, ErrAlreadyArchived)
	got, err := e.uc.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "quarterly cleanup", got.ArchivedReason)

	unarchived, err := e.uc.Unarchive(ctx, record.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, StateActive, unarchived.State)
	assert.Nil(t, unarchived.ArchivedAt)
	assert.Empty(t, unarchived.ArchivedReason)

	_, err = e.uc.Unarchive(ctx, record.ID, "admin")
	assert.ErrorIs(t, err, ErrNotArchived)
}

func TestArchiveRequiresReason(t *testing.T) {
	e := newTestEngine(t)

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	_, err := e.uc.Archive(context.Background(), record.ID, "admin", "")
	assert.ErrorIs(t, err, ErrReasonRequired)
}

func TestArchiveTrashedIsRejected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	_, err := e.uc.Delete(ctx, record.ID, "alice")
	require.NoError(t, err)

	_, err = e.uc.Archive(ctx, record.ID, "admin", "cleanup")
	assert.ErrorIs(t, err, ErrNotArchivable)
}

func TestDeleteArchivedClearsArchivalTag(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	_, err := e.uc.Archive(ctx, record.ID, "admin", "cleanup")
	require.NoError(t, err)

	trashed, err := e.uc.Delete(ctx, record.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StateTrashed, trashed.State)
	assert.Nil(t, trashed.ArchivedAt)
	assert.Empty(t, trashed.ArchivedBy)
	assert.Empty(t, trashed.ArchivedReason)
}

func TestListTrashReportsRemainingWindow(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	record := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	_, err := e.uc.Delete(ctx, record.ID, "alice")
	require.NoError(t, err)

	e.clock.Advance(3 * 24 * time.Hour)
	entries, err := e.uc.ListTrash(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, 3, entries[0].DaysInTrash)
	assert.Equal(t, 4, entries[0].DaysRemaining)
	assert.True(t, entries[0].CanRestore)
}

func TestTrashStats(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	r1 := e.upload(t, "a.pdf", "Invoice", "alice", nil)
	_, err := e.uc.Delete(ctx, r1.ID, "alice")
	require.NoError(t, err)

	e.clock.Advance(6*24*time.Hour + 12*time.Hour)

	r2 := e.upload(t, "b.pdf", "Invoice", "alice", nil)
	_, err = e.uc.Delete(ctx, r2.ID, "alice")
	require.NoError(t, err)

	stats, err := e.uc.TrashStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, r1.Size+r2.Size, stats.TotalBytes)
	assert.NotEmpty(t, stats.TotalHuman)
	assert.Equal(t, 1, stats.ExpiringSoon, "only the six-day-old record is about to be purged")
}

func TestFullLifecycleWithVersioning(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	v1 := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	v2 := e.upload(t, "report.pdf", "Invoice", "alice", nil)
	require.Equal(t, 1, v1.Version)
	require.Equal(t, 2, v2.Version)

	trashed, err := e.uc.Delete(ctx, v1.ID, "alice")
	require.NoError(t, err)

	entries, err := e.uc.ListTrash(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 7, entries[0].DaysRemaining)

	e.clock.Advance(8 * 24 * time.Hour)
	purged, err := e.uc.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = e.uc.GetByID(ctx, v1.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	exists, err := afero.Exists(e.fs, trashed.CurrentPath)
	require.NoError(t, err)
	assert.False(t, exists)

	// v2 is untouched and still the latest
	latest, err := e.uc.GetLatestByKey(ctx, "report.pdf", "Invoice", "")
	require.NoError(t, err)
	assert.Equal(t, v2.ID, latest.ID)
	assert.Equal(t, 2, latest.Version)
}

func TestArchiveSweep(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	now := e.clock.Now()
	dormant := now.Add(-31 * 24 * time.Hour)
	recent := now.Add(-2 * 24 * time.Hour)
	e.admins.admins = []AdminActivity{
		{Name: "alice", LastLoginAt: &dormant},
		{Name: "bob", LastLoginAt: &recent},
		{Name: "carol", LastLoginAt: nil},
	}

	a1 := e.upload(t, "a.pdf", "Invoice", "alice", nil)
	a2 := e.upload(t, "b.pdf", "Invoice", "alice", nil)
	a3 := e.upload(t, "c.pdf", "Contract", "alice", nil)
	already := e.upload(t, "d.pdf", "Contract", "alice", nil)
	_, err := e.uc.Archive(ctx, already.ID, "admin", "manual")
	require.NoError(t, err)
	bobs := e.upload(t, "e.pdf", "Invoice", "bob", nil)

	result, err := e.uc.ArchiveSweep(ctx, 30)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, result.InactiveAdmins)
	assert.Equal(t, 3, result.ArchivedCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Len(t, result.Sample, 3)
	assert.True(t, e.notifier.has("archive.sweep"))

	// every archived file of one pass carries the same reason, stamped
	// with the cutoff date and the system actor
	var reasons []string
	for _, id := range []string{a1.ID, a2.ID, a3.ID} {
		got, err := e.uc.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StateArchived, got.State)
		assert.Equal(t, SweepActor, got.ArchivedBy)
		assert.Contains(t, got.ArchivedReason, result.Cutoff)
		reasons = append(reasons, got.ArchivedReason)
	}
	assert.Equal(t, reasons[0], reasons[1])
	assert.Equal(t, reasons[1], reasons[2])

	// the manually archived file kept its own reason
	got, err := e.uc.GetByID(ctx, already.ID)
	require.NoError(t, err)
	assert.Equal(t, "manual", got.ArchivedReason)

	// active admins are untouched
	got, err = e.uc.GetByID(ctx, bobs.ID)
	require.NoError(t, err)
	assert.Equal(t, StateActive, got.State)

	// sweeping again finds nothing left to archive
	second, err := e.uc.ArchiveSweep(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ArchivedCount)
}

func TestArchiveSweepNoDormantAdmins(t *testing.T) {
	e := newTestEngine(t)

	recent := e.clock.Now().Add(-time.Hour)
	e.admins.admins = []AdminActivity{{Name: "alice", LastLoginAt: &recent}}
	e.upload(t, "a.pdf", "Invoice", "alice", nil)

	result, err := e.uc.ArchiveSweep(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultInactivityDays, result.ThresholdDays, "zero threshold falls back to policy")
	assert.Empty(t, result.InactiveAdmins)
	assert.Equal(t, 0, result.ArchivedCount)
}

func TestListArchivedByOwner(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a := e.upload(t, "a.pdf", "Invoice", "alice", nil)
	b := e.upload(t, "b.pdf", "Invoice", "bob", nil)
	_, err := e.uc.Archive(ctx, a.ID, "admin", "cleanup")
	require.NoError(t, err)
	_, err = e.uc.Archive(ctx, b.ID, "admin", "cleanup")
	require.NoError(t, err)

	all, err := e.uc.ListArchived(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	alices, err := e.uc.ListArchived(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alices, 1)
	assert.Equal(t, a.ID, alices[0].ID)
}
