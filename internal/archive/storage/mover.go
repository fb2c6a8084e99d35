package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	trashFolderLayout = "2006-01-02"
	dirPerm           = 0755
	filePerm          = 0644
)

// Mover shuttles file bytes between the staging, active and trash
// zones. It is a pure side-effecting utility: the database record stays
// authoritative, so a move or delete against a path that no longer
// exists on disk is logged and tolerated rather than failing the
// encompassing transition.
type Mover struct {
	fs      afero.Fs
	staging string
	active  string
	trash   string
	logger  *zap.Logger

	now func() time.Time
}

// NewMover creates a mover over the given filesystem and zone roots
func NewMover(fs afero.Fs, stagingDir, activeDir, trashDir string, logger *zap.Logger) *Mover {
	return &Mover{
		fs:      fs,
		staging: stagingDir,
		active:  activeDir,
		trash:   trashDir,
		logger:  logger,
		now:     time.Now,
	}
}

// uniqueName builds a collision-proof filename from the original name,
// a high-resolution timestamp and the extension.
func (m *Mover) uniqueName(name, ext string) string {
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%d%s", base, m.now().UnixNano(), ext)
}

// WriteStaging writes fresh upload bytes into the staging zone
func (m *Mover) WriteStaging(name, ext string, data []byte) (string, error) {
	return m.write(m.staging, name, ext, data)
}

// WriteActive writes fresh upload bytes straight into active storage
func (m *Mover) WriteActive(name, ext string, data []byte) (string, error) {
	return m.write(m.active, name, ext, data)
}

func (m *Mover) write(dir, name, ext string, data []byte) (string, error) {
	if err := m.fs.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create zone directory %s: %w", dir, err)
	}

	dest := filepath.Join(dir, m.uniqueName(name, ext))
	if err := afero.WriteFile(m.fs, dest, data, filePerm); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return dest, nil
}

// StageToActive promotes a staged upload into active storage under a
// collision-proof name.
func (m *Mover) StageToActive(stagedPath, name, ext string) (string, error) {
	dest := filepath.Join(m.active, m.uniqueName(name, ext))
	return m.move(stagedPath, dest)
}

// ActiveToTrash moves a live file into the trash folder of the given
// deletion date, one folder per calendar day.
func (m *Mover) ActiveToTrash(activePath string, deletedAt time.Time) (string, error) {
	name := filepath.Base(activePath)
	ext := filepath.Ext(name)
	dated := filepath.Join(m.trash, deletedAt.Format(trashFolderLayout))
	dest := filepath.Join(dated, m.uniqueName(name, ext))
	return m.move(activePath, dest)
}

// TrashToActive restores trashed bytes. It prefers the remembered
// original path when its directory still exists and the path is
// unoccupied; an occupied path gets a "restored" suffix; without a
// usable original path the file falls back to active storage under a
// fresh collision-proof name.
func (m *Mover) TrashToActive(trashPath, originalPath string) (string, error) {
	name := filepath.Base(trashPath)
	ext := filepath.Ext(name)

	dest := ""
	if originalPath != "" {
		dir := filepath.Dir(originalPath)
		if ok, _ := afero.DirExists(m.fs, dir); ok {
			occupied, _ := afero.Exists(m.fs, originalPath)
			if !occupied {
				dest = originalPath
			} else {
				origName := filepath.Base(originalPath)
				origExt := filepath.Ext(origName)
				restored := fmt.Sprintf("%s_restored_%d%s",
					strings.TrimSuffix(origName, origExt), m.now().UnixNano(), origExt)
				dest = filepath.Join(dir, restored)
			}
		}
	}

	if dest == "" {
		dest = filepath.Join(m.active, m.uniqueName(name, ext))
	}

	return m.move(trashPath, dest)
}

// PurgeFromTrash permanently deletes trashed bytes. An already-gone
// file is a warning, not an error: the record must stay removable.
func (m *Mover) PurgeFromTrash(trashPath string) error {
	err := m.fs.Remove(trashPath)
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		m.logger.Warn("purge target already gone", zap.String("path", trashPath))
		return nil
	}
	return fmt.Errorf("failed to purge %s: %w", trashPath, err)
}

// Remove deletes bytes from any zone, tolerating a missing file
func (m *Mover) Remove(path string) error {
	if path == "" {
		return nil
	}
	err := m.fs.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("failed to remove %s: %w", path, err)
}

// move renames src to dest, creating the destination directory. A
// missing source is tolerated: the computed destination is returned so
// the record transition can proceed, and the drift is logged for
// reconciliation. Falls back to copy+remove when rename crosses
// filesystems.
func (m *Mover) move(src, dest string) (string, error) {
	if err := m.fs.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	exists, err := afero.Exists(m.fs, src)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if !exists {
		m.logger.Warn("move source missing on disk, record proceeds without bytes",
			zap.String("src", src), zap.String("dest", dest))
		return dest, nil
	}

	if err := m.fs.Rename(src, dest); err == nil {
		return dest, nil
	}

	if err := m.copyFile(src, dest); err != nil {
		return "", err
	}
	if err := m.fs.Remove(src); err != nil {
		m.logger.Warn("failed to remove source after copy", zap.String("src", src), zap.Error(err))
	}
	return dest, nil
}

func (m *Mover) copyFile(src, dest string) error {
	in, err := m.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := m.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dest, err)
	}
	return nil
}
