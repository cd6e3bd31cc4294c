package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// BackupSuffix is appended to the name of a file copied aside before it is
// overwritten.
const BackupSuffix = ".bak"

// ErrLocked is returned when another process holds the destination lock.
var ErrLocked = errors.New("output is locked by another process")

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// WriteWithBackup replaces path with whatever write produces. While it runs
// it holds path+".lock"; an existing path is first copied to
// path+BackupSuffix. Output goes to a temp file renamed into place, so a
// failing write leaves the previous file untouched. It reports whether a
// backup was made.
func WriteWithBackup(path string, write func(w io.Writer) error) (backedUp bool, err error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return false, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	info, err := os.Stat(path)
	switch {
	case err == nil:
		if err := CopyFileMode(path, path+BackupSuffix, info.Mode().Perm()); err != nil {
			return false, fmt.Errorf("backup %s: %w", path, err)
		}
		backedUp = true
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return backedUp, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := write(tmp); err != nil {
		tmp.Close()
		return backedUp, err
	}
	if err := tmp.Close(); err != nil {
		return backedUp, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return backedUp, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return backedUp, fmt.Errorf("rename into %s: %w", path, err)
	}
	return backedUp, nil
}
