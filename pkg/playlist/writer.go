package playlist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"stremio2m3u/pkg/apperr"
)

// Writer replaces a playlist file atomically: readers see either the previous
// document or the new one, never a partial write.
type Writer struct {
	fs afero.Fs
}

// NewWriter returns a Writer on fs. A nil fs means the OS filesystem.
func NewWriter(fs afero.Fs) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Writer{fs: fs}
}

const defaultMode os.FileMode = 0644

// Write stores data at path via a temp file in the same directory and a rename.
// A symlinked path is written through to its target, and an existing file keeps
// its permission bits. On error the existing file is left untouched.
func (w *Writer) Write(path string, data []byte) (err error) {
	path, err = w.resolve(path)
	if err != nil {
		return apperr.Write("resolve "+path, err)
	}
	dir := filepath.Dir(path)
	if err := w.fs.MkdirAll(dir, 0755); err != nil {
		return apperr.Write("create directory "+dir, err)
	}
	mode := defaultMode
	if info, statErr := w.fs.Stat(path); statErr == nil {
		if info.IsDir() {
			return apperr.Write("open "+path, fmt.Errorf("%s is a directory", path))
		}
		mode = info.Mode().Perm()
	}

	tmp, err := afero.TempFile(w.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return apperr.Write("create temp file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			w.fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return apperr.Write("write "+tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		return apperr.Write("sync "+tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return apperr.Write("close "+tmpName, err)
	}
	if err = w.fs.Chmod(tmpName, mode); err != nil {
		return apperr.Write("chmod "+tmpName, err)
	}
	if err = w.fs.Rename(tmpName, path); err != nil {
		return apperr.Write("replace "+path, err)
	}
	return nil
}

// resolve follows symlinks at path so the rename replaces the link target.
// Filesystems without symlink support return path unchanged.
func (w *Writer) resolve(path string) (string, error) {
	lstater, ok := w.fs.(afero.Lstater)
	if !ok {
		return path, nil
	}
	reader, ok := w.fs.(afero.LinkReader)
	if !ok {
		return path, nil
	}
	for range 40 {
		info, lstatCalled, err := lstater.LstatIfPossible(path)
		if err != nil {
			if os.IsNotExist(err) {
				return path, nil
			}
			return path, err
		}
		if !lstatCalled || info.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}
		target, err := reader.ReadlinkIfPossible(path)
		if err != nil {
			return path, err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		path = target
	}
	return path, fmt.Errorf("too many levels of symbolic links")
}
