package upload

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// LocalStore keeps uploads in a directory on disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: creating %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// Put writes body to a hidden temp file in the same directory, syncs it and
// renames it to name. Rename within one directory is atomic, so name is
// either absent or complete.
func (s *LocalStore) Put(ctx context.Context, name string, body io.Reader, _ string) (err error) {
	if !validName(name) {
		return fmt.Errorf("upload: invalid name %q", name)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("upload: creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, body); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("upload: syncing: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("upload: closing: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("upload: chmod: %w", err)
	}
	if err = os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("upload: publishing: %w", err)
	}
	return nil
}

// Handler serves stored files. Directories and in-progress temp files are
// reported as not found.
func (s *LocalStore) Handler() http.Handler {
	return http.FileServer(filesOnly{http.Dir(s.dir)})
}

type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	if !validName(path.Base(name)) {
		return nil, fs.ErrNotExist
	}
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

var _ BlobStore = (*LocalStore)(nil)
