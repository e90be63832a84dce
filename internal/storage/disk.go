// Package storage is the public file disk. Uploads are written to a staging
// area first and moved into place only once the owning row is committed.
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const stagingDir = ".staging"

// ErrInvalidPath is returned for paths that escape the disk or point into staging.
var ErrInvalidPath = errors.New("invalid storage path")

// Disk stores files under a root on an afero filesystem.
type Disk struct {
	fs afero.Fs
}

// NewDisk wraps fs. Tests pass afero.NewMemMapFs().
func NewDisk(fs afero.Fs) *Disk {
	return &Disk{fs: fs}
}

// NewLocalDisk creates root if needed and returns a disk rooted there.
func NewLocalDisk(root string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return NewDisk(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

func clean(p string) (string, error) {
	p = path.Clean("/" + strings.TrimSpace(p))[1:]
	if p == "" || p == "." {
		return "", ErrInvalidPath
	}
	return p, nil
}

// Stage writes r to dir's staging area under a random name with ext and
// returns the staged path.
func (d *Disk) Stage(dir, ext string, r io.Reader) (string, error) {
	dir, err := clean(dir)
	if err != nil {
		return "", err
	}
	staging := path.Join(dir, stagingDir)
	if err := d.fs.MkdirAll(staging, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	staged := path.Join(staging, uuid.NewString()+strings.ToLower(ext))
	f, err := d.fs.Create(staged)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = d.fs.Remove(staged)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = d.fs.Remove(staged)
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return staged, nil
}

// FinalPath is where a staged file lands once committed.
func FinalPath(staged string) string {
	dir := path.Dir(path.Dir(staged))
	return path.Join(dir, path.Base(staged))
}

// Commit moves a staged file to its final path and returns that path.
func (d *Disk) Commit(staged string) (string, error) {
	staged, err := clean(staged)
	if err != nil {
		return "", err
	}
	if path.Base(path.Dir(staged)) != stagingDir {
		return "", ErrInvalidPath
	}
	final := FinalPath(staged)
	if err := d.fs.Rename(staged, final); err != nil {
		return "", fmt.Errorf("commit staged file: %w", err)
	}
	return final, nil
}

// Delete removes a file. A missing file is not an error.
func (d *Disk) Delete(p string) error {
	p, err := clean(p)
	if err != nil {
		return err
	}
	if err := d.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", p, err)
	}
	return nil
}

// Exists reports whether p is a regular file on the disk.
func (d *Disk) Exists(p string) bool {
	p, err := clean(p)
	if err != nil {
		return false
	}
	info, err := d.fs.Stat(p)
	return err == nil && !info.IsDir()
}

// URL is the public URL path of a stored file.
func URL(p string) string {
	if p == "" {
		return ""
	}
	return "/storage/" + strings.TrimPrefix(p, "/")
}

// Handler serves stored files below prefix. Directories and staged files are hidden.
func (d *Disk) Handler(prefix string) http.Handler {
	return http.StripPrefix(prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := clean(r.URL.Path)
		if err != nil || strings.Contains("/"+p+"/", "/"+stagingDir+"/") || !d.Exists(p) {
			http.NotFound(w, r)
			return
		}
		f, err := d.fs.Open(p)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, path.Base(p), info.ModTime(), f)
	}))
}
