// Package uploads stores cover assets on local disk.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for names that are not a single path element.
var ErrInvalidName = errors.New("invalid file name")

// Disk keeps uploaded files flat in a single directory.
type Disk struct {
	Dir string
}

// NewDisk creates the upload directory if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{Dir: dir}, nil
}

// Path resolves name inside the upload directory.
func (d *Disk) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(d.Dir, name), nil
}

// Save writes r to a new file named with a random UUID plus ext and returns
// the file name.
func (d *Disk) Save(r io.Reader, ext string) (string, error) {
	name := uuid.NewString() + strings.ToLower(ext)
	path, err := d.Path(name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return name, nil
}

// Delete removes a stored file.
func (d *Disk) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := d.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// ModTime returns when a stored file was last written.
func (d *Disk) ModTime(name string) (time.Time, error) {
	path, err := d.Path(name)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return info.ModTime(), nil
}

// List returns the names of all stored files.
func (d *Disk) List() ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
