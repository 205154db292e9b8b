package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// fileExtension is appended to every sanitized key.
const fileExtension = ".json"

// Lockfile tuning.
const (
	lockMaxRetries = 50
	lockRetryDelay = 20 * time.Millisecond
	staleLockAge   = 30 * time.Second
)

// FileKV stores each key as a file in a directory.
// Writes go through a temp file and rename so readers never observe a partial value.
type FileKV struct {
	directory string
}

// NewFileKV creates the directory if needed and returns a store rooted at it.
func NewFileKV(directory string) (*FileKV, error) {
	if directory == "" {
		return nil, errors.New("storage directory cannot be empty")
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &FileKV{directory: directory}, nil
}

// Directory returns the root directory.
func (f *FileKV) Directory() string {
	return f.directory
}

// Get implements KV.
func (f *FileKV) Get(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set implements KV.
func (f *FileKV) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	path := f.path(key)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(value), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming %s: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (f *FileKV) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Close implements KVCloser. FileKV holds no open handles.
func (f *FileKV) Close() error {
	return nil
}

// Lock acquires a cross-process advisory lockfile for key.
// The returned function releases it.
func (f *FileKV) Lock(key string) (func(), error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	lockPath := f.path(key) + ".lock"

	for range lockMaxRetries {
		lf, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, _ = fmt.Fprintf(lf, "%d", os.Getpid())
			_ = lf.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("creating lockfile: %w", err)
		}
		if removeStaleLock(lockPath) {
			continue
		}
		time.Sleep(lockRetryDelay)
	}

	return nil, fmt.Errorf("could not acquire lock on %s after retries", lockPath)
}

// path maps a key to a filesystem-safe file name.
func (f *FileKV) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(key)
	return filepath.Join(f.directory, safe+fileExtension)
}

// removeStaleLock removes lockPath when it is old and its owner is gone.
// Returns true if the caller should retry immediately.
func removeStaleLock(lockPath string) bool {
	info, err := os.Stat(lockPath)
	if err != nil || time.Since(info.ModTime()) <= staleLockAge {
		return false
	}
	if lockOwnerAlive(lockPath) {
		return false
	}
	_ = os.Remove(lockPath)
	return true
}

func lockOwnerAlive(lockPath string) bool {
	data, err := os.ReadFile(lockPath)
	if err != nil || len(data) == 0 {
		return false
	}
	var pid int
	if _, scanErr := fmt.Sscanf(string(data), "%d", &pid); scanErr != nil || pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything.
	return proc.Signal(syscall.Signal(0)) == nil
}
