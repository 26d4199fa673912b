package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RotationPolicy holds parsed rotation limits. Zero values disable a limit.
type RotationPolicy struct {
	MaxSize    int64
	MaxAge     time.Duration
	MaxBackups int
	Compress   bool
}

const backupTimeLayout = "20060102T150405.000"

// RotatingFile is an append-only log file that is moved aside once it grows
// past MaxSize or gets older than MaxAge.
type RotatingFile struct {
	path   string
	policy RotationPolicy

	mu      sync.Mutex
	file    *os.File
	size    int64
	opened  time.Time
	nowFunc func() time.Time
}

// OpenRotatingFile opens or creates path for appending.
func OpenRotatingFile(path string, policy RotationPolicy) (*RotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	rf := &RotatingFile{path: path, policy: policy, nowFunc: time.Now}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *RotatingFile) open() error {
	file, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	rf.file = file
	rf.size = stat.Size()
	rf.opened = rf.nowFunc()
	return nil
}

// Write implements io.Writer.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return 0, os.ErrClosed
	}
	if rf.due(int64(len(p))) {
		if err := rf.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log file: %w", err)
		}
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// Close implements io.Closer.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}

func (rf *RotatingFile) due(incoming int64) bool {
	if rf.size == 0 {
		return false
	}
	if rf.policy.MaxSize > 0 && rf.size+incoming > rf.policy.MaxSize {
		return true
	}
	return rf.policy.MaxAge > 0 && rf.nowFunc().Sub(rf.opened) >= rf.policy.MaxAge
}

func (rf *RotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		return fmt.Errorf("close current file: %w", err)
	}

	backup := rf.path + "." + rf.nowFunc().Format(backupTimeLayout)
	if err := os.Rename(rf.path, backup); err != nil {
		return fmt.Errorf("rename log file: %w", err)
	}
	if rf.policy.Compress {
		if err := gzipFile(backup); err != nil {
			fmt.Fprintf(os.Stderr, "compress log file %s: %v\n", backup, err)
		}
	}
	if err := rf.prune(); err != nil {
		fmt.Fprintf(os.Stderr, "prune log backups: %v\n", err)
	}

	return rf.open()
}

func gzipFile(name string) error {
	src, err := os.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(name + ".gz")
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		dst.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}

// prune keeps the newest MaxBackups rotated files. Backup names sort by age
// because of the timestamp suffix.
func (rf *RotatingFile) prune() error {
	if rf.policy.MaxBackups <= 0 {
		return nil
	}
	dir, base := filepath.Dir(rf.path), filepath.Base(rf.path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var backups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), base+".") {
			backups = append(backups, e.Name())
		}
	}
	sort.Strings(backups)

	for len(backups) > rf.policy.MaxBackups {
		if err := os.Remove(filepath.Join(dir, backups[0])); err != nil {
			return err
		}
		backups = backups[1:]
	}
	return nil
}
