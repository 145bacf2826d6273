// Package fsutil provides the filesystem primitives for batch reorganization:
// file and directory copies that preserve attributes, and a directory move
// that falls back to copy+delete across filesystem boundaries.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// CopyFile streams src to dst, creating parent directories and carrying over
// the source file mode. When preserveTimes is set the source modification
// time is applied to dst as well.
func CopyFile(src, dst string, preserveTimes bool) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if preserveTimes {
		if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
			return fmt.Errorf("preserve times: %w", err)
		}
	}
	return nil
}

// CopyDir recursively copies the directory tree rooted at src into dst,
// preserving file modes and, when preserveTimes is set, modification times.
// Existing files in dst are overwritten; extra entries in dst are left alone.
func CopyDir(src, dst string, preserveTimes bool) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", src)
	}

	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := CopyDir(srcPath, dstPath, preserveTimes); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			// Symlinks and other special files are not expected in a music
			// library; skip rather than fail the whole run.
			continue
		}
		if err := CopyFile(srcPath, dstPath, preserveTimes); err != nil {
			return err
		}
	}

	if preserveTimes {
		if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
			return fmt.Errorf("preserve times: %w", err)
		}
	}
	return nil
}

// MoveDir relocates the directory src to dst. A plain rename is attempted
// first; when src and dst live on different filesystems the move degrades to
// a recursive copy followed by removal of the source.
func MoveDir(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if err := CopyDir(src, dst, true); err != nil {
			return fmt.Errorf("cross-device copy: %w", err)
		}
		if err := os.RemoveAll(src); err != nil {
			return fmt.Errorf("remove source after copy: %w", err)
		}
		return nil
	}
	return renameErr
}

// DirSize returns the total size in bytes of all regular files under path.
func DirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
