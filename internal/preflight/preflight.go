// Package preflight provides readiness checks for the directories a run
// depends on. The orchestrator runs them before mutating anything so a run
// never fails halfway through on a condition knowable at the start.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"crates/internal/fsutil"
)

// Result captures the outcome of a single check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding destPath has room for
// the tree at sourcePath plus marginMiB. A zero margin disables the check.
func CheckFreeSpace(sourcePath, destPath string, marginMiB int) Result {
	const name = "Free space"
	if marginMiB <= 0 {
		return Result{Name: name, Passed: true, Detail: "check disabled"}
	}

	needed, err := fsutil.DirSize(sourcePath)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("measure source: %v", err)}
	}
	needed += int64(marginMiB) * 1024 * 1024

	var stat unix.Statfs_t
	if err := unix.Statfs(destPath, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("statfs %s: %v", destPath, err)}
	}
	available := int64(stat.Bavail) * stat.Bsize

	if available < needed {
		return Result{Name: name, Detail: fmt.Sprintf("need %d MiB, %d MiB available", needed/(1024*1024), available/(1024*1024))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d MiB available", available/(1024*1024))}
}
