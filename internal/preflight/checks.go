package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"authmon/internal/config"
	"authmon/internal/history"
)

// CheckWatchedFile verifies that the auth log is a readable regular file. A
// missing file only warns: the monitor picks it up once it appears.
func CheckWatchedFile(path string) Result {
	const name = "Watched file"

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Result{Name: name, Status: StatusWarn, Detail: path + " does not exist yet; it will be read once created"}
	case err != nil:
		return Result{Name: name, Status: StatusFail, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	case info.IsDir():
		return Result{Name: name, Status: StatusFail, Detail: path + " (error: is a directory)"}
	}
	if err := canRead(path); err != nil {
		return Result{Name: name, Status: StatusFail, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Status: StatusOK, Detail: path}
}

// CheckAction verifies that the action program resolves on PATH.
func CheckAction(cfg *config.Config) Result {
	const name = "Action"

	command := strings.Join(cfg.Action.Command, " ")
	if cfg.Action.DryRun {
		return Result{Name: name, Status: StatusInfo, Detail: "dry run (would run " + command + ")"}
	}
	if len(cfg.Action.Command) == 0 {
		return Result{Name: name, Status: StatusFail, Detail: "no command configured"}
	}
	resolved, err := exec.LookPath(cfg.Action.Command[0])
	if err != nil {
		return Result{Name: name, Status: StatusFail, Detail: cfg.Action.Command[0] + " not found on PATH"}
	}
	return Result{Name: name, Status: StatusOK, Detail: strings.TrimSpace(resolved + " " + strings.Join(cfg.Action.Command[1:], " "))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Status: StatusFail, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Status: StatusFail, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Status: StatusFail, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := canWriteDir(path); err != nil {
		return Result{Name: name, Status: StatusFail, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Status: StatusOK, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLock reports whether another monitor holds the instance lock.
func CheckLock(lockPath, pidPath string) Result {
	const name = "Instance lock"

	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Status: StatusFail, Detail: err.Error()}
	}
	if !ok {
		detail := "held by a running monitor"
		if data, err := os.ReadFile(pidPath); err == nil {
			detail += " (pid " + strings.TrimSpace(string(data)) + ")"
		}
		return Result{Name: name, Status: StatusWarn, Detail: detail}
	}
	_ = lock.Unlock()
	return Result{Name: name, Status: StatusOK, Detail: "free"}
}

// CheckHistory opens the history database and reports its newest event.
func CheckHistory(ctx context.Context, path string) Result {
	const name = "History"

	store, err := history.Open(path)
	if err != nil {
		return Result{Name: name, Status: StatusFail, Detail: err.Error()}
	}
	defer store.Close()
	events, err := store.Recent(ctx, 1)
	if err != nil {
		return Result{Name: name, Status: StatusFail, Detail: err.Error()}
	}
	if len(events) == 0 {
		return Result{Name: name, Status: StatusOK, Detail: path + " (empty)"}
	}
	return Result{Name: name, Status: StatusOK, Detail: fmt.Sprintf("%s (last event %s)", path, events[0].At.Local().Format(time.DateTime))}
}
