package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const PidName = "soapscribe.pid"

// PidPath returns ~/.cache/soapscribe/soapscribe.pid
func PidPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "soapscribe", PidName), nil
}

// CheckExisting returns an error when the pid file names a live process.
// Missing, unreadable or stale pid files are ignored.
func CheckExisting(pidPath string) error {
	data, err := os.ReadFile(pidPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return nil
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return nil
	}

	return fmt.Errorf("server already running with PID %d", pid)
}

func createPidFile(pidPath string) error {
	if err := os.MkdirAll(filepath.Dir(pidPath), 0o700); err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func removePidFile(pidPath string) error {
	err := os.Remove(pidPath)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
