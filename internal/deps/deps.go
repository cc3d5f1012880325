package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Name      string
	Installed bool
	Path      string
	Version   string
}

// CheckBinary looks up bin in PATH (or uses it directly when it is a path)
// and reads the first line printed by versionFlag
func CheckBinary(bin, versionFlag string) Status {
	status := Status{Name: bin}
	path, err := exec.LookPath(bin)
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	if versionFlag == "" {
		return status
	}
	output, err := exec.Command(path, versionFlag).CombinedOutput()
	if err == nil {
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}
	return status
}

// CheckWhisperCli checks the whisper.cpp CLI; empty bin means "whisper-cli"
func CheckWhisperCli(bin string) Status {
	if bin == "" {
		bin = "whisper-cli"
	}
	return CheckBinary(bin, "--version")
}

// CheckFile verifies a model or data file exists and is non-empty
func CheckFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}

// CheckWritableDir creates dir if needed and checks that files can be written there
func CheckWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".writecheck-*")
	if err != nil {
		return fmt.Errorf("write to %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
