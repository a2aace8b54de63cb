package report

import (
	"fmt"
	"os/exec"
	"runtime"
)

// startCommand launches a detached process.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// viewerCommand returns the platform command that opens path in the
// default application.
func viewerCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	default:
		return "xdg-open", []string{path}
	}
}

// Open opens path in the platform's default viewer without waiting for it.
func Open(path string) error {
	name, args := viewerCommand(runtime.GOOS, path)
	if err := startCommand(name, args...); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}
