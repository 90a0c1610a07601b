package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another daemon process is found.
var ErrAlreadyRunning = errors.New("another alarm-clockd is already running")

// processLister returns the process table. Defaults to ps.Processes.
type processLister func() ([]ps.Process, error)

// ensureSingleInstance fails if a process with the same executable name
// as ours, other than ourselves, is running.
func ensureSingleInstance(list processLister) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	processes, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if pid := findOtherInstance(processes, os.Getpid(), filepath.Base(executable)); pid != 0 {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	return nil
}

// findOtherInstance returns the pid of the first process named name that
// is not self, or 0.
func findOtherInstance(processes []ps.Process, self int, name string) int {
	name = strings.TrimSuffix(strings.ToLower(name), ".exe")

	for _, p := range processes {
		if p == nil || p.Pid() == self {
			continue
		}

		if strings.TrimSuffix(strings.ToLower(p.Executable()), ".exe") == name {
			return p.Pid()
		}
	}

	return 0
}
