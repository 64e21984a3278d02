//go:build linux

package proc

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

// Processes returns a snapshot of running processes and their short
// names. A process that exits between the directory listing and the
// name read is reported with an empty name rather than dropped.
func Processes() ([]model.ProcessSummary, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("listing /proc: %w", err)
	}

	var procs []model.ProcessSummary
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		procs = append(procs, model.ProcessSummary{
			PID:  pid,
			Name: processName(pid),
		})
	}
	return procs, nil
}

func processName(pid int) string {
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err == nil {
		if name := strings.TrimSpace(string(comm)); name != "" {
			return name
		}
	}

	// Kernel threads and some containers leave comm unreadable; fall
	// back to the first cmdline token's basename.
	cmdline, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil {
		return ""
	}
	name := string(cmdline)
	if idx := strings.IndexByte(name, 0); idx != -1 {
		name = name[:idx]
	}
	if idx := strings.LastIndexByte(name, '/'); idx != -1 {
		name = name[idx+1:]
	}
	return strings.TrimSpace(name)
}
