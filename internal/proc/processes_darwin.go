//go:build darwin

package proc

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

// Processes lists running processes via ps. The "=" suffixes suppress
// the header so every line is "<pid> <command path>".
func Processes() ([]model.ProcessSummary, error) {
	out, err := exec.Command("ps", "-axo", "pid=,comm=").Output()
	if err != nil {
		return nil, fmt.Errorf("running ps: %w", err)
	}

	var procs []model.ProcessSummary
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		name := strings.Join(fields[1:], " ")
		if idx := strings.LastIndexByte(name, '/'); idx != -1 {
			name = name[idx+1:]
		}
		procs = append(procs, model.ProcessSummary{PID: pid, Name: name})
	}
	return procs, nil
}
