package scan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

// SortKey selects the primary ordering of the output table.
type SortKey string

const (
	SortByPID     SortKey = "PID"
	SortByPort    SortKey = "Port"
	SortByProgram SortKey = "Program"
)

// ParseSortKey accepts the key names case-insensitively.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(s) {
	case "pid":
		return SortByPID, nil
	case "port":
		return SortByPort, nil
	case "program":
		return SortByProgram, nil
	}
	return "", fmt.Errorf("invalid sort key %q (want PID, Port, or Program)", s)
}

// Sort orders records in place by the given key. Ordering rules:
//   - PID is numeric; records without a PID sort last.
//   - Port compares the local port numerically.
//   - Program is case-insensitive; unnamed records sort last.
//   - Ties break by local port, then PID; the sort is stable, so full
//     ties keep their enumeration order.
func Sort(records []model.Record, key SortKey) {
	sort.SliceStable(records, func(i, j int) bool {
		return compare(records[i], records[j], key) < 0
	})
}

func compare(a, b model.Record, key SortKey) int {
	if c := primary(a, b, key); c != 0 {
		return c
	}
	if c := a.LocalPort - b.LocalPort; c != 0 {
		return c
	}
	return a.PID - b.PID
}

func primary(a, b model.Record, key SortKey) int {
	switch key {
	case SortByPID:
		if c := missingLast(a.PID == 0, b.PID == 0); c != 0 {
			return c
		}
		return a.PID - b.PID
	case SortByPort:
		return a.LocalPort - b.LocalPort
	default: // SortByProgram
		if c := missingLast(a.Program == "", b.Program == ""); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Program), strings.ToLower(b.Program))
	}
}

func missingLast(aMissing, bMissing bool) int {
	switch {
	case aMissing && !bMissing:
		return 1
	case !aMissing && bMissing:
		return -1
	}
	return 0
}
