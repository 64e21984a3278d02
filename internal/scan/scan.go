// Package scan builds unified connection/process records and applies
// the filter and sort stages on them. Each call to Snapshot is an
// independent cycle; nothing is retained between calls.
package scan

import (
	"fmt"

	"github.com/djdarcy/open-ports-and-programs/internal/proc"
	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

// Source supplies the raw OS snapshots. The indirection exists so
// tests can feed fixed tables instead of the live system.
type Source struct {
	Connections func() ([]model.Connection, error)
	Processes   func() ([]model.ProcessSummary, error)
}

// SystemSource reads the live OS tables.
func SystemSource() Source {
	return Source{
		Connections: proc.Connections,
		Processes:   proc.Processes,
	}
}

// Snapshot enumerates connections and processes once and joins them.
// The PID→name map is built a single time per cycle so each join is a
// constant-time lookup. A failed process listing degrades to unnamed
// records; a failed connection listing is fatal since there is nothing
// to show.
func (s Source) Snapshot() ([]model.Record, error) {
	conns, err := s.Connections()
	if err != nil {
		return nil, fmt.Errorf("enumerating connections: %w", err)
	}

	names := make(map[int]string)
	if procs, err := s.Processes(); err == nil {
		for _, p := range procs {
			names[p.PID] = p.Name
		}
	}

	records := make([]model.Record, 0, len(conns))
	for _, c := range conns {
		r := model.Record{Connection: c}
		if c.PID > 0 {
			r.Program = names[c.PID]
		}
		records = append(records, r)
	}
	return records, nil
}
