package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

type jsonRecord struct {
	Protocol   string `json:"protocol"`
	PID        int    `json:"pid,omitempty"`
	Program    string `json:"program,omitempty"`
	LocalAddr  string `json:"local_addr"`
	LocalPort  int    `json:"local_port"`
	RemoteAddr string `json:"remote_addr,omitempty"`
	RemotePort int    `json:"remote_port,omitempty"`
	RemoteName string `json:"remote_name,omitempty"`
	State      string `json:"state,omitempty"`
}

// RenderJSON writes the record set as an indented JSON array. Optional
// fields are omitted rather than rendered with placeholders; consumers
// get the raw data and choose their own defaults.
func RenderJSON(w io.Writer, records []model.Record) error {
	out := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		out = append(out, jsonRecord{
			Protocol:   string(r.Protocol),
			PID:        r.PID,
			Program:    r.Program,
			LocalAddr:  r.LocalAddr,
			LocalPort:  r.LocalPort,
			RemoteAddr: r.RemoteAddr,
			RemotePort: r.RemotePort,
			RemoteName: r.RemoteName,
			State:      string(r.State),
		})
	}

	enc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(enc))
	return err
}
