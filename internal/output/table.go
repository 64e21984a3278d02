package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/djdarcy/open-ports-and-programs/internal/proc"
	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

// Placeholder rendered for fields the scan could not fill in.
const (
	unknownProgram = "<unknown>"
	emptyField     = "-"
)

const (
	minProgramWidth = 16
	maxProgramWidth = 32
)

// FullTable renders the human-readable mode: records split into
// LISTENING and NON-LISTENING sections, each under a centered,
// timestamped rule, with one aligned column header before the first
// section.
type FullTable struct {
	ListeningOnly bool

	// ServiceName maps a local port to its well-known service name;
	// swappable so tests do not depend on the host services database.
	ServiceName func(port int, proto model.Protocol) string

	Now func() time.Time
}

func NewFullTable(listeningOnly bool) FullTable {
	return FullTable{
		ListeningOnly: listeningOnly,
		ServiceName:   proc.ServiceName,
		Now:           time.Now,
	}
}

func (t FullTable) Render(w io.Writer, records []model.Record) {
	p := NewPrinter(w)

	var listening, rest []model.Record
	for _, r := range records {
		if r.Listening() {
			listening = append(listening, r)
		} else {
			rest = append(rest, r)
		}
	}

	progW := programWidth(records)
	header := fmt.Sprintf("%-7s %-*s %-5s %-24s %-32s %-12s %s",
		"PID", progW, "Program", "Proto", "Local Address", "Remote Address", "State", "Service")
	width := len(header)

	stamp := t.Now().Format("06.01.02 15:04:05 (-07:00)")
	headerPrinted := false

	section := func(title string, recs []model.Record) {
		if len(recs) == 0 {
			return
		}
		p.Println(centerRule(title+" ("+stamp+")", width))
		if !headerPrinted {
			headerPrinted = true
			p.Println(header)
			p.Println(strings.Repeat("-", width))
		}
		for _, r := range recs {
			p.Println(t.row(r, progW))
		}
	}

	section("LISTENING", listening)
	if !t.ListeningOnly {
		section("NON-LISTENING", rest)
	}
}

func (t FullTable) row(r model.Record, progW int) string {
	svc := ""
	if t.ServiceName != nil {
		svc = t.ServiceName(r.LocalPort, r.Protocol)
	}
	line := fmt.Sprintf("%-7s %-*s %-5s %-24s %-32s %-12s %s",
		pidField(r.PID), progW, programField(r.Program), string(r.Protocol),
		endpoint(r.LocalAddr, r.LocalPort), remoteField(r), stateField(r.State), svc)
	return strings.TrimRight(line, " ")
}

// RenderBare prints one tab-delimited line per record with no headers.
// The field order is a contract for downstream scripts and must not
// change between releases without a version note:
//
//	proto  pid  program  local  remote  state
//
// Empty fields carry "-" so every line splits into exactly six fields.
func RenderBare(w io.Writer, records []model.Record) {
	p := NewPrinter(w)
	for _, r := range records {
		p.Println(strings.Join([]string{
			string(r.Protocol),
			pidField(r.PID),
			programField(r.Program),
			endpoint(r.LocalAddr, r.LocalPort),
			remoteField(r),
			stateField(r.State),
		}, "\t"))
	}
}

func programWidth(records []model.Record) int {
	w := minProgramWidth
	for _, r := range records {
		if n := len(programField(r.Program)); n > w {
			w = n
		}
	}
	if w > maxProgramWidth {
		w = maxProgramWidth
	}
	return w
}

func pidField(pid int) string {
	if pid == 0 {
		return emptyField
	}
	return fmt.Sprintf("%d", pid)
}

func programField(name string) string {
	if name == "" {
		return unknownProgram
	}
	return name
}

func stateField(s model.State) string {
	if s == model.StateNone {
		return emptyField
	}
	return string(s)
}

func remoteField(r model.Record) string {
	if r.RemoteAddr == "" {
		return emptyField
	}
	addr := endpoint(r.RemoteAddr, r.RemotePort)
	if r.RemoteName != "" {
		return addr + " (" + r.RemoteName + ")"
	}
	return addr
}

func endpoint(addr string, port int) string {
	if strings.ContainsRune(addr, ':') {
		return fmt.Sprintf("[%s]:%d", addr, port)
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

func centerRule(s string, width int) string {
	s = " " + s + " "
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat("-", left) + s + strings.Repeat("-", right)
}
