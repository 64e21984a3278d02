//go:build linux

package proc

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

type socketTable struct {
	path  string
	proto model.Protocol
	ipv6  bool
}

var socketTables = []socketTable{
	{"/proc/net/tcp", model.ProtoTCP, false},
	{"/proc/net/tcp6", model.ProtoTCP, true},
	{"/proc/net/udp", model.ProtoUDP, false},
	{"/proc/net/udp6", model.ProtoUDP, true},
}

// Connections returns a snapshot of the socket tables with owning PIDs
// attached where the inode could be mapped. Individual sockets whose
// owner cannot be read remain with PID 0; only failure to read every
// table is an error.
func Connections() ([]model.Connection, error) {
	owners := socketInodeOwners()

	var conns []model.Connection
	var lastErr error
	readAny := false

	for _, tbl := range socketTables {
		rows, err := readSocketTable(tbl)
		if err != nil {
			lastErr = err
			continue
		}
		readAny = true
		for _, row := range rows {
			row.conn.PID = owners[row.inode]
			conns = append(conns, row.conn)
		}
	}

	if !readAny {
		return nil, fmt.Errorf("reading socket tables: %w", lastErr)
	}
	return conns, nil
}

type socketRow struct {
	conn  model.Connection
	inode string
}

func readSocketTable(tbl socketTable) ([]socketRow, error) {
	f, err := os.Open(tbl.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []socketRow
	scanner := bufio.NewScanner(f)
	scanner.Scan() // header
	for scanner.Scan() {
		conn, inode, ok := parseSocketLine(scanner.Text(), tbl.proto, tbl.ipv6)
		if !ok {
			continue
		}
		rows = append(rows, socketRow{conn: conn, inode: inode})
	}
	return rows, scanner.Err()
}

// socketInodeOwners walks /proc/<pid>/fd once and maps socket inodes to
// PIDs. Directories we cannot read (other users' processes without
// root) are skipped; their sockets simply end up unowned.
func socketInodeOwners() map[string]int {
	owners := make(map[string]int)

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return owners
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}

		fdPath := "/proc/" + e.Name() + "/fd"
		fds, err := os.ReadDir(fdPath)
		if err != nil {
			continue
		}

		for _, fd := range fds {
			link, err := os.Readlink(fdPath + "/" + fd.Name())
			if err != nil {
				continue
			}
			if strings.HasPrefix(link, "socket:[") && strings.HasSuffix(link, "]") {
				inode := link[len("socket:[") : len(link)-1]
				owners[inode] = pid
			}
		}
	}

	return owners
}
