//go:build windows

package proc

import (
	"fmt"
	"net"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

var (
	iphlpapi                = windows.NewLazySystemDLL("iphlpapi.dll")
	procGetExtendedTcpTable = iphlpapi.NewProc("GetExtendedTcpTable")
	procGetExtendedUdpTable = iphlpapi.NewProc("GetExtendedUdpTable")
)

const (
	afInet  = 2
	afInet6 = 23

	tcpTableOwnerPidAll = 5
	udpTableOwnerPid    = 1
)

// MIB_TCP_STATE values, see iphlpapi. DELETE_TCB maps to CLOSE since
// the socket is gone for all practical purposes.
var mibTCPStates = map[uint32]model.State{
	1:  model.StateClose,
	2:  model.StateListen,
	3:  model.StateSynSent,
	4:  model.StateSynRecv,
	5:  model.StateEstablished,
	6:  model.StateFinWait1,
	7:  model.StateFinWait2,
	8:  model.StateCloseWait,
	9:  model.StateClosing,
	10: model.StateLastAck,
	11: model.StateTimeWait,
	12: model.StateClose,
}

type mibTCPRowOwnerPID struct {
	State      uint32
	LocalAddr  uint32
	LocalPort  uint32
	RemoteAddr uint32
	RemotePort uint32
	OwningPID  uint32
}

type mibTCP6RowOwnerPID struct {
	LocalAddr     [16]byte
	LocalScopeID  uint32
	LocalPort     uint32
	RemoteAddr    [16]byte
	RemoteScopeID uint32
	RemotePort    uint32
	State         uint32
	OwningPID     uint32
}

type mibUDPRowOwnerPID struct {
	LocalAddr uint32
	LocalPort uint32
	OwningPID uint32
}

type mibUDP6RowOwnerPID struct {
	LocalAddr    [16]byte
	LocalScopeID uint32
	LocalPort    uint32
	OwningPID    uint32
}

// Connections reads the TCP and UDP owner tables for both address
// families. Per-family failures are tolerated as long as at least one
// table could be read.
func Connections() ([]model.Connection, error) {
	var conns []model.Connection
	var lastErr error
	readAny := false

	for _, family := range []uint32{afInet, afInet6} {
		if rows, err := tcpTable(family); err == nil {
			readAny = true
			conns = append(conns, rows...)
		} else {
			lastErr = err
		}
		if rows, err := udpTable(family); err == nil {
			readAny = true
			conns = append(conns, rows...)
		} else {
			lastErr = err
		}
	}

	if !readAny {
		return nil, fmt.Errorf("reading connection tables: %w", lastErr)
	}
	return conns, nil
}

// fetchTable performs the usual two-call size-then-fill dance for the
// iphlpapi table functions.
func fetchTable(proc *windows.LazyProc, family, class uint32) ([]byte, error) {
	var size uint32
	r0, _, _ := proc.Call(0, uintptr(unsafe.Pointer(&size)), 0, uintptr(family), uintptr(class), 0)

	const errInsufficientBuffer = 122
	if r0 != errInsufficientBuffer && r0 != 0 {
		return nil, fmt.Errorf("%s size query failed: code %d", proc.Name, r0)
	}
	if size == 0 {
		return nil, fmt.Errorf("%s returned size 0", proc.Name)
	}

	buf := make([]byte, size)
	r0, _, e1 := proc.Call(
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
		0,
		uintptr(family),
		uintptr(class),
		0,
	)
	if r0 != 0 {
		return nil, fmt.Errorf("%s failed: %v (code %d)", proc.Name, e1, r0)
	}
	return buf, nil
}

func tcpTable(family uint32) ([]model.Connection, error) {
	buf, err := fetchTable(procGetExtendedTcpTable, family, tcpTableOwnerPidAll)
	if err != nil {
		return nil, err
	}

	base := uintptr(unsafe.Pointer(&buf[0]))
	numEntries := *(*uint32)(unsafe.Pointer(base))
	first := base + unsafe.Sizeof(numEntries)

	var conns []model.Connection
	if family == afInet {
		rowSize := unsafe.Sizeof(mibTCPRowOwnerPID{})
		for i := uint32(0); i < numEntries; i++ {
			row := (*mibTCPRowOwnerPID)(unsafe.Pointer(first + uintptr(i)*rowSize))
			conn := model.Connection{
				Protocol:  model.ProtoTCP,
				LocalAddr: ipv4FromDWORD(row.LocalAddr),
				LocalPort: ntohs(row.LocalPort),
				State:     mibTCPStates[row.State],
				PID:       int(row.OwningPID),
			}
			if conn.State != model.StateListen {
				conn.RemoteAddr = ipv4FromDWORD(row.RemoteAddr)
				conn.RemotePort = ntohs(row.RemotePort)
			}
			conns = append(conns, conn)
		}
	} else {
		rowSize := unsafe.Sizeof(mibTCP6RowOwnerPID{})
		for i := uint32(0); i < numEntries; i++ {
			row := (*mibTCP6RowOwnerPID)(unsafe.Pointer(first + uintptr(i)*rowSize))
			conn := model.Connection{
				Protocol:  model.ProtoTCP,
				LocalAddr: net.IP(row.LocalAddr[:]).String(),
				LocalPort: ntohs(row.LocalPort),
				State:     mibTCPStates[row.State],
				PID:       int(row.OwningPID),
			}
			if conn.State != model.StateListen {
				conn.RemoteAddr = net.IP(row.RemoteAddr[:]).String()
				conn.RemotePort = ntohs(row.RemotePort)
			}
			conns = append(conns, conn)
		}
	}
	return conns, nil
}

func udpTable(family uint32) ([]model.Connection, error) {
	buf, err := fetchTable(procGetExtendedUdpTable, family, udpTableOwnerPid)
	if err != nil {
		return nil, err
	}

	base := uintptr(unsafe.Pointer(&buf[0]))
	numEntries := *(*uint32)(unsafe.Pointer(base))
	first := base + unsafe.Sizeof(numEntries)

	var conns []model.Connection
	if family == afInet {
		rowSize := unsafe.Sizeof(mibUDPRowOwnerPID{})
		for i := uint32(0); i < numEntries; i++ {
			row := (*mibUDPRowOwnerPID)(unsafe.Pointer(first + uintptr(i)*rowSize))
			conns = append(conns, model.Connection{
				Protocol:  model.ProtoUDP,
				LocalAddr: ipv4FromDWORD(row.LocalAddr),
				LocalPort: ntohs(row.LocalPort),
				PID:       int(row.OwningPID),
			})
		}
	} else {
		rowSize := unsafe.Sizeof(mibUDP6RowOwnerPID{})
		for i := uint32(0); i < numEntries; i++ {
			row := (*mibUDP6RowOwnerPID)(unsafe.Pointer(first + uintptr(i)*rowSize))
			conns = append(conns, model.Connection{
				Protocol:  model.ProtoUDP,
				LocalAddr: net.IP(row.LocalAddr[:]).String(),
				LocalPort: ntohs(row.LocalPort),
				PID:       int(row.OwningPID),
			})
		}
	}
	return conns, nil
}

func ipv4FromDWORD(addr uint32) string {
	return net.IPv4(byte(addr), byte(addr>>8), byte(addr>>16), byte(addr>>24)).String()
}

// The port field holds a network-order uint16 in the low bytes.
func ntohs(p uint32) int {
	v := uint16(p)
	return int(v>>8 | v<<8)
}
