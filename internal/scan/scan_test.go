package scan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

func fixedSource(conns []model.Connection, procs []model.ProcessSummary) Source {
	return Source{
		Connections: func() ([]model.Connection, error) { return conns, nil },
		Processes:   func() ([]model.ProcessSummary, error) { return procs, nil },
	}
}

func TestSnapshotJoinsProcessNames(t *testing.T) {
	src := fixedSource(
		[]model.Connection{
			{Protocol: model.ProtoTCP, LocalAddr: "127.0.0.1", LocalPort: 8080, State: model.StateListen, PID: 100},
			{Protocol: model.ProtoTCP, LocalAddr: "10.0.0.5", LocalPort: 443, RemoteAddr: "93.184.216.34", RemotePort: 51000, State: model.StateEstablished, PID: 200},
			{Protocol: model.ProtoTCP, LocalAddr: "10.0.0.5", LocalPort: 9000, State: model.StateListen}, // no PID
		},
		[]model.ProcessSummary{{PID: 100, Name: "nginx"}, {PID: 200, Name: "curl"}},
	)

	records, err := src.Snapshot()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "nginx", records[0].Program)
	assert.Equal(t, "curl", records[1].Program)
	assert.Empty(t, records[2].Program, "unowned socket stays unnamed")
}

func TestSnapshotUnknownPIDStaysUnnamed(t *testing.T) {
	// PID 300 exited between the two snapshots.
	src := fixedSource(
		[]model.Connection{{Protocol: model.ProtoTCP, LocalPort: 80, PID: 300}},
		[]model.ProcessSummary{{PID: 100, Name: "nginx"}},
	)

	records, err := src.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, records[0].Program)
	assert.Equal(t, 300, records[0].PID)
}

func TestSnapshotConnectionFailureIsFatal(t *testing.T) {
	src := Source{
		Connections: func() ([]model.Connection, error) { return nil, errors.New("permission denied") },
		Processes:   func() ([]model.ProcessSummary, error) { return nil, nil },
	}
	_, err := src.Snapshot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestSnapshotProcessFailureDegrades(t *testing.T) {
	src := Source{
		Connections: func() ([]model.Connection, error) {
			return []model.Connection{{Protocol: model.ProtoTCP, LocalPort: 22, PID: 1}}, nil
		},
		Processes: func() ([]model.ProcessSummary, error) { return nil, errors.New("no ps") },
	}
	records, err := src.Snapshot()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Program)
}

func TestSnapshotIsDeterministic(t *testing.T) {
	src := fixedSource(
		[]model.Connection{
			{Protocol: model.ProtoTCP, LocalPort: 80, PID: 1},
			{Protocol: model.ProtoUDP, LocalPort: 53, PID: 2},
		},
		[]model.ProcessSummary{{PID: 1, Name: "nginx"}, {PID: 2, Name: "dnsmasq"}},
	)

	first, err := src.Snapshot()
	require.NoError(t, err)
	second, err := src.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// The listening-only end-to-end case: two connections, one LISTEN, and
// the filter keeps exactly the nginx listener.
func TestPipelineListeningOnly(t *testing.T) {
	src := fixedSource(
		[]model.Connection{
			{Protocol: model.ProtoTCP, LocalAddr: "127.0.0.1", LocalPort: 8080, State: model.StateListen, PID: 100},
			{Protocol: model.ProtoTCP, LocalAddr: "10.0.0.5", LocalPort: 443, RemoteAddr: "93.184.216.34", RemotePort: 51000, State: model.StateEstablished, PID: 200},
		},
		[]model.ProcessSummary{{PID: 100, Name: "nginx"}, {PID: 200, Name: "curl"}},
	)

	records, err := src.Snapshot()
	require.NoError(t, err)

	f, err := NewFilter(true, "", "")
	require.NoError(t, err)
	kept := f.Apply(records)

	require.Len(t, kept, 1)
	assert.Equal(t, 100, kept[0].PID)
	assert.Equal(t, "nginx", kept[0].Program)
	assert.Equal(t, model.StateListen, kept[0].State)
}
