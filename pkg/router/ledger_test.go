package router

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihuisuo/nextpnr-xilinx/pkg/channel"
)

func newTestLedger(types []channel.Channel, w, h int) *Ledger {
	g := &testGraph{w: w, h: h, types: types}
	return NewLedger(channel.BuildTopology(g))
}

func TestBindUnbindInverse(t *testing.T) {
	l := newTestLedger(eastOnly(1), 4, 1)
	node := channel.Node{X: 2, Y: 0, Type: 0}
	up := channel.Node{X: 1, Y: 0, Type: 0}

	for i := 1; i <= 3; i++ {
		l.Bind(0, node, up)
		require.Equal(t, i, l.Uses(0, node))
	}
	for i := 2; i >= 0; i-- {
		l.Unbind(0, node)
		require.Equal(t, i, l.Uses(0, node))
	}
	_, bound := l.DrivingUphill(0, node)
	require.False(t, bound, "entry must be gone after the last unbind")
	require.Equal(t, 0, l.Occupancy(node))
}

func TestSingleDriverInvariant(t *testing.T) {
	l := newTestLedger(eastOnly(1), 4, 1)
	node := channel.Node{X: 2, Y: 0, Type: 0}
	up := channel.Node{X: 1, Y: 0, Type: 0}

	l.Bind(0, node, up)
	require.NotPanics(t, func() { l.Bind(0, node, up) })
	require.Equal(t, 2, l.Uses(0, node))

	require.Panics(t, func() {
		l.Bind(0, node, channel.Node{X: 3, Y: 0, Type: 0})
	}, "a node has exactly one upstream direction per net")
}

func TestUnbindUnknownNetPanics(t *testing.T) {
	l := newTestLedger(eastOnly(1), 4, 1)
	require.Panics(t, func() {
		l.Unbind(7, channel.Node{X: 1, Y: 0, Type: 0})
	})
}

func TestOverlappingNetsAllowed(t *testing.T) {
	// Overlap is penalized by cost, never forbidden by the ledger.
	l := newTestLedger(eastOnly(1), 4, 1)
	node := channel.Node{X: 2, Y: 0, Type: 0}
	up := channel.Node{X: 1, Y: 0, Type: 0}

	l.Bind(0, node, up)
	l.Bind(1, node, up)
	require.Equal(t, 2, l.Occupancy(node))

	s := l.Stats()
	require.Equal(t, 1, s.OverusedNodes)
	require.Equal(t, 1, s.BoundNodes)
}

func TestUpdateHistoryAccumulates(t *testing.T) {
	l := newTestLedger(eastOnly(1), 4, 1)
	node := channel.Node{X: 2, Y: 0, Type: 0}
	up := channel.Node{X: 1, Y: 0, Type: 0}
	l.Bind(0, node, up)
	l.Bind(1, node, up)
	l.Bind(2, node, up)

	// Capacity 1, occupancy 3: overuse 2.
	l.UpdateHistory(1.0)
	require.InDelta(t, 3.0, float64(l.data(node).histCongCost), 1e-6)
	l.UpdateHistory(0.5)
	require.InDelta(t, 4.0, float64(l.data(node).histCongCost), 1e-6)

	// Untouched nodes keep their initial cost.
	other := channel.Node{X: 0, Y: 0, Type: 0}
	require.InDelta(t, 1.0, float64(l.data(other).histCongCost), 1e-6)
}

func TestStatsBaseline(t *testing.T) {
	l := newTestLedger(eastOnly(1), 4, 1)
	s := l.Stats()
	require.Equal(t, 0, s.OverusedNodes)
	require.Equal(t, 0, s.BoundNodes)
	require.InDelta(t, 4.0, s.HistCostSum, 1e-6, "every node starts at 1.0")
}
