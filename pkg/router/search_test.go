package router

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihuisuo/nextpnr-xilinx/pkg/channel"
)

func TestRipupCompleteness(t *testing.T) {
	g := &testGraph{
		w: 6, h: 1, types: eastOnly(2),
		src: map[string]channel.Node{"n0": {X: 0, Y: 0, Type: 0}},
		sinks: map[string][]channel.Node{"n0": {
			{X: 3, Y: 0, Type: 0},
			{X: 5, Y: 0, Type: 0},
		}},
	}
	r := newTestRouter(g, DefaultCfg())
	ni := &channel.Net{
		Name:   "n0",
		Driver: &channel.Terminal{Cell: "drv", Pin: "O"},
		Users:  []channel.Terminal{{Cell: "u0", Pin: "I"}, {Cell: "u1", Pin: "I"}},
	}
	_, err := r.Route(context.Background(), []*channel.Net{ni})
	require.NoError(t, err)

	// Rip up the short arc: the trunk keeps exactly the long arc's uses.
	r.ripupArc(0, 0)
	require.False(t, r.nets[0].arcs[0].routed)
	require.Equal(t, 1, r.ledger.Uses(0, channel.Node{X: 2, Y: 0, Type: 0}))
	require.Equal(t, 1, r.ledger.Uses(0, channel.Node{X: 3, Y: 0, Type: 0}))

	// Rip up the other arc too: no occupancy left anywhere.
	r.ripupArc(0, 1)
	for x := 0; x < 6; x++ {
		require.Equal(t, 0, r.ledger.Occupancy(channel.Node{X: x, Y: 0, Type: 0}))
	}

	// Ripping an unrouted arc is a no-op.
	require.NotPanics(t, func() { r.ripupArc(0, 0) })
}

func TestSearchTerminationOnConnectedGrid(t *testing.T) {
	// On a fully connected mesh with nothing unavailable, a search from
	// any sink must reach its source: no false negatives.
	g := &testGraph{
		w: 9, h: 9, types: meshTypes(4),
		src:   map[string]channel.Node{},
		sinks: map[string][]channel.Node{},
	}
	var nets []*channel.Net
	cases := []struct{ sx, sy, tx, ty int }{
		{0, 0, 8, 8},
		{7, 0, 0, 8},
		{4, 4, 4, 4}, // source equals sink
		{0, 4, 8, 4},
		{7, 1, 1, 7},
	}
	for i, c := range cases {
		name := fmt.Sprintf("n%d", i)
		g.src[name] = channel.Node{X: c.sx, Y: c.sy, Type: 0}
		g.sinks[name] = []channel.Node{{X: c.tx, Y: c.ty, Type: 0}}
		nets = append(nets, oneArcNet(name))
	}

	cfg := DefaultCfg()
	cfg.BBMarginX = 9
	cfg.BBMarginY = 9
	r := newTestRouter(g, cfg)
	_, err := r.Route(context.Background(), nets)
	require.NoError(t, err)
	for _, ni := range nets {
		require.True(t, r.Routed(ni, 0), "net %s", ni.Name)
	}
}

func TestRouteArcSourceEqualsSink(t *testing.T) {
	g := &testGraph{
		w: 4, h: 4, types: eastOnly(1),
		src:   map[string]channel.Node{"n0": {X: 1, Y: 1, Type: 0}},
		sinks: map[string][]channel.Node{"n0": {{X: 1, Y: 1, Type: 0}}},
	}
	r := newTestRouter(g, DefaultCfg())
	ni := oneArcNet("n0")
	_, err := r.Route(context.Background(), []*channel.Net{ni})
	require.NoError(t, err)
	require.True(t, r.Routed(ni, 0))

	path, err := r.RoutedPath(ni, 0)
	require.NoError(t, err)
	require.Equal(t, []channel.Node{{X: 1, Y: 1, Type: 0}}, path)
	// Nothing bound: the source anchors the chain without occupying it.
	require.Equal(t, 0, r.ledger.Occupancy(channel.Node{X: 1, Y: 1, Type: 0}))
}

func TestVisitScratchIsolatedBetweenSearches(t *testing.T) {
	// Two consecutive searches over the same region must not see each
	// other's visit data: the generation stamp invalidates it lazily.
	g := &testGraph{
		w: 6, h: 1, types: eastOnly(2),
		src: map[string]channel.Node{
			"a": {X: 0, Y: 0, Type: 0},
			"b": {X: 0, Y: 0, Type: 0},
		},
		sinks: map[string][]channel.Node{
			"a": {{X: 5, Y: 0, Type: 0}},
			"b": {{X: 3, Y: 0, Type: 0}},
		},
	}
	r := newTestRouter(g, DefaultCfg())
	na, nb := oneArcNet("a"), oneArcNet("b")
	r.setupNets([]*channel.Net{na, nb})

	require.NoError(t, r.routeArc(&r.search, 0, 0))
	require.NoError(t, r.routeArc(&r.search, 1, 0))

	pb, err := r.RoutedPath(nb, 0)
	require.NoError(t, err)
	require.Equal(t, []channel.Node{
		{X: 0, Y: 0, Type: 0},
		{X: 1, Y: 0, Type: 0},
		{X: 2, Y: 0, Type: 0},
		{X: 3, Y: 0, Type: 0},
	}, pb)
}

func TestRoutedPathUnroutedArc(t *testing.T) {
	g := &testGraph{
		w: 4, h: 1, types: eastOnly(1),
		src:   map[string]channel.Node{"n0": {X: 0, Y: 0, Type: 0}},
		sinks: map[string][]channel.Node{"n0": {{X: 3, Y: 0, Type: 0}}},
	}
	r := newTestRouter(g, DefaultCfg())
	ni := oneArcNet("n0")
	r.setupNets([]*channel.Net{ni})

	_, err := r.RoutedPath(ni, 0)
	require.ErrorIs(t, err, ErrUnroutable)
}
