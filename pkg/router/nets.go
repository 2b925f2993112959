package router

import (
	"time"

	"github.com/jihuisuo/nextpnr-xilinx/pkg/channel"
)

// arcData tracks one source-to-sink requirement of a net.
type arcData struct {
	sinkNode channel.Node
	bb       channel.Bounds
	routed   bool
}

// netData is the router's per-net bookkeeping: resolved source node, arcs,
// geometry used by the cost bias, and accounting.
type netData struct {
	ni      *channel.Net
	srcNode channel.Node
	arcs    []arcData
	bb      channel.Bounds

	// Centroid and half-perimeter wirelength of the net's terminals,
	// feeding the bias and heuristic terms.
	cx, cy int
	hpwl   int

	routeTime time.Duration
}

// setupNets builds the per-net and per-arc tables and assigns each net its
// dense router id. Undriven nets get hpwl = 0 and no geometry; they are
// never routed.
func (r *Router) setupNets(nets []*channel.Net) {
	r.nets = make([]netData, len(nets))
	for i, ni := range nets {
		ni.RouterID = i
		nd := &r.nets[i]
		nd.ni = ni

		if ni.Driver == nil {
			nd.hpwl = 0
			continue
		}

		src := r.g.SourceNode(ni)
		nd.srcNode = src
		nd.bb = channel.BoundsAt(src.X, src.Y)
		cx, cy := src.X, src.Y

		nd.arcs = make([]arcData, len(ni.Users))
		for j := range ni.Users {
			sink := r.g.SinkNode(ni, j)
			nd.arcs[j].sinkNode = sink
			ab := channel.BoundsAt(src.X, src.Y)
			ab.Expand(sink.X, sink.Y)
			nd.arcs[j].bb = ab
			nd.bb.Expand(sink.X, sink.Y)
			cx += sink.X
			cy += sink.Y
		}

		nd.hpwl = nd.bb.HPWL()
		if nd.hpwl < 1 {
			nd.hpwl = 1 // floor so cost terms never divide by zero
		}
		nd.cx = cx / (len(ni.Users) + 1)
		nd.cy = cy / (len(ni.Users) + 1)

		r.logger.Debug("net geometry", "net", ni.Name,
			"bb", nd.bb, "cx", nd.cx, "cy", nd.cy, "hpwl", nd.hpwl)
	}
}
