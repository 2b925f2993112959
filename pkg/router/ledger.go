package router

import (
	"fmt"
	"sync/atomic"

	"github.com/jihuisuo/nextpnr-xilinx/pkg/channel"
)

// binding records one net's occupancy of a node: how many of the net's arcs
// run through it and which upstream neighbor drives it. A node has exactly
// one driving direction per net no matter how many arcs reuse it.
type binding struct {
	useCount int
	uphill   channel.Node
}

// visitState is transient per-search scratch. A node whose gen stamp differs
// from the current search generation is implicitly unvisited, so no O(grid)
// clear is needed between searches.
type visitState struct {
	gen     uint64
	visited bool
	bwd     channel.Node
	score   Score
}

// perNode is the ledger record for one grid node.
type perNode struct {
	// net id -> occupancy. Multiple nets may bind the same node at once;
	// congestion is resolved by iteration, not by hard exclusion here.
	boundNets map[int]binding

	// Accumulates across rounds wherever the node was over-subscribed.
	histCongCost float32

	// Static exclusivity, set from placement constraints before routing.
	unavailable bool
	reservedNet int // -1 = unreserved

	visit visitState
}

// Ledger is the single owner of the shared mutable routing state: one record
// per (x, y, type) grid node, indexed flat. Every routing attempt reads and
// writes it through Bind/Unbind; nothing else aliases the records.
type Ledger struct {
	top   *channel.Topology
	nodes []perNode

	// Search generation allocator. Atomic so concurrent searches over
	// disjoint regions draw distinct generations.
	gen atomic.Uint64
}

// NewLedger creates a clean ledger over the given topology.
func NewLedger(top *channel.Topology) *Ledger {
	l := &Ledger{
		top:   top,
		nodes: make([]perNode, top.NumNodes()),
	}
	for i := range l.nodes {
		l.nodes[i].histCongCost = 1.0
		l.nodes[i].reservedNet = -1
	}
	return l
}

func (l *Ledger) data(n channel.Node) *perNode {
	return &l.nodes[l.top.NodeIndex(n)]
}

// nextGen allocates a fresh search generation.
func (l *Ledger) nextGen() uint64 { return l.gen.Add(1) }

// Bind records one more use of node by the given net, entering from uphill.
// The first use fixes the net's driving direction for the node; later uses
// must agree, anything else is bind/unbind bookkeeping corruption and panics.
func (l *Ledger) Bind(netID int, node, uphill channel.Node) {
	nd := l.data(node)
	if nd.boundNets == nil {
		nd.boundNets = make(map[int]binding, 2)
	}
	b := nd.boundNets[netID]
	b.useCount++
	if b.useCount == 1 {
		b.uphill = uphill
	} else if b.uphill != uphill {
		panic(fmt.Sprintf("router: net %d binds node %v from %v, already driven from %v",
			netID, node, uphill, b.uphill))
	}
	nd.boundNets[netID] = b
}

// Unbind releases one use of node by the given net, dropping the entry when
// the count reaches zero. Unbinding a node the net does not occupy panics.
func (l *Ledger) Unbind(netID int, node channel.Node) {
	nd := l.data(node)
	b, ok := nd.boundNets[netID]
	if !ok {
		panic(fmt.Sprintf("router: net %d unbinds node %v it does not occupy", netID, node))
	}
	b.useCount--
	if b.useCount == 0 {
		delete(nd.boundNets, netID)
	} else {
		nd.boundNets[netID] = b
	}
}

// Uses returns how many of the net's arcs currently run through node.
func (l *Ledger) Uses(netID int, node channel.Node) int {
	return l.data(node).boundNets[netID].useCount
}

// DrivingUphill returns the upstream neighbor driving node for the given
// net, if the net occupies it.
func (l *Ledger) DrivingUphill(netID int, node channel.Node) (channel.Node, bool) {
	b, ok := l.data(node).boundNets[netID]
	return b.uphill, ok
}

// Occupancy returns the number of distinct nets bound to node.
func (l *Ledger) Occupancy(node channel.Node) int {
	return len(l.data(node).boundNets)
}

// MarkUnavailable locks node out of all routing.
func (l *Ledger) MarkUnavailable(node channel.Node) {
	l.data(node).unavailable = true
}

// Reserve locks node for exclusive use by the given net.
func (l *Ledger) Reserve(netID int, node channel.Node) {
	l.data(node).reservedNet = netID
}

// overuse returns how far past capacity the node is, or 0.
func (l *Ledger) overuse(i int) int {
	over := len(l.nodes[i].boundNets) - l.top.Types[typeOf(l.top, i)].Width
	if over < 0 {
		return 0
	}
	return over
}

// typeOf recovers the channel type from a flat node index.
func typeOf(top *channel.Topology, i int) int {
	return i % len(top.Types)
}

// UpdateHistory raises the historical congestion cost of every over-capacity
// node by weight per unit of overuse. Called once after each routing round.
func (l *Ledger) UpdateHistory(weight float64) {
	for i := range l.nodes {
		if over := l.overuse(i); over > 0 {
			l.nodes[i].histCongCost += float32(weight * float64(over))
		}
	}
}

// Stats summarizes ledger congestion for external reporting and convergence
// decisions.
type Stats struct {
	OverusedNodes int     // nodes currently past capacity
	BoundNodes    int     // nodes occupied by at least one net
	HistCostSum   float64 // total accumulated historical cost
}

// Stats computes current congestion statistics.
func (l *Ledger) Stats() Stats {
	var s Stats
	for i := range l.nodes {
		if len(l.nodes[i].boundNets) > 0 {
			s.BoundNodes++
		}
		if l.overuse(i) > 0 {
			s.OverusedNodes++
		}
		s.HistCostSum += float64(l.nodes[i].histCongCost)
	}
	return s
}
