package router

import "github.com/jihuisuo/nextpnr-xilinx/pkg/channel"

// presentNodeCost is the classic present-congestion penalty: a node at or
// under capacity — ignoring the requesting net's own prior use — is free,
// anything past that costs linearly more, scaled by the round-escalating
// weight.
func (r *Router) presentNodeCost(nd *perNode, channelType, netID int) float32 {
	overCapacity := len(nd.boundNets)
	overCapacity -= r.top.Types[channelType].Width - 1
	if _, ok := nd.boundNets[netID]; ok {
		overCapacity--
	}
	if overCapacity <= 0 {
		return 1.0
	}
	return 1 + float32(overCapacity)*float32(r.currCongWeight)
}

// scoreNodeForArc computes the routing cost of taking node for the given
// net. Reuse of a node the net already occupies is rewarded through the
// 1/(1+source_uses) factor, which lets branching trees merge naturally; the
// additive bias steers the search toward the net's centroid, pruning detours
// on wide nets.
func (r *Router) scoreNodeForArc(netIdx int, node channel.Node) float32 {
	wd := r.ledger.data(node)
	nd := &r.nets[netIdx]
	baseCost := r.top.Types[node.Type].Cost
	presentCost := r.presentNodeCost(wd, node.Type, netIdx)
	histCost := wd.histCongCost
	sourceUses := wd.boundNets[netIdx].useCount

	dist := float32(iabs(node.X-nd.cx) + iabs(node.Y-nd.cy))
	biasCost := r.cfg.BiasCostFactor * (baseCost / float32(len(nd.ni.Users))) *
		(dist / float32(nd.hpwl))

	return baseCost*histCost*presentCost/float32(1+sourceUses) + biasCost
}

// togoCost is the Manhattan cost-to-go estimate from curr to sink. The
// 1/(1+source_uses) discount makes it inconsistent once the net already
// touches nearby nodes; that trades optimality guarantees for faster
// convergence on shared nets and is kept on purpose.
func (r *Router) togoCost(netIdx int, curr, sink channel.Node) float32 {
	sourceUses := r.ledger.data(curr).boundNets[netIdx].useCount
	baseCost := r.cfg.TogoCostDx*iabs(curr.X-sink.X) +
		r.cfg.TogoCostDy*iabs(curr.Y-sink.Y) +
		r.cfg.TogoCostAdder
	return float32(baseCost) / float32(1+sourceUses)
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
