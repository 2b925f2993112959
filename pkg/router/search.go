package router

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/jihuisuo/nextpnr-xilinx/pkg/channel"
)

// ErrUnroutable is returned when an arc's search frontier empties before
// reaching the net's source. It is a routing outcome, recoverable by the
// round driver, not a crash.
var ErrUnroutable = errors.New("no route found")

// searchState is the per-worker frontier. Each concurrent batch worker owns
// one so searches never share a heap or a random stream.
type searchState struct {
	queue nodeHeap
	rng   *rand.Rand
}

// routeArc runs one cost-prioritized search for the given arc and binds the
// result into the ledger. The search runs backward, sink toward source,
// matching the per-node driving-uphill bookkeeping rip-up relies on.
func (r *Router) routeArc(st *searchState, netIdx, user int) error {
	nd := &r.nets[netIdx]
	ad := &nd.arcs[user]

	gen := r.ledger.nextGen()
	st.queue.Reset()
	st.queue.Push(queued{node: ad.sinkNode, prev: channel.None, randtag: st.rng.Int31()})
	r.ledger.data(ad.sinkNode).visit = visitState{gen: gen}

	for st.queue.Len() > 0 {
		q := st.queue.Pop()
		vd := r.ledger.data(q.node)
		if vd.visit.gen == gen && vd.visit.visited {
			continue // stale entry
		}
		vd.visit.gen = gen
		vd.visit.visited = true
		vd.visit.bwd = q.prev
		vd.visit.score = q.score

		if q.node == nd.srcNode {
			r.bindArc(netIdx, user)
			return nil
		}

		for _, uh := range r.top.UphillOf(q.node) {
			wd := r.ledger.data(uh)
			if wd.unavailable {
				continue
			}
			if wd.reservedNet != -1 && wd.reservedNet != netIdx {
				continue // reserved for someone else: impassable, not an error
			}
			if !ad.bb.Contains(uh.X, uh.Y, r.cfg.BBMarginX, r.cfg.BBMarginY) {
				continue
			}
			if wd.visit.gen == gen && wd.visit.visited {
				continue
			}
			cost := q.score.Cost + r.scoreNodeForArc(netIdx, uh)
			if wd.visit.gen == gen && wd.visit.score.Cost <= cost {
				continue // no improvement over the recorded score
			}
			togo := float32(r.cfg.EstimateWeight) * r.togoCost(netIdx, uh, ad.sinkNode)
			sc := Score{
				Cost:  cost,
				Togo:  togo,
				Delay: q.score.Delay + float32(r.top.Types[uh.Type].Length),
			}
			wd.visit = visitState{gen: gen, score: sc}
			st.queue.Push(queued{node: uh, prev: q.node, score: sc, randtag: st.rng.Int31()})
		}
	}

	return fmt.Errorf("%w: net %s arc %d (%v -> %v)",
		ErrUnroutable, nd.ni.Name, user, nd.srcNode, ad.sinkNode)
}

// bindArc walks the backpointer chain from source to sink, binding every
// node with its upstream neighbor as the driving direction. The source
// itself is never bound; it is the chain's anchor.
func (r *Router) bindArc(netIdx, user int) {
	nd := &r.nets[netIdx]
	ad := &nd.arcs[user]
	cursor := nd.srcNode
	for cursor != ad.sinkNode {
		next := r.ledger.data(cursor).visit.bwd
		r.ledger.Bind(netIdx, next, cursor)
		cursor = next
	}
	ad.routed = true
}

// ripupArc removes a previously bound arc's occupancy so it can be
// rerouted. No-op for unrouted arcs. A backward walk that cannot reach the
// source means the ledger bookkeeping is corrupt; that must never happen in
// a correct run, so it panics rather than returning an error.
func (r *Router) ripupArc(netIdx, user int) {
	nd := &r.nets[netIdx]
	ad := &nd.arcs[user]
	if !ad.routed {
		return
	}
	src := nd.srcNode
	cursor := ad.sinkNode
	for cursor != src {
		uphill, ok := r.ledger.DrivingUphill(netIdx, cursor)
		if !ok {
			panic(fmt.Sprintf("router: rip-up of net %s arc %d stranded at %v, source %v unreachable",
				nd.ni.Name, user, cursor, src))
		}
		r.ledger.Unbind(netIdx, cursor)
		cursor = uphill
	}
	ad.routed = false
}

// arcCongested reports whether any node on the arc's bound path is past
// capacity.
func (r *Router) arcCongested(netIdx, user int) bool {
	nd := &r.nets[netIdx]
	ad := &nd.arcs[user]
	if !ad.routed {
		return false
	}
	src := nd.srcNode
	cursor := ad.sinkNode
	for cursor != src {
		if r.ledger.overuse(r.top.NodeIndex(cursor)) > 0 {
			return true
		}
		uphill, ok := r.ledger.DrivingUphill(netIdx, cursor)
		if !ok {
			panic(fmt.Sprintf("router: congestion walk of net %s arc %d stranded at %v",
				nd.ni.Name, user, cursor))
		}
		cursor = uphill
	}
	return false
}
