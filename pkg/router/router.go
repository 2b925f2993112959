package router

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jihuisuo/nextpnr-xilinx/pkg/channel"
)

// Constraints is the injected read-only source of statically constrained
// nodes. The router consults it once at the start of a routing run; it never
// mutates these flags itself.
type Constraints interface {
	// Unavailable reports nodes locked out of all routing.
	Unavailable(n channel.Node) bool
	// ReservedFor returns the net a node is reserved for, or nil.
	ReservedFor(n channel.Node) *channel.Net
}

// arcKey addresses one arc in the route queue.
type arcKey struct {
	net  int
	user int
}

// Router is a negotiated-congestion maze router instance. It owns the
// expanded topology, the resource ledger, and its tuning; independent
// instances can run concurrently over different graphs.
type Router struct {
	cfg    Cfg
	g      channel.Graph
	top    *channel.Topology
	ledger *Ledger
	nets   []netData
	logger *log.Logger

	// Present-congestion weight for the current round; escalates each round.
	currCongWeight float64

	search      searchState // sequential-mode search state
	constraints Constraints
	comps       *channel.UnionFind // fabric connectivity, built on demand
}

// New builds a router over the device graph: expands the topology and
// allocates a clean ledger. A nil logger falls back to log.Default().
func New(g channel.Graph, cfg Cfg, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Default()
	}
	top := channel.BuildTopology(g)
	return &Router{
		cfg:    cfg,
		g:      g,
		top:    top,
		ledger: NewLedger(top),
		logger: logger,
		search: searchState{rng: rand.New(rand.NewSource(cfg.Seed))},
	}
}

// SetConstraints installs the reserved/unavailable flag source. Must be
// called before Route.
func (r *Router) SetConstraints(c Constraints) { r.constraints = c }

// Ledger exposes the resource ledger for reporting.
func (r *Router) Ledger() *Ledger { return r.ledger }

// Topology exposes the expanded adjacency table.
func (r *Router) Topology() *channel.Topology { return r.top }

// Route runs rip-up-and-reroute rounds over the given nets until every arc
// is routed congestion-free, or the round budget runs out. Cancellation is
// round-granular: the ledger is always left valid, if possibly congested.
// Persistent failures are reported with the nets they belong to.
func (r *Router) Route(ctx context.Context, nets []*channel.Net) (Stats, error) {
	r.setupNets(nets)
	r.applyConstraints()

	queue := make([]arcKey, 0)
	for i := range r.nets {
		for j := range r.nets[i].arcs {
			queue = append(queue, arcKey{net: i, user: j})
		}
	}

	r.currCongWeight = r.cfg.CurrCongWeight
	r.logger.Info("routing start", "nets", len(nets), "arcs", len(queue),
		"grid", fmt.Sprintf("%dx%d", r.top.GridWidth, r.top.GridHeight),
		"types", len(r.top.Types))

	var failed []arcKey
	iter := 0
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return r.ledger.Stats(), err
		}
		iter++
		if iter > r.cfg.MaxIters {
			break
		}
		start := time.Now()

		if r.cfg.Parallel {
			failed = r.routeRoundParallel(queue)
		} else {
			failed = failed[:0]
			for _, k := range queue {
				failed = appendIfFailed(failed, k, r.routeOne(&r.search, k))
			}
		}

		r.ledger.UpdateHistory(r.cfg.HistCongWeight)
		stats := r.ledger.Stats()
		r.logger.Info("routing round", "iter", iter, "arcs", len(queue),
			"failed", len(failed), "overused", stats.OverusedNodes,
			"hist_sum", fmt.Sprintf("%.1f", stats.HistCostSum),
			"time", time.Since(start).Round(time.Microsecond))

		next := make([]arcKey, 0, len(failed))
		next = append(next, failed...)
		next = append(next, r.congestedArcs()...)
		queue = next
		r.currCongWeight *= r.cfg.CurrCongMult
	}

	stats := r.ledger.Stats()
	if len(queue) > 0 {
		return stats, r.failureError(queue)
	}
	r.logger.Info("routing done", "iters", iter, "bound_nodes", stats.BoundNodes)
	return stats, nil
}

// routeOne rips up and reroutes a single arc, accounting its route time to
// the owning net.
func (r *Router) routeOne(st *searchState, k arcKey) error {
	start := time.Now()
	r.ripupArc(k.net, k.user)
	err := r.routeArc(st, k.net, k.user)
	r.nets[k.net].routeTime += time.Since(start)
	if err != nil {
		r.logger.Debug("arc failed", "net", r.nets[k.net].ni.Name, "arc", k.user, "err", err)
	}
	return err
}

func appendIfFailed(failed []arcKey, k arcKey, err error) []arcKey {
	if err != nil {
		return append(failed, k)
	}
	return failed
}

// congestedArcs collects every routed arc whose path crosses an over-capacity
// node; these are ripped up and rerouted next round under escalated costs.
func (r *Router) congestedArcs() []arcKey {
	var out []arcKey
	for i := range r.nets {
		for j := range r.nets[i].arcs {
			if r.arcCongested(i, j) {
				out = append(out, arcKey{net: i, user: j})
			}
		}
	}
	return out
}

// applyConstraints copies the injected reserved/unavailable flags into the
// ledger. Flags are static for the duration of a routing run.
func (r *Router) applyConstraints() {
	if r.constraints == nil {
		return
	}
	for y := 0; y < r.top.GridHeight; y++ {
		for x := 0; x < r.top.GridWidth; x++ {
			for t := range r.top.Types {
				n := channel.Node{X: x, Y: y, Type: t}
				if r.constraints.Unavailable(n) {
					r.ledger.MarkUnavailable(n)
				}
				if ni := r.constraints.ReservedFor(n); ni != nil {
					r.ledger.Reserve(ni.RouterID, n)
				}
			}
		}
	}
}

// failureError names the nets that could not be routed, classifying each
// arc as unreachable fabric or persistent congestion.
func (r *Router) failureError(queue []arcKey) error {
	if r.comps == nil {
		r.comps = r.top.Components()
	}
	seen := make(map[string]bool)
	var names []string
	for _, k := range queue {
		nd := &r.nets[k.net]
		reason := "congestion"
		if !r.comps.Connected(r.top, nd.srcNode, nd.arcs[k.user].sinkNode) {
			reason = "unreachable"
		}
		r.logger.Warn("arc unrouted", "net", nd.ni.Name, "arc", k.user, "reason", reason)
		if !seen[nd.ni.Name] {
			seen[nd.ni.Name] = true
			names = append(names, nd.ni.Name)
		}
	}
	return fmt.Errorf("%w: %d arcs across nets [%s] after %d iterations",
		ErrUnroutable, len(queue), strings.Join(names, " "), r.cfg.MaxIters)
}

// Routed reports whether the given arc of a net is currently bound.
func (r *Router) Routed(ni *channel.Net, user int) bool {
	return r.nets[ni.RouterID].arcs[user].routed
}

// RoutedPath returns the bound path of an arc, source first, by walking the
// ledger's driving-uphill pointers back from the sink.
func (r *Router) RoutedPath(ni *channel.Net, user int) ([]channel.Node, error) {
	nd := &r.nets[ni.RouterID]
	ad := &nd.arcs[user]
	if !ad.routed {
		return nil, fmt.Errorf("%w: net %s arc %d is not routed", ErrUnroutable, ni.Name, user)
	}
	path := []channel.Node{ad.sinkNode}
	cursor := ad.sinkNode
	for cursor != nd.srcNode {
		uphill, ok := r.ledger.DrivingUphill(ni.RouterID, cursor)
		if !ok {
			panic(fmt.Sprintf("router: path walk of net %s arc %d stranded at %v", ni.Name, user, cursor))
		}
		path = append(path, uphill)
		cursor = uphill
	}
	// Reverse into source→sink order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// NetRouteTime returns the total time spent routing a net's arcs.
func (r *Router) NetRouteTime(ni *channel.Net) time.Duration {
	return r.nets[ni.RouterID].routeTime
}
