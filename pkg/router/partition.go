package router

import (
	"math/rand"
	"sync"

	"github.com/tidwall/rtree"
)

// routeRoundParallel routes one round with nets grouped into batches whose
// expanded bounding boxes are pairwise disjoint. Nets in a batch touch
// disjoint ledger regions (the search never leaves an arc's box plus
// margin), so they route concurrently without locks; overlapping nets land
// in later batches and are serialized against each other.
func (r *Router) routeRoundParallel(queue []arcKey) []arcKey {
	// Group arcs by net, preserving queue order.
	arcsByNet := make(map[int][]arcKey)
	var netOrder []int
	for _, k := range queue {
		if _, ok := arcsByNet[k.net]; !ok {
			netOrder = append(netOrder, k.net)
		}
		arcsByNet[k.net] = append(arcsByNet[k.net], k)
	}

	var (
		mu     sync.Mutex
		failed []arcKey
	)
	for _, batch := range r.partitionNets(netOrder) {
		var wg sync.WaitGroup
		for _, netIdx := range batch {
			wg.Add(1)
			go func(netIdx int) {
				defer wg.Done()
				st := &searchState{rng: rand.New(rand.NewSource(r.cfg.Seed ^ int64(netIdx+1)))}
				var localFailed []arcKey
				for _, k := range arcsByNet[netIdx] {
					localFailed = appendIfFailed(localFailed, k, r.routeOne(st, k))
				}
				if len(localFailed) > 0 {
					mu.Lock()
					failed = append(failed, localFailed...)
					mu.Unlock()
				}
			}(netIdx)
		}
		wg.Wait()
	}
	return failed
}

// partitionNets greedily packs nets into batches: each net joins the first
// batch whose R-tree shows no box overlapping the net's expanded bounding
// box, otherwise it opens a new batch.
func (r *Router) partitionNets(netOrder []int) [][]int {
	type batch struct {
		tr   rtree.RTreeG[int]
		nets []int
	}
	var batches []*batch
	for _, netIdx := range netOrder {
		bmin, bmax := r.expandedBox(netIdx)
		placed := false
		for _, b := range batches {
			overlap := false
			b.tr.Search(bmin, bmax, func(_, _ [2]float64, _ int) bool {
				overlap = true
				return false
			})
			if !overlap {
				b.tr.Insert(bmin, bmax, netIdx)
				b.nets = append(b.nets, netIdx)
				placed = true
				break
			}
		}
		if !placed {
			b := &batch{nets: []int{netIdx}}
			b.tr.Insert(bmin, bmax, netIdx)
			batches = append(batches, b)
		}
	}
	out := make([][]int, len(batches))
	for i, b := range batches {
		out[i] = b.nets
	}
	return out
}

// expandedBox is the net's bounding box grown by the search margins plus
// one, covering every node a search for this net may touch.
func (r *Router) expandedBox(netIdx int) (bmin, bmax [2]float64) {
	bb := r.nets[netIdx].bb
	mx := float64(r.cfg.BBMarginX + 1)
	my := float64(r.cfg.BBMarginY + 1)
	bmin = [2]float64{float64(bb.X0) - mx, float64(bb.Y0) - my}
	bmax = [2]float64{float64(bb.X1) + mx, float64(bb.Y1) + my}
	return bmin, bmax
}
