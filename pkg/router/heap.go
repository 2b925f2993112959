package router

import "github.com/jihuisuo/nextpnr-xilinx/pkg/channel"

// Score is the frontier ordering key: accumulated path cost plus the
// heuristic cost-to-go estimate. Delay is carried for reporting, it does not
// participate in the ordering.
type Score struct {
	Cost  float32
	Togo  float32
	Delay float32
}

// Total returns the frontier priority.
func (s Score) Total() float32 { return s.Cost + s.Togo }

// queued is one frontier entry: a candidate node, the neighbor it was
// expanded from, and a random tag breaking ties between equal scores so the
// search carries no deterministic bias between equivalent candidates.
type queued struct {
	node    channel.Node
	prev    channel.Node
	score   Score
	randtag int32
}

func (q queued) less(o queued) bool {
	qs, os := q.score.Total(), o.score.Total()
	if qs == os {
		return q.randtag < o.randtag
	}
	return qs < os
}

// nodeHeap is a concrete-typed min-heap for the search frontier.
// Avoids interface boxing overhead of container/heap.
type nodeHeap struct {
	items []queued
}

func (h *nodeHeap) Len() int { return len(h.items) }

func (h *nodeHeap) Push(q queued) {
	h.items = append(h.items, q)
	h.siftUp(len(h.items) - 1)
}

func (h *nodeHeap) Pop() queued {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *nodeHeap) Reset() {
	h.items = h.items[:0]
}

func (h *nodeHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.items[i].less(h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *nodeHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].less(h.items[smallest]) {
			smallest = left
		}
		if right < n && h.items[right].less(h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
