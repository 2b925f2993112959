package channel

import "fmt"

// Topology is the concrete adjacency table expanded from the channel-type
// catalogue: for every (x, y, type) on the grid, the nodes it can drive
// (downhill) and the nodes that can drive it (uphill). Built once before
// routing; read-only afterwards.
type Topology struct {
	GridWidth  int
	GridHeight int
	Types      []Channel

	// Adjacency lists stored flat, indexed by NodeIndex.
	downhill [][]Node
	uphill   [][]Node
}

// BuildTopology expands g's downhill-connection rules into per-node
// adjacency lists covering the whole grid. A rule whose offset exceeds its
// segment length marks a corrupt catalogue and panics: that is a bad device
// description, not a recoverable condition. Rules whose endpoints fall off
// the grid are skipped — segments at the device edge simply lack those
// connections.
func BuildTopology(g Graph) *Topology {
	t := &Topology{
		GridWidth:  g.Width(),
		GridHeight: g.Height(),
		Types:      g.Channels(),
	}
	n := t.GridWidth * t.GridHeight * len(t.Types)
	t.downhill = make([][]Node, n)
	t.uphill = make([][]Node, n)

	for y := 0; y < t.GridHeight; y++ {
		for x := 0; x < t.GridWidth; x++ {
			for ti := range t.Types {
				c := &t.Types[ti]
				for _, dh := range c.Downhill {
					if dh.SrcAlong > c.Length {
						panic(fmt.Sprintf("channel: type %q rule src_along %d exceeds length %d",
							c.Name, dh.SrcAlong, c.Length))
					}
					d := &t.Types[dh.DstType]
					if dh.DstAlong > d.Length {
						panic(fmt.Sprintf("channel: type %q rule dst_along %d exceeds %q length %d",
							c.Name, dh.DstAlong, d.Name, d.Length))
					}
					// Walk each endpoint backwards along its segment's
					// driving direction to find the anchor cell.
					sx, sy := walkBack(x, y, c.Dir, dh.SrcAlong)
					dx, dy := walkBack(x, y, d.Dir, dh.DstAlong)
					if !t.inGrid(sx, sy) || !t.inGrid(dx, dy) {
						continue
					}
					src := Node{X: sx, Y: sy, Type: ti}
					dst := Node{X: dx, Y: dy, Type: dh.DstType}
					si := t.NodeIndex(src)
					di := t.NodeIndex(dst)
					t.downhill[si] = append(t.downhill[si], dst)
					t.uphill[di] = append(t.uphill[di], src)
				}
			}
		}
	}
	return t
}

// walkBack steps (x, y) the given number of cells opposite to dir.
func walkBack(x, y int, dir Direction, steps int) (int, int) {
	switch dir {
	case East:
		x -= steps
	case West:
		x += steps
	case North:
		y -= steps
	case South:
		y += steps
	}
	return x, y
}

func (t *Topology) inGrid(x, y int) bool {
	return x >= 0 && x < t.GridWidth && y >= 0 && y < t.GridHeight
}

// NodeIndex returns the flat array index for n. Panics on out-of-grid
// coordinates: callers hold nodes produced by this topology, so a bad index
// is a bookkeeping bug.
func (t *Topology) NodeIndex(n Node) int {
	if !t.inGrid(n.X, n.Y) || n.Type < 0 || n.Type >= len(t.Types) {
		panic(fmt.Sprintf("channel: node %v outside %dx%dx%d grid",
			n, t.GridWidth, t.GridHeight, len(t.Types)))
	}
	return (n.Y*t.GridWidth+n.X)*len(t.Types) + n.Type
}

// NumNodes returns the total node count of the grid.
func (t *Topology) NumNodes() int { return len(t.downhill) }

// DownhillOf returns the nodes n can drive. The returned slice is owned by
// the topology and must not be mutated.
func (t *Topology) DownhillOf(n Node) []Node { return t.downhill[t.NodeIndex(n)] }

// UphillOf returns the nodes that can drive n.
func (t *Topology) UphillOf(n Node) []Node { return t.uphill[t.NodeIndex(n)] }
