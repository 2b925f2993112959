// Package channel models the routing fabric consumed by the router: typed
// channel segments on a grid, the catalogue describing how segment types
// connect, and the expanded adjacency table built from it.
package channel

import "fmt"

// Direction is the driving direction of a channel segment.
type Direction uint8

const (
	East Direction = iota
	West
	North
	South
)

func (d Direction) String() string {
	switch d {
	case East:
		return "east"
	case West:
		return "west"
	case North:
		return "north"
	case South:
		return "south"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Node identifies a wire segment instance by grid position and channel type.
// It is a value: equality is structural and nodes are copied freely.
type Node struct {
	X    int
	Y    int
	Type int
}

// None is the sentinel for "no node" (e.g. the backpointer of a search seed).
var None = Node{X: -1, Y: -1, Type: -1}

// IsNone reports whether n is the sentinel node.
func (n Node) IsNone() bool { return n == None }

func (n Node) String() string {
	return fmt.Sprintf("(%d,%d,%d)", n.X, n.Y, n.Type)
}
