package channel

// DownhillRule describes how a segment of one type drives a segment of
// another type. SrcAlong and DstAlong are offsets along the respective
// segments, measured against each segment's driving direction.
type DownhillRule struct {
	SrcAlong int
	DstType  int
	DstAlong int
}

// Channel describes one class of routing wire segment. Immutable after load.
type Channel struct {
	Name     string
	Dir      Direction
	Length   int
	Cost     float32 // base routing cost
	Width    int     // capacity: how many nets may legally share one segment
	Downhill []DownhillRule
}

// Terminal is one cell pin a net connects to. The router treats it as opaque
// and resolves it to a Node through the Graph oracle.
type Terminal struct {
	Cell string
	Pin  string
}

// Net is one logical connection the router must realize: a driver terminal
// fanning out to zero or more user terminals. RouterID is the dense id the
// router assigns during setup; the rest of the toolchain carries it so later
// passes can index router state in O(1).
type Net struct {
	Name     string
	Driver   *Terminal
	Users    []Terminal
	RouterID int
}

// Graph is the read-only device oracle: grid extent, the channel-type
// catalogue, and terminal-to-node resolution. Implementations belong to the
// architecture backend, not to the router.
type Graph interface {
	Width() int
	Height() int
	Channels() []Channel
	// SourceNode resolves the channel node driven by the net's driver.
	SourceNode(n *Net) Node
	// SinkNode resolves the channel node feeding the net's user terminal.
	SinkNode(n *Net, user int) Node
}
