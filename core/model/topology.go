package model

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

const DefaultMeshSize = 5

// ErrInvalidTopologyQuery is returned for port or link lookups between nodes
// that are not adjacent in the mesh.
var ErrInvalidTopologyQuery = errors.New("invalid topology query")

// Edge is an undirected link of the topology in canonical order: for a
// host link A is the host, for a switch link A is the lower-indexed switch.
type Edge struct {
	A Node
	B Node
}

func (e Edge) IsHostLink() bool {
	return e.A.IsHost()
}

func (e Edge) String() string {
	return e.A.String() + "-" + e.B.String()
}

// Topology is the fixed full mesh of switches, each switch attached to the
// host sharing its index. It is immutable once built.
type Topology struct {
	size      uint16
	neighbors map[uint16][]uint16
	edges     []Edge
	graph     *simple.UndirectedGraph
}

func NewDefaultTopology() *Topology {
	t, _ := NewMeshTopology(DefaultMeshSize)
	return t
}

func NewMeshTopology(size int) (*Topology, error) {
	if size < 2 || size > 255 {
		return nil, fmt.Errorf("mesh size %d is invalid: 2 <= size <= 255", size)
	}
	t := &Topology{
		size:      uint16(size),
		neighbors: make(map[uint16][]uint16),
		graph:     simple.NewUndirectedGraph(),
	}

	for i := uint16(1); i <= t.size; i++ {
		nbrs := make([]uint16, 0, size-1)
		for j := uint16(1); j <= t.size; j++ {
			if j != i {
				nbrs = append(nbrs, j)
			}
		}
		slices.Sort(nbrs)
		t.neighbors[i] = nbrs
	}

	// Host links first, then switch pairs in ascending order
	for i := uint16(1); i <= t.size; i++ {
		t.edges = append(t.edges, Edge{A: Host(i), B: Switch(i)})
	}
	for i := uint16(1); i <= t.size; i++ {
		for j := i + 1; j <= t.size; j++ {
			t.edges = append(t.edges, Edge{A: Switch(i), B: Switch(j)})
		}
	}
	for _, e := range t.edges {
		t.graph.SetEdge(t.graph.NewEdge(simple.Node(t.graphID(e.A)), simple.Node(t.graphID(e.B))))
	}

	return t, nil
}

func (t *Topology) graphID(n Node) int64 {
	if n.IsHost() {
		return int64(n.Index)
	}
	return int64(t.size) + int64(n.Index)
}

func (t *Topology) nodeFromGraphID(id int64) Node {
	if id > int64(t.size) {
		return Switch(uint16(id - int64(t.size)))
	}
	return Host(uint16(id))
}

func (t *Topology) Size() int {
	return int(t.size)
}

// HostPort is the port every switch uses toward its own host.
func (t *Topology) HostPort() Port {
	return Port(t.size)
}

func (t *Topology) HasNode(n Node) bool {
	return n.Index >= 1 && n.Index <= t.size
}

func (t *Topology) Hosts() []Node {
	nodes := make([]Node, 0, t.size)
	for i := uint16(1); i <= t.size; i++ {
		nodes = append(nodes, Host(i))
	}
	return nodes
}

func (t *Topology) Switches() []Node {
	nodes := make([]Node, 0, t.size)
	for i := uint16(1); i <= t.size; i++ {
		nodes = append(nodes, Switch(i))
	}
	return nodes
}

func (t *Topology) Edges() []Edge {
	return slices.Clone(t.edges)
}

// Neighbors returns the indexes of the switches adjacent to sw, ascending.
func (t *Topology) Neighbors(sw uint16) ([]uint16, error) {
	nbrs, found := t.neighbors[sw]
	if !found {
		return nil, fmt.Errorf("%w: switch s%d doesn't exist", ErrInvalidTopologyQuery, sw)
	}
	return slices.Clone(nbrs), nil
}

// PortTo returns the egress port switch `from` uses toward `to`. Toward its
// own host a switch always uses HostPort; toward another switch it uses the
// 1-based rank of that switch among its sorted neighbors.
func (t *Topology) PortTo(from Node, to Node) (Port, error) {
	if !from.IsSwitch() || !t.HasNode(from) {
		return 0, fmt.Errorf("%w: %s is not a switch of the mesh", ErrInvalidTopologyQuery, from)
	}
	if !t.HasNode(to) {
		return 0, fmt.Errorf("%w: %s doesn't exist", ErrInvalidTopologyQuery, to)
	}
	if to.IsHost() {
		if to.Index != from.Index {
			return 0, fmt.Errorf("%w: %s is not attached to %s", ErrInvalidTopologyQuery, to, from)
		}
		return t.HostPort(), nil
	}
	rank, found := slices.BinarySearch(t.neighbors[from.Index], to.Index)
	if !found {
		return 0, fmt.Errorf("%w: %s is not adjacent to %s", ErrInvalidTopologyQuery, to, from)
	}
	return Port(rank + 1), nil
}

// PeerOf returns the node sitting at the far end of the given switch port.
func (t *Topology) PeerOf(sw uint16, port Port) (Node, error) {
	nbrs, found := t.neighbors[sw]
	if !found {
		return Node{}, fmt.Errorf("%w: switch s%d doesn't exist", ErrInvalidTopologyQuery, sw)
	}
	if port == t.HostPort() {
		return Host(sw), nil
	}
	if port < 1 || int(port) > len(nbrs) {
		return Node{}, fmt.Errorf("%w: switch s%d has no port %d", ErrInvalidTopologyQuery, sw, port)
	}
	return Switch(nbrs[port-1]), nil
}

// EdgeBetween returns the canonical edge joining two adjacent nodes.
func (t *Topology) EdgeBetween(a Node, b Node) (Edge, error) {
	if a.IsHost() && b.IsHost() {
		return Edge{}, fmt.Errorf("%w: hosts %s and %s are not adjacent", ErrInvalidTopologyQuery, a, b)
	}
	if a.IsHost() || b.IsHost() {
		host, sw := a, b
		if b.IsHost() {
			host, sw = b, a
		}
		if _, err := t.PortTo(sw, host); err != nil {
			return Edge{}, err
		}
		return Edge{A: host, B: sw}, nil
	}
	if _, err := t.PortTo(a, b); err != nil {
		return Edge{}, err
	}
	if a.Index > b.Index {
		a, b = b, a
	}
	return Edge{A: a, B: b}, nil
}

// Route returns the shortest hop sequence from src to dst, both included.
func (t *Topology) Route(src Node, dst Node) ([]Node, error) {
	if !t.HasNode(src) || !t.HasNode(dst) {
		return nil, fmt.Errorf("%w: no route from %s to %s", ErrInvalidTopologyQuery, src, dst)
	}
	tree := path.DijkstraFrom(t.graph.Node(t.graphID(src)), t.graph)
	hops, _ := tree.To(t.graphID(dst))
	if len(hops) == 0 {
		return nil, fmt.Errorf("%w: no route from %s to %s", ErrInvalidTopologyQuery, src, dst)
	}
	return t.convertHops(hops), nil
}

func (t *Topology) convertHops(hops []graph.Node) []Node {
	route := make([]Node, 0, len(hops))
	for _, hop := range hops {
		route = append(route, t.nodeFromGraphID(hop.ID()))
	}
	return route
}
