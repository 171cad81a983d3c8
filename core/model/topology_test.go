package model

import (
	"errors"
	"testing"
)

func TestNeighborsSorted(t *testing.T) {
	topo := NewDefaultTopology()
	nbrs, err := topo.Neighbors(3)
	if err != nil {
		t.Fatal(err)
	}
	expected := []uint16{1, 2, 4, 5}
	if len(nbrs) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, nbrs)
	}
	for i := range expected {
		if nbrs[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, nbrs)
		}
	}
	if _, err := topo.Neighbors(6); !errors.Is(err, ErrInvalidTopologyQuery) {
		t.Errorf("expected ErrInvalidTopologyQuery for s6, got %v", err)
	}
}

func TestPortToMatchesMeshWiring(t *testing.T) {
	// (lower, higher) -> {port lower uses, port higher uses}
	wiring := map[[2]uint16][2]Port{
		{1, 2}: {1, 1},
		{1, 3}: {2, 1},
		{1, 4}: {3, 1},
		{1, 5}: {4, 1},
		{2, 3}: {2, 2},
		{2, 4}: {3, 2},
		{2, 5}: {4, 2},
		{3, 4}: {3, 3},
		{3, 5}: {4, 3},
		{4, 5}: {4, 4},
	}
	topo := NewDefaultTopology()
	for pair, ports := range wiring {
		lo, hi := Switch(pair[0]), Switch(pair[1])
		p, err := topo.PortTo(lo, hi)
		if err != nil {
			t.Fatal(err)
		}
		if p != ports[0] {
			t.Errorf("PortTo(%s, %s) = %d, expected %d", lo, hi, p, ports[0])
		}
		p, err = topo.PortTo(hi, lo)
		if err != nil {
			t.Fatal(err)
		}
		if p != ports[1] {
			t.Errorf("PortTo(%s, %s) = %d, expected %d", hi, lo, p, ports[1])
		}
	}
}

func TestPortToHostAndSwitchPairs(t *testing.T) {
	topo := NewDefaultTopology()
	for i := uint16(1); i <= 5; i++ {
		p, err := topo.PortTo(Switch(i), Host(i))
		if err != nil {
			t.Fatal(err)
		}
		if p != 5 {
			t.Errorf("PortTo(s%d, h%d) = %d, expected 5", i, i, p)
		}
		for j := uint16(1); j <= 5; j++ {
			if i == j {
				continue
			}
			pij, err1 := topo.PortTo(Switch(i), Switch(j))
			pji, err2 := topo.PortTo(Switch(j), Switch(i))
			if err1 != nil || err2 != nil {
				t.Fatal(err1, err2)
			}
			if pij < 1 || pij > 4 || pji < 1 || pji > 4 {
				t.Errorf("ports of s%d-s%d out of range: %d %d", i, j, pij, pji)
			}
			id1, err1 := topo.IdentityAt(i, pij)
			id2, err2 := topo.IdentityAt(j, pji)
			if err1 != nil || err2 != nil {
				t.Fatal(err1, err2)
			}
			if id1 != id2 {
				t.Errorf("identity of s%d-s%d differs by direction: %s vs %s", i, j, id1, id2)
			}
		}
	}
}

func TestPortToInvalidQueries(t *testing.T) {
	topo := NewDefaultTopology()
	cases := []struct {
		from Node
		to   Node
	}{
		{Switch(1), Switch(1)},
		{Switch(1), Host(2)},
		{Host(1), Switch(1)},
		{Switch(6), Switch(1)},
		{Switch(1), Switch(9)},
	}
	for _, c := range cases {
		if _, err := topo.PortTo(c.from, c.to); !errors.Is(err, ErrInvalidTopologyQuery) {
			t.Errorf("PortTo(%s, %s): expected ErrInvalidTopologyQuery, got %v", c.from, c.to, err)
		}
	}
}

func TestEdges(t *testing.T) {
	topo := NewDefaultTopology()
	edges := topo.Edges()
	if len(edges) != 15 {
		t.Fatalf("expected 15 edges, got %d", len(edges))
	}
	hostLinks := 0
	seen := make(map[LinkIdentity]Edge)
	for _, e := range edges {
		if e.IsHostLink() {
			hostLinks++
		}
		id, err := topo.LinkIdentity(e)
		if err != nil {
			t.Fatal(err)
		}
		if other, dup := seen[id]; dup {
			t.Fatalf("identity %s shared by %s and %s", id, e, other)
		}
		seen[id] = e

		back, err := topo.EdgeFromIdentity(id)
		if err != nil {
			t.Fatal(err)
		}
		if back != e {
			t.Errorf("EdgeFromIdentity(%s) = %s, expected %s", id, back, e)
		}
	}
	if hostLinks != 5 {
		t.Errorf("expected 5 host links, got %d", hostLinks)
	}
}

func TestLinkIdentityNaming(t *testing.T) {
	topo := NewDefaultTopology()
	cases := []struct {
		edge     Edge
		identity LinkIdentity
		classes  string
	}{
		{Edge{Switch(1), Switch(2)}, "s1eth1", "s1eth1 s2eth1"},
		{Edge{Switch(2), Switch(4)}, "s2eth3", "s2eth3 s4eth2"},
		{Edge{Switch(4), Switch(5)}, "s4eth4", "s4eth4 s5eth4"},
		{Edge{Host(3), Switch(3)}, "s3eth5", "h3eth0 s3eth5"},
	}
	for _, c := range cases {
		id, err := topo.LinkIdentity(c.edge)
		if err != nil {
			t.Fatal(err)
		}
		if id != c.identity {
			t.Errorf("LinkIdentity(%s) = %s, expected %s", c.edge, id, c.identity)
		}
		classes, err := topo.RenderClasses(c.edge)
		if err != nil {
			t.Fatal(err)
		}
		if classes != c.classes {
			t.Errorf("RenderClasses(%s) = %q, expected %q", c.edge, classes, c.classes)
		}
	}

	// the higher switch's own port resolves to the same identity
	id, err := topo.IdentityAt(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if id != "s2eth3" {
		t.Errorf("IdentityAt(4, 2) = %s, expected s2eth3", id)
	}
}

func TestSwitchAndPortFromIdentity(t *testing.T) {
	topo := NewDefaultTopology()
	sw, port, err := topo.SwitchAndPortFromIdentity("s2eth3")
	if err != nil {
		t.Fatal(err)
	}
	if sw != 2 || port != 3 {
		t.Errorf("expected (2, 3), got (%d, %d)", sw, port)
	}
	for _, bad := range []LinkIdentity{"", "h1eth0", "s4eth2", "s1eth9", "s1eth1x"} {
		if _, _, err := topo.SwitchAndPortFromIdentity(bad); !errors.Is(err, ErrInvalidTopologyQuery) {
			t.Errorf("identity %q: expected ErrInvalidTopologyQuery, got %v", bad, err)
		}
	}
}

func TestRoute(t *testing.T) {
	topo := NewDefaultTopology()
	route, err := topo.Route(Host(1), Host(4))
	if err != nil {
		t.Fatal(err)
	}
	expected := []Node{Host(1), Switch(1), Switch(4), Host(4)}
	if len(route) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, route)
	}
	for i := range expected {
		if route[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, route)
		}
	}
	if _, err := topo.Route(Host(1), Host(7)); !errors.Is(err, ErrInvalidTopologyQuery) {
		t.Errorf("expected ErrInvalidTopologyQuery, got %v", err)
	}
}

func TestLargerMesh(t *testing.T) {
	topo, err := NewMeshTopology(7)
	if err != nil {
		t.Fatal(err)
	}
	if topo.HostPort() != 7 {
		t.Errorf("expected host port 7, got %d", topo.HostPort())
	}
	if len(topo.Edges()) != 7+21 {
		t.Errorf("expected 28 edges, got %d", len(topo.Edges()))
	}
	if _, err := NewMeshTopology(1); err == nil {
		t.Error("expected an error for a single switch mesh")
	}
}

func TestParseNode(t *testing.T) {
	n, err := ParseNode("H3")
	if err != nil {
		t.Fatal(err)
	}
	if n != Host(3) {
		t.Errorf("expected h3, got %s", n)
	}
	for _, bad := range []string{"", "x1", "s", "s0", "s-1", "hx"} {
		if _, err := ParseNode(bad); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}
