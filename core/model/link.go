package model

import (
	"fmt"
)

// LinkIdentity is the key shared by renderers and the live synchronizer to
// address one physical edge, e.g. "s1eth1" for the s1-s2 link or "s3eth5"
// for the h3-s3 link.
//
// A switch link is named after the lower-indexed switch's port toward the
// higher one, so s1-s2 is "s1eth1" even though s2 reaches s1 through its own
// eth1 as well, and s2-s4 is "s2eth3" while s4 reaches s2 on eth2. A host link
// is named after the switch's host-facing port.
type LinkIdentity string

// LinkIdentity derives the canonical identity of an edge.
func (t *Topology) LinkIdentity(e Edge) (LinkIdentity, error) {
	if e.IsHostLink() {
		port, err := t.PortTo(e.B, e.A)
		if err != nil {
			return "", err
		}
		return makeIdentity(e.B.Index, port), nil
	}
	if e.A.Index > e.B.Index {
		e.A, e.B = e.B, e.A
	}
	port, err := t.PortTo(e.A, e.B)
	if err != nil {
		return "", err
	}
	return makeIdentity(e.A.Index, port), nil
}

// IdentityAt resolves the identity of the edge behind a switch port, from
// either endpoint's point of view.
func (t *Topology) IdentityAt(sw uint16, port Port) (LinkIdentity, error) {
	peer, err := t.PeerOf(sw, port)
	if err != nil {
		return "", err
	}
	edge, err := t.EdgeBetween(Switch(sw), peer)
	if err != nil {
		return "", err
	}
	return t.LinkIdentity(edge)
}

// SwitchAndPortFromIdentity is the inverse of LinkIdentity: it returns the
// switch and port the identity was derived from.
func (t *Topology) SwitchAndPortFromIdentity(id LinkIdentity) (uint16, Port, error) {
	var sw, port uint16
	n, err := fmt.Sscanf(string(id), "s%deth%d", &sw, &port)
	if err != nil || n != 2 {
		return 0, 0, fmt.Errorf("%w: link identity %q is malformed", ErrInvalidTopologyQuery, id)
	}
	canonical, err := t.IdentityAt(sw, Port(port))
	if err != nil {
		return 0, 0, err
	}
	if canonical != id {
		return 0, 0, fmt.Errorf("%w: link identity %q is not canonical (expected %q)",
			ErrInvalidTopologyQuery, id, canonical)
	}
	return sw, Port(port), nil
}

func (t *Topology) EdgeFromIdentity(id LinkIdentity) (Edge, error) {
	sw, port, err := t.SwitchAndPortFromIdentity(id)
	if err != nil {
		return Edge{}, err
	}
	peer, err := t.PeerOf(sw, port)
	if err != nil {
		return Edge{}, err
	}
	return t.EdgeBetween(Switch(sw), peer)
}

// RenderClasses returns the endpoint tags a renderer attaches to the drawn
// edge: "s1eth1 s2eth1" for a switch link, "h1eth0 s1eth5" for a host link.
func (t *Topology) RenderClasses(e Edge) (string, error) {
	if e.IsHostLink() {
		port, err := t.PortTo(e.B, e.A)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%seth0 %s%s", e.A, e.B, port), nil
	}
	aPort, err := t.PortTo(e.A, e.B)
	if err != nil {
		return "", err
	}
	bPort, err := t.PortTo(e.B, e.A)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s %s%s", e.A, aPort, e.B, bPort), nil
}

func makeIdentity(sw uint16, port Port) LinkIdentity {
	return LinkIdentity(fmt.Sprintf("s%d%s", sw, port))
}
