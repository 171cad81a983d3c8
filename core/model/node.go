package model

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

type NodeType int

const (
	NodeType_Host NodeType = iota
	NodeType_Switch
)

func (t NodeType) prefix() string {
	if t == NodeType_Host {
		return "h"
	}
	return "s"
}

// Node identifies a host or a switch of the mesh. Hosts and switches are
// numbered independently starting at 1.
type Node struct {
	Type  NodeType
	Index uint16
}

func Host(index uint16) Node {
	return Node{Type: NodeType_Host, Index: index}
}

func Switch(index uint16) Node {
	return Node{Type: NodeType_Switch, Index: index}
}

func (n Node) IsHost() bool {
	return n.Type == NodeType_Host
}

func (n Node) IsSwitch() bool {
	return n.Type == NodeType_Switch
}

func (n Node) String() string {
	return n.Type.prefix() + strconv.Itoa(int(n.Index))
}

// ParseNode accepts the "h3" / "s3" notation used by the console.
func ParseNode(s string) (Node, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	if len(str) < 2 {
		return Node{}, fmt.Errorf("node %q is invalid: expected h<index> or s<index>", s)
	}
	var nodeType NodeType
	switch str[0] {
	case 'h':
		nodeType = NodeType_Host
	case 's':
		nodeType = NodeType_Switch
	default:
		return Node{}, fmt.Errorf("node %q is invalid: expected h<index> or s<index>", s)
	}
	idx, err := strconv.ParseUint(str[1:], 10, 16)
	if err != nil || idx == 0 {
		return Node{}, fmt.Errorf("node %q is invalid: index must be a positive integer", s)
	}
	return Node{Type: nodeType, Index: uint16(idx)}, nil
}

// UnmarshalText lets nodes be written as "h1" in YAML and JSON documents.
func (n *Node) UnmarshalText(text []byte) error {
	parsed, err := ParseNode(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

func (n Node) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// TrackedSwitch is the presence state of one switch as reported by the
// controller's push channel.
type TrackedSwitch struct {
	sync.RWMutex
	Node
	DPID     string
	Ports    []string
	Present  bool
	LastSeen time.Time
}

func NewTrackedSwitch(index uint16) *TrackedSwitch {
	return &TrackedSwitch{Node: Switch(index)}
}

type TrackedSwitchMap struct {
	sync.RWMutex
	internal map[uint16]*TrackedSwitch
}

func NewTrackedSwitchMap() *TrackedSwitchMap {
	return &TrackedSwitchMap{
		internal: make(map[uint16]*TrackedSwitch),
	}
}

func (rm *TrackedSwitchMap) Internal() map[uint16]*TrackedSwitch {
	rm.Lock()
	defer rm.Unlock()
	return rm.internal
}

func (rm *TrackedSwitchMap) Load(key uint16) (value *TrackedSwitch, ok bool) {
	rm.RLock()
	result, ok := rm.internal[key]
	rm.RUnlock()
	return result, ok
}

func (rm *TrackedSwitchMap) Delete(key uint16) {
	rm.Lock()
	delete(rm.internal, key)
	rm.Unlock()
}

func (rm *TrackedSwitchMap) Store(key uint16, value *TrackedSwitch) {
	rm.Lock()
	rm.internal[key] = value
	rm.Unlock()
}
