package slice

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sdn-slicing/slice_console/core/model"
	"golang.org/x/exp/slices"
)

// Slice is the egress-port activation table of a slice: switch -> egress
// port -> set of endpoint switches routed out of that port.
type Slice struct {
	switches int
	ports    int
	table    map[uint16]map[model.Port]map[uint16]struct{}
}

// NewSlice returns an empty table sized for the topology. Every switch and
// every port is present so the serialized form always lists them.
func NewSlice(topology *model.Topology) *Slice {
	s := &Slice{
		switches: topology.Size(),
		ports:    int(topology.HostPort()),
		table:    make(map[uint16]map[model.Port]map[uint16]struct{}),
	}
	for _, sw := range topology.Switches() {
		ports := make(map[model.Port]map[uint16]struct{})
		for p := 1; p <= s.ports; p++ {
			ports[model.Port(p)] = make(map[uint16]struct{})
		}
		s.table[sw.Index] = ports
	}
	return s
}

func (s *Slice) add(sw uint16, port model.Port, dst uint16) {
	ports, found := s.table[sw]
	if !found {
		ports = make(map[model.Port]map[uint16]struct{})
		s.table[sw] = ports
	}
	dsts, found := ports[port]
	if !found {
		dsts = make(map[uint16]struct{})
		ports[port] = dsts
	}
	dsts[dst] = struct{}{}
}

// Destinations returns the endpoint switches routed out of (sw, port), ascending.
func (s *Slice) Destinations(sw uint16, port model.Port) []uint16 {
	var dsts []uint16
	for dst := range s.table[sw][port] {
		dsts = append(dsts, dst)
	}
	slices.Sort(dsts)
	return dsts
}

func (s *Slice) Contains(sw uint16, port model.Port, dst uint16) bool {
	_, found := s.table[sw][port][dst]
	return found
}

// Empty reports whether no port carries any destination.
func (s *Slice) Empty() bool {
	for _, ports := range s.table {
		for _, dsts := range ports {
			if len(dsts) > 0 {
				return false
			}
		}
	}
	return true
}

func (s *Slice) Equal(other *Slice) bool {
	return slices.Equal(s.entries(), other.entries())
}

type sliceEntry struct {
	sw   uint16
	port model.Port
	dst  uint16
}

func (s *Slice) entries() []sliceEntry {
	var entries []sliceEntry
	for sw, ports := range s.table {
		for port, dsts := range ports {
			for dst := range dsts {
				entries = append(entries, sliceEntry{sw: sw, port: port, dst: dst})
			}
		}
	}
	slices.SortFunc(entries, func(a, b sliceEntry) int {
		if a.sw != b.sw {
			return int(a.sw) - int(b.sw)
		}
		if a.port != b.port {
			return int(a.port) - int(b.port)
		}
		return int(a.dst) - int(b.dst)
	})
	return entries
}

// Table returns the slice in the shape the live synchronizer consumes.
func (s *Slice) Table() model.ActivationTable {
	table := model.ActivationTable{}
	for sw, ports := range s.table {
		for port := range ports {
			var dsts []json.RawMessage
			for _, dst := range s.Destinations(sw, port) {
				dsts = append(dsts, json.RawMessage(strconv.Itoa(int(dst))))
			}
			table.Set(sw, port, dsts...)
		}
	}
	return table
}

// MarshalJSON writes {"1": {"1": [], "2": [2], ...}, ...} with sorted
// destination arrays.
func (s *Slice) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string][]uint16, len(s.table))
	for sw, ports := range s.table {
		outPorts := make(map[string][]uint16, len(ports))
		for port := range ports {
			dsts := s.Destinations(sw, port)
			if dsts == nil {
				dsts = []uint16{}
			}
			outPorts[strconv.Itoa(int(port))] = dsts
		}
		out[strconv.Itoa(int(sw))] = outPorts
	}
	return json.Marshal(out)
}

func (s *Slice) UnmarshalJSON(data []byte) error {
	var in map[uint16]map[model.Port][]uint16
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("slice table is invalid: %w", err)
	}
	s.table = make(map[uint16]map[model.Port]map[uint16]struct{})
	for sw, ports := range in {
		s.switches = max(s.switches, int(sw))
		for port, dsts := range ports {
			s.ports = max(s.ports, int(port))
			if _, found := s.table[sw]; !found {
				s.table[sw] = make(map[model.Port]map[uint16]struct{})
			}
			if _, found := s.table[sw][port]; !found {
				s.table[sw][port] = make(map[uint16]struct{})
			}
			for _, dst := range dsts {
				s.add(sw, port, dst)
			}
		}
	}
	return nil
}
