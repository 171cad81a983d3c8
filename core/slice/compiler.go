package slice

import (
	"github.com/sdn-slicing/slice_console/core/model"
)

// Compiler folds flows into a Slice. It holds no state besides the topology.
type Compiler struct {
	topology *model.Topology
}

func NewCompiler(topology *model.Topology) *Compiler {
	return &Compiler{topology: topology}
}

// Validate checks a flow against the topology without touching any slice.
func (c *Compiler) Validate(flow *Flow) error {
	_, err := c.plan(flow)
	return err
}

// Compile folds flow into s. For every interior switch the port toward the
// next hop gets the destination switch and the port toward the previous hop
// gets the source switch, so both directions of the path are reserved.
// Compile either applies every entry or, on error, none.
func (c *Compiler) Compile(flow *Flow, s *Slice) error {
	entries, err := c.plan(flow)
	if err != nil {
		return err
	}
	for _, e := range entries {
		s.add(e.sw, e.port, e.dst)
	}
	return nil
}

func (c *Compiler) plan(flow *Flow) ([]sliceEntry, error) {
	// host + every switch + host
	if err := flow.validateShape(c.topology.Size() + 2); err != nil {
		return nil, err
	}
	srcSwitch := flow.FirstSwitch().Index
	dstSwitch := flow.LastSwitch().Index

	entries := make([]sliceEntry, 0, 2*(len(flow.Hops)-2))
	for k := 1; k < len(flow.Hops)-1; k++ {
		sw := flow.Hops[k]
		towardSource, err := c.topology.PortTo(sw, flow.Hops[k-1])
		if err != nil {
			return nil, err
		}
		towardDestination, err := c.topology.PortTo(sw, flow.Hops[k+1])
		if err != nil {
			return nil, err
		}
		entries = append(entries,
			sliceEntry{sw: sw.Index, port: towardDestination, dst: dstSwitch},
			sliceEntry{sw: sw.Index, port: towardSource, dst: srcSwitch},
		)
	}
	return entries, nil
}
