package slice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sdn-slicing/slice_console/core/model"
	"golang.org/x/exp/slices"
)

// MaxRate is the highest bandwidth requirement a flow may carry, in bits/s.
const MaxRate int64 = 10_000_000_000

var (
	ErrInvalidFlow       = errors.New("invalid flow")
	ErrInvalidSliceName  = errors.New("invalid slice name")
	ErrIncompleteSession = errors.New("incomplete session")
)

// Flow is one authored host-to-host path: Host, Switch, ..., Switch, Host.
type Flow struct {
	Hops []model.Node
	Rate int64 // bits/s, 0 means no reservation
}

func NewFlow(rate int64, hops ...model.Node) *Flow {
	return &Flow{Hops: hops, Rate: rate}
}

func (f *Flow) Source() model.Node {
	return f.Hops[0]
}

func (f *Flow) Destination() model.Node {
	return f.Hops[len(f.Hops)-1]
}

// FirstSwitch is the switch nearest the source host.
func (f *Flow) FirstSwitch() model.Node {
	return f.Hops[1]
}

// LastSwitch is the switch nearest the destination host.
func (f *Flow) LastSwitch() model.Node {
	return f.Hops[len(f.Hops)-2]
}

func (f *Flow) String() string {
	names := make([]string, 0, len(f.Hops))
	for _, hop := range f.Hops {
		names = append(names, hop.String())
	}
	return fmt.Sprintf("%s @%d", strings.Join(names, "->"), f.Rate)
}

func validateRate(rate int64) error {
	if rate < 0 || rate > MaxRate {
		return fmt.Errorf("%w: rate out of range (%d not in [0, %d])", ErrInvalidFlow, rate, MaxRate)
	}
	return nil
}

func validateEndpoints(src, dst model.Node) error {
	if !src.IsHost() || !dst.IsHost() {
		return fmt.Errorf("%w: endpoints must be hosts (%s, %s)", ErrInvalidFlow, src, dst)
	}
	if src.Index == dst.Index {
		return fmt.Errorf("%w: source equals destination (%s)", ErrInvalidFlow, src)
	}
	return nil
}

// validateShape checks everything that does not need the topology: endpoint
// kinds, interior switches, loops, rate range.
func (f *Flow) validateShape(maxLen int) error {
	if len(f.Hops) < 3 {
		return fmt.Errorf("%w: a flow needs at least 3 hops, got %d", ErrInvalidFlow, len(f.Hops))
	}
	if len(f.Hops) > maxLen {
		return fmt.Errorf("%w: a flow has at most %d hops, got %d", ErrInvalidFlow, maxLen, len(f.Hops))
	}
	if err := validateEndpoints(f.Source(), f.Destination()); err != nil {
		return err
	}
	seen := make([]uint16, 0, len(f.Hops)-2)
	for _, hop := range f.Hops[1 : len(f.Hops)-1] {
		if !hop.IsSwitch() {
			return fmt.Errorf("%w: interior hop %s is not a switch", ErrInvalidFlow, hop)
		}
		if slices.Contains(seen, hop.Index) {
			return fmt.Errorf("%w: path visits %s twice", ErrInvalidFlow, hop)
		}
		seen = append(seen, hop.Index)
	}
	return validateRate(f.Rate)
}

// Draft is a flow being edited before confirmation. Its path always starts
// with the source host and its switch, and ends with the destination switch
// and host; interior switches can be inserted in between.
type Draft struct {
	ID   int
	flow *Flow
}

func (d *Draft) Flow() *Flow {
	return &Flow{Hops: slices.Clone(d.flow.Hops), Rate: d.flow.Rate}
}

// InsertSwitch adds sw right before the destination switch.
func (d *Draft) InsertSwitch(sw model.Node) error {
	if !sw.IsSwitch() {
		return fmt.Errorf("%w: %s is not a switch", ErrInvalidFlow, sw)
	}
	pos := len(d.flow.Hops) - 2
	prev := d.flow.Hops[pos-1]
	next := d.flow.Hops[pos]
	if prev.IsSwitch() && prev.Index == sw.Index {
		return fmt.Errorf("%w: %s already precedes the insertion point", ErrInvalidFlow, sw)
	}
	if next.Index == sw.Index {
		return fmt.Errorf("%w: %s is the destination switch", ErrInvalidFlow, sw)
	}
	if slices.Contains(d.flow.Hops[1:len(d.flow.Hops)-1], sw) {
		return fmt.Errorf("%w: path already visits %s", ErrInvalidFlow, sw)
	}
	d.flow.Hops = slices.Insert(d.flow.Hops, pos, sw)
	return nil
}
