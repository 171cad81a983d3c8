package slice

import (
	"fmt"
	"strconv"

	"github.com/sdn-slicing/slice_console/core/model"
)

type Match struct {
	NwDst string `json:"nw_dst" yaml:"nw_dst"`
	NwSrc string `json:"nw_src" yaml:"nw_src"`
}

type Queue struct {
	Queue   string `json:"queue" yaml:"queue"`
	MaxRate string `json:"max_rate" yaml:"max_rate"`
}

// Reservation is the per-switch QoS rule set: Match[i] is steered into
// Queues[i].
type Reservation struct {
	SwitchID uint16  `json:"switch_id" yaml:"switch_id"`
	PortName string  `json:"port_name" yaml:"port_name"`
	Match    []Match `json:"match" yaml:"match"`
	Queues   []Queue `json:"queues" yaml:"queues"`
}

func (r *Reservation) String() string {
	return fmt.Sprintf("Reservation switch=s%d port=%s rules=%d", r.SwitchID, r.PortName, len(r.Match))
}

func (r *Reservation) clone() *Reservation {
	return &Reservation{
		SwitchID: r.SwitchID,
		PortName: r.PortName,
		Match:    append([]Match{}, r.Match...),
		Queues:   append([]Queue{}, r.Queues...),
	}
}

// Aggregator groups the bandwidth requirements of confirmed flows by the
// switch nearest each flow's destination. Queue identifiers are dense and
// zero-based per switch, in confirmation order.
type Aggregator struct {
	topology     *model.Topology
	reservations []*Reservation
	index        map[uint16]int
}

func NewAggregator(topology *model.Topology) *Aggregator {
	return &Aggregator{
		topology: topology,
		index:    make(map[uint16]int),
	}
}

// Add records flow's reservation and returns the queue identifier it got.
// Flows without a positive rate reserve nothing and return ok=false.
func (a *Aggregator) Add(flow *Flow) (queueID string, ok bool, err error) {
	if err := flow.validateShape(a.topology.Size() + 2); err != nil {
		return "", false, err
	}
	if flow.Rate == 0 {
		return "", false, nil
	}
	sw := flow.LastSwitch()
	hostPort, err := a.topology.PortTo(sw, model.Host(sw.Index))
	if err != nil {
		return "", false, err
	}

	idx, found := a.index[sw.Index]
	if !found {
		a.reservations = append(a.reservations, &Reservation{
			SwitchID: sw.Index,
			PortName: model.PortName(sw.Index, hostPort),
			Match:    []Match{},
			Queues:   []Queue{},
		})
		idx = len(a.reservations) - 1
		a.index[sw.Index] = idx
	}
	r := a.reservations[idx]
	r.Match = append(r.Match, Match{
		NwDst: model.HostAddress(flow.Destination().Index),
		NwSrc: model.HostAddress(flow.Source().Index),
	})
	queueID = strconv.Itoa(len(r.Queues))
	r.Queues = append(r.Queues, Queue{
		Queue:   queueID,
		MaxRate: strconv.FormatInt(flow.Rate, 10),
	})
	return queueID, true, nil
}

// Reservations returns a copy of the rule sets, in order of first use.
func (a *Aggregator) Reservations() []*Reservation {
	out := make([]*Reservation, 0, len(a.reservations))
	for _, r := range a.reservations {
		out = append(out, r.clone())
	}
	return out
}

func (a *Aggregator) Lookup(sw uint16) (*Reservation, bool) {
	idx, found := a.index[sw]
	if !found {
		return nil, false
	}
	return a.reservations[idx].clone(), true
}
