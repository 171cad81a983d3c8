package slice

import (
	"fmt"
	"unicode/utf8"

	"github.com/sdn-slicing/slice_console/core/model"
	"golang.org/x/exp/slices"
)

const (
	MinNameLength = 3
	MaxNameLength = 14
)

// Session is one authoring session: the drafts being edited plus the Slice
// and Reservations accumulated from confirmed flows. A Session is owned by a
// single author and must not be shared between goroutines.
type Session struct {
	topology   *model.Topology
	compiler   *Compiler
	aggregator *Aggregator
	slice      *Slice

	drafts    map[int]*Draft
	nextID    int
	confirmed []*Flow
}

func NewSession(topology *model.Topology) *Session {
	return &Session{
		topology:   topology,
		compiler:   NewCompiler(topology),
		aggregator: NewAggregator(topology),
		slice:      NewSlice(topology),
		drafts:     make(map[int]*Draft),
		nextID:     1,
	}
}

// NewDraft starts a flow from src to dst along the shortest route.
func (s *Session) NewDraft(src, dst model.Node, rate int64) (*Draft, error) {
	if err := validateEndpoints(src, dst); err != nil {
		return nil, err
	}
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	hops, err := s.topology.Route(src, dst)
	if err != nil {
		return nil, err
	}
	return s.store(&Flow{Hops: hops, Rate: rate}), nil
}

// AddDraft starts a flow from an explicit hop sequence.
func (s *Session) AddDraft(flow *Flow) (*Draft, error) {
	if err := s.compiler.Validate(flow); err != nil {
		return nil, err
	}
	return s.store(&Flow{Hops: slices.Clone(flow.Hops), Rate: flow.Rate}), nil
}

func (s *Session) store(flow *Flow) *Draft {
	d := &Draft{ID: s.nextID, flow: flow}
	s.drafts[d.ID] = d
	s.nextID++
	return d
}

func (s *Session) Draft(id int) (*Draft, bool) {
	d, found := s.drafts[id]
	return d, found
}

// Discard drops an unconfirmed draft; nothing of it reaches the slice.
func (s *Session) Discard(id int) error {
	if _, found := s.drafts[id]; !found {
		return fmt.Errorf("draft %d doesn't exist", id)
	}
	delete(s.drafts, id)
	return nil
}

// Confirm compiles the draft into the session's slice and, for a positive
// rate, allocates its reservation queue. On error the draft stays pending and
// the slice is unchanged.
func (s *Session) Confirm(id int) (queueID string, err error) {
	d, found := s.drafts[id]
	if !found {
		return "", fmt.Errorf("draft %d doesn't exist", id)
	}
	flow := d.Flow()
	if err := s.compiler.Compile(flow, s.slice); err != nil {
		return "", err
	}
	queueID, _, err = s.aggregator.Add(flow)
	if err != nil {
		return "", err
	}
	delete(s.drafts, id)
	s.confirmed = append(s.confirmed, flow)
	return queueID, nil
}

// Pending returns the ids of unconfirmed drafts, ascending.
func (s *Session) Pending() []int {
	ids := make([]int, 0, len(s.drafts))
	for id := range s.drafts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Session) Confirmed() []*Flow {
	return slices.Clone(s.confirmed)
}

func (s *Session) Slice() *Slice {
	return s.slice
}

func (s *Session) Reservations() []*Reservation {
	return s.aggregator.Reservations()
}

// Submission names the session's slice for submission to the controller.
// It fails if the name is invalid, nothing was confirmed yet or drafts are
// still pending.
func (s *Session) Submission(name string) (*Submission, error) {
	if err := ValidateSliceName(name); err != nil {
		return nil, err
	}
	if len(s.confirmed) == 0 {
		return nil, fmt.Errorf("%w: add at least 1 flow", ErrIncompleteSession)
	}
	if len(s.drafts) > 0 {
		return nil, fmt.Errorf("%w: confirm or delete remaining flows (%d pending)", ErrIncompleteSession, len(s.drafts))
	}
	return &Submission{
		Name:  name,
		Slice: s.slice,
		QoS:   s.aggregator.Reservations(),
	}, nil
}

// Submission is the body of a slice creation request.
type Submission struct {
	Name  string         `json:"name"`
	Slice *Slice         `json:"slice"`
	QoS   []*Reservation `json:"qos"`
}

func (sub *Submission) Validate() error {
	if err := ValidateSliceName(sub.Name); err != nil {
		return err
	}
	if sub.Slice == nil {
		return fmt.Errorf("%w: submission carries no slice", ErrIncompleteSession)
	}
	return nil
}

func ValidateSliceName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinNameLength || n > MaxNameLength {
		return fmt.Errorf("%w: name must be %d-%d characters long (got %d)",
			ErrInvalidSliceName, MinNameLength, MaxNameLength, n)
	}
	return nil
}
