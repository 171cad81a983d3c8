package slice

import (
	"fmt"
	"os"

	"github.com/sdn-slicing/slice_console/core/model"
	"gopkg.in/yaml.v3"
)

// Plan is a slice authored offline:
//
//	name: gold
//	flows:
//	  - path: [h1, s1, s2, h2]
//	    rate: 1000000
//	  - src: h3
//	    dst: h5
//	    via: [s4]
type Plan struct {
	Name  string     `yaml:"name"`
	Flows []PlanFlow `yaml:"flows"`
}

// PlanFlow is either an explicit path or a src/dst pair routed along the
// shortest path, with optional switches inserted before the destination switch.
type PlanFlow struct {
	Path []string `yaml:"path,omitempty"`
	Src  string   `yaml:"src,omitempty"`
	Dst  string   `yaml:"dst,omitempty"`
	Via  []string `yaml:"via,omitempty"`
	Rate int64    `yaml:"rate"`
}

func ReadPlan(filename string) (*Plan, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read plan %s: %w", filename, err)
	}
	return ParsePlan(data)
}

func ParsePlan(data []byte) (*Plan, error) {
	plan := &Plan{}
	if err := yaml.Unmarshal(data, plan); err != nil {
		return nil, fmt.Errorf("plan is not valid yaml: %w", err)
	}
	return plan, nil
}

func parseNodes(names []string) ([]model.Node, error) {
	nodes := make([]model.Node, 0, len(names))
	for _, name := range names {
		n, err := model.ParseNode(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFlow, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Build confirms every flow of the plan into a fresh session and returns the
// resulting submission.
func (p *Plan) Build(topology *model.Topology) (*Session, *Submission, error) {
	session := NewSession(topology)
	for i, pf := range p.Flows {
		draft, err := pf.draft(session)
		if err != nil {
			return nil, nil, fmt.Errorf("flow #%d: %w", i+1, err)
		}
		if _, err := session.Confirm(draft.ID); err != nil {
			return nil, nil, fmt.Errorf("flow #%d: %w", i+1, err)
		}
	}
	sub, err := session.Submission(p.Name)
	if err != nil {
		return nil, nil, err
	}
	return session, sub, nil
}

func (pf PlanFlow) draft(session *Session) (*Draft, error) {
	if len(pf.Path) > 0 {
		hops, err := parseNodes(pf.Path)
		if err != nil {
			return nil, err
		}
		return session.AddDraft(NewFlow(pf.Rate, hops...))
	}
	endpoints, err := parseNodes([]string{pf.Src, pf.Dst})
	if err != nil {
		return nil, err
	}
	via, err := parseNodes(pf.Via)
	if err != nil {
		return nil, err
	}
	draft, err := session.NewDraft(endpoints[0], endpoints[1], pf.Rate)
	if err != nil {
		return nil, err
	}
	for _, sw := range via {
		if err := draft.InsertSwitch(sw); err != nil {
			session.Discard(draft.ID)
			return nil, err
		}
	}
	return draft, nil
}
