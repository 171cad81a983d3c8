package slice

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdn-slicing/slice_console/core/model"
)

const testPlan = `
name: gold
flows:
  - path: [h1, s1, s2, h2]
    rate: 1000000
  - src: h3
    dst: h2
    via: [s5]
    rate: 2000
  - src: h4
    dst: h5
`

func TestPlanBuild(t *testing.T) {
	plan, err := ParsePlan([]byte(testPlan))
	if err != nil {
		t.Fatal(err)
	}
	if plan.Name != "gold" || len(plan.Flows) != 3 {
		t.Fatalf("unexpected plan %+v", plan)
	}
	topo := model.NewDefaultTopology()
	session, sub, err := plan.Build(topo)
	if err != nil {
		t.Fatal(err)
	}
	confirmed := session.Confirmed()
	if len(confirmed) != 3 {
		t.Fatalf("expected 3 confirmed flows, got %d", len(confirmed))
	}
	if got := confirmed[1].String(); got != "h3->s3->s5->s2->h2 @2000" {
		t.Errorf("unexpected routed flow %s", got)
	}
	if sub.Name != "gold" {
		t.Errorf("unexpected name %s", sub.Name)
	}
	if len(sub.QoS) != 1 || len(sub.QoS[0].Queues) != 2 {
		t.Fatalf("expected both rated flows on s2, got %v", sub.QoS)
	}
	if sub.QoS[0].Queues[1].MaxRate != "2000" {
		t.Errorf("unexpected second queue %+v", sub.QoS[0].Queues[1])
	}
}

func TestPlanBuildErrors(t *testing.T) {
	topo := model.NewDefaultTopology()
	plans := map[string]string{
		"bad node":   "name: gold\nflows:\n  - path: [h1, x1, h2]\n",
		"bad via":    "name: gold\nflows:\n  - {src: h1, dst: h2, via: [s2]}\n",
		"short name": "name: ab\nflows:\n  - {src: h1, dst: h2}\n",
		"no flows":   "name: gold\n",
	}
	for name, doc := range plans {
		plan, err := ParsePlan([]byte(doc))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if _, _, err := plan.Build(topo); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	plan, _ := ParsePlan([]byte(plans["short name"]))
	if _, _, err := plan.Build(topo); !errors.Is(err, ErrInvalidSliceName) {
		t.Errorf("expected ErrInvalidSliceName, got %v", err)
	}
	if _, err := ParsePlan([]byte("flows: [")); err == nil {
		t.Errorf("expected a yaml error")
	}
}

func TestReadPlan(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(filename, []byte(testPlan), 0o644); err != nil {
		t.Fatal(err)
	}
	plan, err := ReadPlan(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Flows) != 3 || plan.Flows[0].Rate != 1000000 {
		t.Errorf("unexpected plan %+v", plan)
	}
	if _, err := ReadPlan(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected an error for a missing plan")
	}
}
