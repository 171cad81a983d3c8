package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sdn-slicing/slice_console/core/model"
)

func decodeTable(t *testing.T, doc string) model.ActivationTable {
	t.Helper()
	table := model.ActivationTable{}
	if err := json.Unmarshal([]byte(doc), &table); err != nil {
		t.Fatal(err)
	}
	return table
}

func TestLinkSyncDeactivatesEmptiedPort(t *testing.T) {
	ls := NewLinkSynchronizer(model.NewDefaultTopology())

	active := ls.Apply(decodeTable(t, `{"2": {"3": ["x"]}}`))
	if len(active) != 1 || active[0] != "s2eth3" {
		t.Fatalf("expected [s2eth3], got %v", active)
	}
	ls.Apply(decodeTable(t, `{"2": {"3": []}}`))
	if ls.IsActive("s2eth3") {
		t.Errorf("s2 port 3 should be inactive after the second push")
	}
	if ls.Applied() != 2 {
		t.Errorf("expected 2 reconciliations, got %d", ls.Applied())
	}
}

func TestLinkSyncIdempotent(t *testing.T) {
	ls := NewLinkSynchronizer(model.NewDefaultTopology())
	doc := `{"1": {"1": [2], "5": [1]}, "2": {"1": [1], "5": 2, "4": null}}`

	once := ls.Apply(decodeTable(t, doc))
	twice := ls.Apply(decodeTable(t, doc))
	if len(once) != len(twice) {
		t.Fatalf("expected %v, got %v", once, twice)
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("expected %v, got %v", once, twice)
		}
	}
	// both ends of s1-s2 collapse into one identity
	expected := []model.LinkIdentity{"s1eth1", "s1eth5", "s2eth5"}
	if len(once) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, once)
	}
	for i := range expected {
		if once[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, once)
		}
	}

	ls.Apply(decodeTable(t, `{"1": {"1": [], "5": []}, "2": {"1": [], "5": []}}`))
	if len(ls.Active()) != 0 {
		t.Errorf("all-empty push should clear every identity, got %v", ls.Active())
	}
}

func TestLinkSyncSkipsUnknownPorts(t *testing.T) {
	ls := NewLinkSynchronizer(model.NewDefaultTopology())
	active := ls.Apply(decodeTable(t, `{"9": {"1": [1]}, "3": {"7": [1], "2": [2]}}`))
	if len(active) != 1 || active[0] != "s2eth2" {
		t.Errorf("expected only s2eth2, got %v", active)
	}
}

func TestSwitchHealthManager(t *testing.T) {
	egress := make(chan *HealthManagerMsg, 8)
	hm := NewSwitchHealthManager(model.NewDefaultTopology(), egress, time.Hour)

	if err := hm.OnSwitchEnter(2, "0000000000000002", []string{"s2-eth1", "s2-eth5"}); err != nil {
		t.Fatal(err)
	}
	if msg := <-egress; msg.Switch != 2 || !msg.Present {
		t.Errorf("unexpected message %+v", msg)
	}
	// entering again is not a change
	if err := hm.OnSwitchEnter(2, "0000000000000002", nil); err != nil {
		t.Fatal(err)
	}
	if err := hm.OnLinkEvent(2, 3, true); err != nil {
		t.Fatal(err)
	}
	if msg := <-egress; msg.Switch != 3 || !msg.Present {
		t.Errorf("unexpected message %+v", msg)
	}
	if err := hm.OnSwitchLeave(2); err != nil {
		t.Fatal(err)
	}
	if msg := <-egress; msg.Switch != 2 || msg.Present {
		t.Errorf("unexpected message %+v", msg)
	}
	if err := hm.OnSwitchEnter(8, "", nil); err == nil {
		t.Errorf("expected an error for s8")
	}

	states := hm.Switches()
	if len(states) != 5 {
		t.Fatalf("expected 5 switches, got %d", len(states))
	}
	if states[1].Switch != "s2" || states[1].Present || states[1].DPID != "0000000000000002" {
		t.Errorf("unexpected s2 state %+v", states[1])
	}
	if !states[2].Present {
		t.Errorf("s3 should be present after a link event")
	}
}

func TestSwitchHealthManagerReportsAbsenceOnce(t *testing.T) {
	hm := NewSwitchHealthManager(model.NewDefaultTopology(), nil, time.Minute)
	for sw := uint16(1); sw <= 5; sw++ {
		hm.OnSwitchEnter(sw, "", nil)
	}
	hm.OnSwitchLeave(4)

	now := time.Now()
	if absent := hm.checkAbsent(now); len(absent) != 0 {
		t.Errorf("s4 just left, got %v", absent)
	}
	later := now.Add(2 * time.Minute)
	if absent := hm.checkAbsent(later); len(absent) != 1 || absent[0] != 4 {
		t.Errorf("expected [4], got %v", absent)
	}
	if absent := hm.checkAbsent(later.Add(time.Minute)); len(absent) != 0 {
		t.Errorf("absence should be reported once, got %v", absent)
	}
}
