package core

import (
	"fmt"
	"time"

	"github.com/sdn-slicing/slice_console/core/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

const DefaultAbsentTimeOut = 10 * time.Second

// SwitchHealthManager tracks which switches of the mesh the controller
// currently reports, based on switch and link events from the push channel.
type SwitchHealthManager struct {
	topology        *model.Topology
	switches        *model.TrackedSwitchMap
	hmEgress        chan *HealthManagerMsg
	absentTimeOut   time.Duration
	reportedAbsence map[uint16]bool
	doneChan        chan bool
}

func NewSwitchHealthManager(topology *model.Topology,
	hmEgress chan *HealthManagerMsg,
	absentTimeOut time.Duration) *SwitchHealthManager {
	if absentTimeOut <= 0 {
		absentTimeOut = DefaultAbsentTimeOut
	}
	switches := model.NewTrackedSwitchMap()
	for _, sw := range topology.Switches() {
		switches.Store(sw.Index, model.NewTrackedSwitch(sw.Index))
	}
	return &SwitchHealthManager{
		topology:        topology,
		switches:        switches,
		hmEgress:        hmEgress,
		absentTimeOut:   absentTimeOut,
		reportedAbsence: make(map[uint16]bool),
		doneChan:        make(chan bool, 1),
	}
}

func (hm *SwitchHealthManager) lookup(sw uint16) (*model.TrackedSwitch, error) {
	tracked, found := hm.switches.Load(sw)
	if !found {
		return nil, fmt.Errorf("%w: switch s%d doesn't exist", model.ErrInvalidTopologyQuery, sw)
	}
	return tracked, nil
}

func (hm *SwitchHealthManager) notify(msg *HealthManagerMsg) {
	if hm.hmEgress == nil {
		return
	}
	select {
	case hm.hmEgress <- msg:
	default:
		logrus.Warnf("[Health] Dropping update for s%d: egress is full", msg.Switch)
	}
}

// OnSwitchEnter marks a switch present and records the ports it announced.
func (hm *SwitchHealthManager) OnSwitchEnter(sw uint16, dpid string, ports []string) error {
	tracked, err := hm.lookup(sw)
	if err != nil {
		return err
	}
	tracked.Lock()
	wasPresent := tracked.Present
	tracked.DPID = dpid
	tracked.Ports = append([]string{}, ports...)
	tracked.Present = true
	tracked.LastSeen = time.Now()
	tracked.Unlock()

	if !wasPresent {
		logrus.Infof("[Health] Switch s%d entered with %d ports", sw, len(ports))
		hm.notify(NewHealthManagerMsg(sw, true))
	}
	return nil
}

// OnSwitchLeave marks a switch absent. LastSeen keeps the time it was last
// reported present.
func (hm *SwitchHealthManager) OnSwitchLeave(sw uint16) error {
	tracked, err := hm.lookup(sw)
	if err != nil {
		return err
	}
	tracked.Lock()
	wasPresent := tracked.Present
	tracked.Present = false
	tracked.Unlock()

	if wasPresent {
		logrus.Infof("[Health] Switch s%d left", sw)
		hm.notify(NewHealthManagerMsg(sw, false))
	}
	return nil
}

// OnLinkEvent refreshes both endpoints of a link. A link can only be reported
// between live switches, so an added link also marks its endpoints present.
func (hm *SwitchHealthManager) OnLinkEvent(src, dst uint16, added bool) error {
	for _, sw := range []uint16{src, dst} {
		tracked, err := hm.lookup(sw)
		if err != nil {
			return err
		}
		tracked.Lock()
		tracked.LastSeen = time.Now()
		wasPresent := tracked.Present
		if added {
			tracked.Present = true
		}
		tracked.Unlock()
		if added && !wasPresent {
			hm.notify(NewHealthManagerMsg(sw, true))
		}
	}
	logrus.Debugf("[Health] Link s%d-s%d added=%v", src, dst, added)
	return nil
}

// SwitchState is a point-in-time copy of a tracked switch.
type SwitchState struct {
	Index    uint16    `json:"-"`
	Switch   string    `json:"switch"`
	DPID     string    `json:"dpid"`
	Ports    []string  `json:"ports"`
	Present  bool      `json:"present"`
	LastSeen time.Time `json:"last_seen"`
}

// Switches returns the state of every switch, ordered by index.
func (hm *SwitchHealthManager) Switches() []SwitchState {
	internal := hm.switches.Internal()
	indexes := make([]uint16, 0, len(internal))
	for idx := range internal {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)

	states := make([]SwitchState, 0, len(indexes))
	for _, idx := range indexes {
		sw, found := hm.switches.Load(idx)
		if !found {
			continue
		}
		sw.RLock()
		states = append(states, SwitchState{
			Index:    idx,
			Switch:   sw.Node.String(),
			DPID:     sw.DPID,
			Ports:    append([]string{}, sw.Ports...),
			Present:  sw.Present,
			LastSeen: sw.LastSeen,
		})
		sw.RUnlock()
	}
	return states
}

// checkAbsent reports, once per absence, every switch that has not been seen
// for longer than the timeout.
func (hm *SwitchHealthManager) checkAbsent(now time.Time) []uint16 {
	var absent []uint16
	for _, state := range hm.Switches() {
		stale := !state.Present && now.Sub(state.LastSeen) >= hm.absentTimeOut
		if stale && !hm.reportedAbsence[state.Index] {
			absent = append(absent, state.Index)
			logrus.Warnf("[Health] Switch %s absent for more than %s", state.Switch, hm.absentTimeOut)
		}
		hm.reportedAbsence[state.Index] = stale
	}
	return absent
}

func (hm *SwitchHealthManager) processSwitches() {
	ticker := time.NewTicker(hm.absentTimeOut)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			hm.checkAbsent(now)
		case <-hm.doneChan:
			return
		}
	}
}

func (hm *SwitchHealthManager) Start() {
	hm.processSwitches()
}

func (hm *SwitchHealthManager) Stop() {
	hm.doneChan <- true
}
