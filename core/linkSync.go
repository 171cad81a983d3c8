package core

import (
	"sync"

	"github.com/sdn-slicing/slice_console/core/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// LinkSynchronizer keeps the set of link identities the controller reports
// as active. Each Apply replaces the whole set: readers observe either the
// previous reconciliation or the new one, never a mix.
type LinkSynchronizer struct {
	sync.RWMutex
	topology *model.Topology
	active   map[model.LinkIdentity]struct{}
	applied  uint64
}

func NewLinkSynchronizer(topology *model.Topology) *LinkSynchronizer {
	return &LinkSynchronizer{
		topology: topology,
		active:   make(map[model.LinkIdentity]struct{}),
	}
}

// Apply reconciles one activation table and returns the identities now
// active, sorted. Pushes are applied in call order: the last one wins.
func (ls *LinkSynchronizer) Apply(table model.ActivationTable) []model.LinkIdentity {
	active := make(map[model.LinkIdentity]struct{})
	for sw, ports := range table {
		for port, dsts := range ports {
			if !dsts.Active() {
				continue
			}
			id, err := ls.topology.IdentityAt(sw, port)
			if err != nil {
				logrus.Warnf("[Sync] Skipping s%d port %d: %s", sw, port, err.Error())
				continue
			}
			active[id] = struct{}{}
		}
	}

	ls.Lock()
	ls.active = active
	ls.applied++
	applied := ls.applied
	ls.Unlock()

	ids := sortedIdentities(active)
	logrus.Debugf("[Sync] Reconciliation #%d: %d active links", applied, len(ids))
	return ids
}

// Active returns the currently active identities, sorted.
func (ls *LinkSynchronizer) Active() []model.LinkIdentity {
	ls.RLock()
	defer ls.RUnlock()
	return sortedIdentities(ls.active)
}

func (ls *LinkSynchronizer) IsActive(id model.LinkIdentity) bool {
	ls.RLock()
	defer ls.RUnlock()
	_, found := ls.active[id]
	return found
}

// Applied is the number of reconciliations performed so far.
func (ls *LinkSynchronizer) Applied() uint64 {
	ls.RLock()
	defer ls.RUnlock()
	return ls.applied
}

func sortedIdentities(set map[model.LinkIdentity]struct{}) []model.LinkIdentity {
	ids := make([]model.LinkIdentity, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
