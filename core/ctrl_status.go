package core

import "sync"

// CtrlStatus is the lifecycle state of the console daemon.
type CtrlStatus struct {
	sync.RWMutex
	Started   bool
	Connected bool // push channel is up
	Done      bool

	ReadyChan chan bool
	DoneChan  chan bool
}

func NewCtrlStatus() *CtrlStatus {
	return &CtrlStatus{
		ReadyChan: make(chan bool, 1),
		DoneChan:  make(chan bool, 1),
	}
}

func (cs *CtrlStatus) SetConnected(connected bool) {
	cs.Lock()
	cs.Connected = connected
	cs.Unlock()
}

func (cs *CtrlStatus) IsConnected() bool {
	cs.RLock()
	defer cs.RUnlock()
	return cs.Connected
}

func signal(ch chan bool) {
	select {
	case ch <- true:
	default:
	}
}

// MarkReady signals ReadyChan once the push channel is first up.
func (cs *CtrlStatus) MarkReady() {
	signal(cs.ReadyChan)
}

func (cs *CtrlStatus) MarkDone() {
	cs.Lock()
	cs.Done = true
	cs.Unlock()
	signal(cs.DoneChan)
}
