package core

// HealthManagerMsg reports a change in a switch's presence.
type HealthManagerMsg struct {
	Switch  uint16
	Present bool
}

func NewHealthManagerMsg(sw uint16, present bool) *HealthManagerMsg {
	return &HealthManagerMsg{Switch: sw, Present: present}
}
