package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Port is a physical attachment point on a switch. Ports 1..n-1 face the
// other switches of an n-switch mesh, port n faces the switch's own host.
type Port uint16

func (p Port) String() string {
	return "eth" + strconv.Itoa(int(p))
}

// PortName is the OVS interface name of a switch port, e.g. "s2-eth5".
func PortName(sw uint16, port Port) string {
	return fmt.Sprintf("s%d-eth%d", sw, port)
}

// ParsePortName is the inverse of PortName.
func ParsePortName(name string) (uint16, Port, error) {
	trimmed := strings.TrimSpace(name)
	splitted := strings.Split(trimmed, "-eth")
	if len(splitted) != 2 || !strings.HasPrefix(splitted[0], "s") {
		return 0, 0, fmt.Errorf("port name %s is invalid: expected s<switch>-eth<port>", name)
	}
	sw, err := strconv.ParseUint(splitted[0][1:], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("port name %s is invalid: %s", name, err.Error())
	}
	port, err := strconv.ParseUint(splitted[1], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("port name %s is invalid: %s", name, err.Error())
	}
	return uint16(sw), Port(port), nil
}

// SwitchDPID is the fixed-width datapath identifier used by the QoS REST API.
func SwitchDPID(sw uint16) string {
	return fmt.Sprintf("%016d", sw)
}

// ParseDPID reads a datapath id as reported by the controller
// ("0000000000000003"). Datapath ids are hex encoded by the controller; for
// the mesh indexes (< 10) both readings agree.
func ParseDPID(dpid string) (uint16, error) {
	val, err := strconv.ParseUint(strings.TrimSpace(dpid), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("dpid %s is invalid: %s", dpid, err.Error())
	}
	return uint16(val), nil
}

// HostAddress is the IPv4 address mininet assigns to host h<index>.
func HostAddress(host uint16) string {
	return fmt.Sprintf("10.0.0.%d", host)
}
