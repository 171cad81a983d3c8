package slice

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/sdn-slicing/slice_console/core/model"
)

// ProbePort is the UDP port probes are sent to (iperf's default).
const ProbePort layers.UDPPort = 5001

func hostMAC(host uint16) net.HardwareAddr {
	return net.HardwareAddr{0x00, 0x00, 0x00, 0x00, byte(host >> 8), byte(host)}
}

// BuildProbe serializes an Ethernet/IPv4/UDP frame from host src to host dst,
// addressed the way Mininet numbers its hosts.
func BuildProbe(src, dst model.Node, payload []byte) ([]byte, error) {
	if err := validateEndpoints(src, dst); err != nil {
		return nil, err
	}
	eth := &layers.Ethernet{
		SrcMAC:       hostMAC(src.Index),
		DstMAC:       hostMAC(dst.Index),
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		SrcIP:    net.ParseIP(model.HostAddress(src.Index)).To4(),
		DstIP:    net.ParseIP(model.HostAddress(dst.Index)).To4(),
		Protocol: layers.IPProtocolUDP,
	}
	udp := &layers.UDP{
		SrcPort: ProbePort,
		DstPort: ProbePort,
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload))
	if err != nil {
		return nil, fmt.Errorf("cannot serialize probe %s->%s: %w", src, dst, err)
	}
	return buf.Bytes(), nil
}

// Classify returns the queue a packet would be steered into at this
// reservation's egress port, matching on the IPv4 source and destination.
func (r *Reservation) Classify(pkt gopacket.Packet) (queue string, ok bool) {
	ipLayer := pkt.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return "", false
	}
	ip, _ := ipLayer.(*layers.IPv4)
	src, dst := ip.SrcIP.String(), ip.DstIP.String()
	for i, m := range r.Match {
		if m.NwSrc == src && m.NwDst == dst && i < len(r.Queues) {
			return r.Queues[i].Queue, true
		}
	}
	return "", false
}

// ClassifyBytes decodes an Ethernet frame and classifies it.
func (r *Reservation) ClassifyBytes(frame []byte) (queue string, ok bool) {
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	return r.Classify(pkt)
}
