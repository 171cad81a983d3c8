package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Destinations is the list of destinations the controller reports behind one
// egress port. Only its length matters to the console.
type Destinations []json.RawMessage

// UnmarshalJSON accepts an array of any element type, a scalar (a single
// destination) or null (no destination). An empty string, false and objects
// carry no destination.
func (d *Destinations) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("false")) {
		*d = nil
		return nil
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*d = items
		return nil
	case '{':
		if !json.Valid(trimmed) {
			return fmt.Errorf("invalid destinations %s", trimmed)
		}
		*d = nil
		return nil
	case '"':
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}
		if name == "" {
			*d = nil
			return nil
		}
	}
	*d = Destinations{json.RawMessage(append([]byte(nil), trimmed...))}
	return nil
}

func (d Destinations) Active() bool {
	return len(d) > 0
}

// ActivationTable maps switch index -> egress port -> destinations currently
// routed out of that port.
type ActivationTable map[uint16]map[Port]Destinations

// Set is a convenience for building tables by hand.
func (at ActivationTable) Set(sw uint16, port Port, dsts ...json.RawMessage) {
	ports, found := at[sw]
	if !found {
		ports = make(map[Port]Destinations)
		at[sw] = ports
	}
	ports[port] = Destinations(dsts)
}
