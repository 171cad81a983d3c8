package net

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/sdn-slicing/slice_console/core/model"
)

const JSONRPCVersion = "2.0"

// Push methods the controller calls on the console.
const (
	MethodSwitchEnter = "event_switch_enter"
	MethodSwitchLeave = "event_switch_leave"
	MethodLinkAdd     = "event_link_add"
	MethodLinkDelete  = "event_link_delete"
	MethodTest        = "event_test"
	MethodSliceUpdate = "event_slice_update"
)

// JSON-RPC error codes answered on the push channel.
const (
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  *string         `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

func NewResultResponse(id json.RawMessage) *Response {
	empty := ""
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Result: &empty}
}

func NewErrorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message}}
}

// firstParam unwraps the positional form [x] the controller broadcasts with.
// Anything that is not an array is returned as is.
func firstParam(params json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return trimmed, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("empty params")
	}
	return list[0], nil
}

// PortInfo is a switch port as described by the controller's topology events.
type PortInfo struct {
	DPID   string `json:"dpid"`
	PortNo string `json:"port_no"`
	HwAddr string `json:"hw_addr"`
	Name   string `json:"name"`
}

// SwitchEvent is the params of event_switch_enter / event_switch_leave.
type SwitchEvent struct {
	DPID  string     `json:"dpid"`
	Ports []PortInfo `json:"ports"`
}

func (e *SwitchEvent) Switch() (uint16, error) {
	return model.ParseDPID(e.DPID)
}

func (e *SwitchEvent) PortNames() []string {
	names := make([]string, 0, len(e.Ports))
	for _, p := range e.Ports {
		names = append(names, p.Name)
	}
	return names
}

// LinkEvent is the params of event_link_add / event_link_delete.
type LinkEvent struct {
	Src PortInfo `json:"src"`
	Dst PortInfo `json:"dst"`
}

func (e *LinkEvent) Switches() (uint16, uint16, error) {
	src, err := model.ParseDPID(e.Src.DPID)
	if err != nil {
		return 0, 0, err
	}
	dst, err := model.ParseDPID(e.Dst.DPID)
	if err != nil {
		return 0, 0, err
	}
	return src, dst, nil
}

func decodeSwitchEvent(params json.RawMessage) (*SwitchEvent, error) {
	raw, err := firstParam(params)
	if err != nil {
		return nil, err
	}
	ev := &SwitchEvent{}
	if err := json.Unmarshal(raw, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeLinkEvent(params json.RawMessage) (*LinkEvent, error) {
	raw, err := firstParam(params)
	if err != nil {
		return nil, err
	}
	ev := &LinkEvent{}
	if err := json.Unmarshal(raw, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// decodeSliceUpdate accepts both [table] and table.
func decodeSliceUpdate(params json.RawMessage) (model.ActivationTable, error) {
	raw, err := firstParam(params)
	if err != nil {
		return nil, err
	}
	table := model.ActivationTable{}
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, err
	}
	return table, nil
}
