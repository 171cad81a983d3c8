package net

import (
	"encoding/json"
	"fmt"

	"github.com/sdn-slicing/slice_console/core"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

const CodeParseError = -32700

// Handler processes the params of one push method.
type Handler func(params json.RawMessage) error

// Dispatcher routes push requests to the handler registered for their
// method. Unknown methods are answered with an error; they never close the
// channel.
type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(method string, handler Handler) {
	d.handlers[method] = handler
}

func (d *Dispatcher) Methods() []string {
	methods := make([]string, 0, len(d.handlers))
	for m := range d.handlers {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	return methods
}

// Dispatch handles req and returns the reply. Requests without an id are
// notifications and get no reply, unknown methods included. Ryu's topology
// GUI answers those too; JSON-RPC 2.0 says not to.
func (d *Dispatcher) Dispatch(req *Request) *Response {
	resp := d.dispatch(req)
	if len(req.ID) == 0 {
		return nil
	}
	return resp
}

func (d *Dispatcher) dispatch(req *Request) *Response {
	handler, found := d.handlers[req.Method]
	if !found {
		logrus.Warnf("[Push] Unknown method %s", req.Method)
		return NewErrorResponse(req.ID, CodeMethodNotFound, "unknown method")
	}
	if err := handler(req.Params); err != nil {
		logrus.Errorf("[Push] %s failed: %s", req.Method, err.Error())
		return NewErrorResponse(req.ID, CodeInternalError, err.Error())
	}
	return NewResultResponse(req.ID)
}

// DispatchRaw decodes one frame and dispatches it.
func (d *Dispatcher) DispatchRaw(frame []byte) *Response {
	req := &Request{}
	if err := json.Unmarshal(frame, req); err != nil {
		logrus.Warnf("[Push] Malformed frame: %s", err.Error())
		return NewErrorResponse(json.RawMessage("null"), CodeParseError, "parse error")
	}
	return d.Dispatch(req)
}

// ConsoleHandlers are the components push methods act on.
type ConsoleHandlers struct {
	Sync   *core.LinkSynchronizer
	Health *core.SwitchHealthManager
	// Refresh reloads the full activation snapshot; may be nil.
	Refresh func()
}

// Register installs the console's handler for every known push method.
func (h *ConsoleHandlers) Register(d *Dispatcher) {
	d.Register(MethodSliceUpdate, func(params json.RawMessage) error {
		table, err := decodeSliceUpdate(params)
		if err != nil {
			return fmt.Errorf("invalid slice update: %w", err)
		}
		active := h.Sync.Apply(table)
		logrus.Infof("[Push] Slice update applied, %d active links", len(active))
		return nil
	})
	d.Register(MethodSwitchEnter, func(params json.RawMessage) error {
		ev, err := decodeSwitchEvent(params)
		if err != nil {
			return err
		}
		sw, err := ev.Switch()
		if err != nil {
			return err
		}
		return h.Health.OnSwitchEnter(sw, ev.DPID, ev.PortNames())
	})
	d.Register(MethodSwitchLeave, func(params json.RawMessage) error {
		ev, err := decodeSwitchEvent(params)
		if err != nil {
			return err
		}
		sw, err := ev.Switch()
		if err != nil {
			return err
		}
		return h.Health.OnSwitchLeave(sw)
	})
	for method, added := range map[string]bool{MethodLinkAdd: true, MethodLinkDelete: false} {
		added := added
		d.Register(method, func(params json.RawMessage) error {
			ev, err := decodeLinkEvent(params)
			if err != nil {
				return err
			}
			src, dst, err := ev.Switches()
			if err != nil {
				return err
			}
			return h.Health.OnLinkEvent(src, dst, added)
		})
	}
	d.Register(MethodTest, func(json.RawMessage) error {
		if h.Refresh != nil {
			h.Refresh()
		}
		return nil
	})
}
