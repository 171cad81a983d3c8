package net

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sdn-slicing/slice_console/core/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

var ErrMaxTrials = errors.New("maximum connection trials reached")

// WebsocketURL turns the controller's http address and the push path into
// the websocket url to dial. An address without a scheme is taken as http.
func WebsocketURL(address, path string) (string, error) {
	u, err := url.Parse(ControllerBaseURL(address))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported controller scheme %s", u.Scheme)
	}
	u.Path = "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}

type PushEndpointOption func(*PushEndpoint)

// OnConnect is called every time the channel is (re)established, before the
// first frame is read.
func OnConnect(fn func()) PushEndpointOption {
	return func(p *PushEndpoint) { p.onConnect = append(p.onConnect, fn) }
}

func OnDisconnect(fn func()) PushEndpointOption {
	return func(p *PushEndpoint) { p.onDisconnect = append(p.onDisconnect, fn) }
}

// PushEndpoint keeps a websocket open to the controller and serves its
// JSON-RPC push requests. Frames are handled strictly one after another.
type PushEndpoint struct {
	wsURL      string
	origin     string
	dispatcher *Dispatcher
	cfg        model.PushConfig

	connLock  sync.RWMutex
	conn      *websocket.Conn
	connected bool

	onConnect    []func()
	onDisconnect []func()
}

func NewPushEndpoint(wsURL, origin string,
	dispatcher *Dispatcher,
	cfg model.PushConfig,
	opts ...PushEndpointOption) *PushEndpoint {
	p := &PushEndpoint{
		wsURL:      wsURL,
		origin:     origin,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PushEndpoint) Connected() bool {
	p.connLock.RLock()
	defer p.connLock.RUnlock()
	return p.connected
}

// Connect dials the controller, retrying every RetryInterval. MaxTrials of 0
// retries until ctx is done.
func (p *PushEndpoint) Connect(ctx context.Context) error {
	trialCount := 0
	for {
		conn, err := websocket.Dial(p.wsURL, "", p.origin)
		if err == nil {
			p.connLock.Lock()
			if ctx.Err() != nil {
				p.connLock.Unlock()
				conn.Close()
				return ctx.Err()
			}
			p.conn = conn
			p.connected = true
			p.connLock.Unlock()
			logrus.Infof("[Push] Connected to %s", p.wsURL)
			return nil
		}
		trialCount++
		logrus.Debugf("[Push] Dial %s failed (trial %d): %s", p.wsURL, trialCount, err.Error())
		if p.cfg.MaxTrials > 0 && trialCount >= p.cfg.MaxTrials {
			return fmt.Errorf("%w: %s: %v", ErrMaxTrials, p.wsURL, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.cfg.RetryInterval):
		}
	}
}

func (p *PushEndpoint) Close() error {
	p.connLock.Lock()
	defer p.connLock.Unlock()
	p.connected = false
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

// Start serves the channel until ctx is done, reconnecting whenever the
// controller drops it.
func (p *PushEndpoint) Start(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			p.Close()
		case <-stop:
		}
	}()

	for {
		if err := p.Connect(ctx); err != nil {
			return err
		}
		for _, fn := range p.onConnect {
			fn()
		}
		err := p.serve()
		p.Close()
		for _, fn := range p.onDisconnect {
			fn()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logrus.Warnf("[Push] Channel lost: %v; attempting to reconnect", err)
	}
}

func (p *PushEndpoint) serve() error {
	p.connLock.RLock()
	conn := p.conn
	p.connLock.RUnlock()

	for {
		var frame []byte
		if err := websocket.Message.Receive(conn, &frame); err != nil {
			return err
		}
		logrus.Tracef("[Push] <- %s", frame)
		resp := p.dispatcher.DispatchRaw(frame)
		if resp == nil {
			continue
		}
		if err := websocket.JSON.Send(conn, resp); err != nil {
			return err
		}
	}
}
