package ctrl_console

import (
	"context"
	"fmt"
	"time"

	"github.com/sdn-slicing/slice_console/core"
	"github.com/sdn-slicing/slice_console/core/model"
	"github.com/sdn-slicing/slice_console/core/net"
	"github.com/sirupsen/logrus"
)

const healthEgressSize = 64

type consoleController struct {
	cfg      *model.BinRootConfig
	status   *core.CtrlStatus
	topology *model.Topology

	// Components
	sync        *core.LinkSynchronizer
	healthMgr   *core.SwitchHealthManager
	hmEgress    chan *core.HealthManagerMsg
	rest        *net.RestClient
	push        *net.PushEndpoint      // JSON-RPC push channel
	rpcEndPoint *net.HealthRpcEndpoint // gRPC health
	view        *net.ViewServer        // Renderer boundary
}

type ConsoleControllerOption func(*consoleController)

// WithoutViewServer disables the HTTP view server.
func WithoutViewServer() ConsoleControllerOption {
	return func(cc *consoleController) {
		cc.view = nil
	}
}

func initLogger(cfg *model.BinRootConfig) {
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		DisableLevelTruncation: true,
		FullTimestamp:          false,
		ForceColors:            true,
	})
}

func NewConsoleController(cfg *model.BinRootConfig, opts ...ConsoleControllerOption) (*consoleController, error) {
	initLogger(cfg)

	logrus.Info("[Console] Initializing topology...")
	topology, err := model.NewMeshTopology(cfg.TopologySize)
	if err != nil {
		return nil, err
	}
	logrus.Infof("[Console] Topology is initialized: %d switches, %d links", topology.Size(), len(topology.Edges()))

	wsURL, err := net.WebsocketURL(cfg.Controller.Address, cfg.Controller.WsPath)
	if err != nil {
		return nil, fmt.Errorf("controller address %s is invalid: %w", cfg.Controller.Address, err)
	}

	hmEgress := make(chan *core.HealthManagerMsg, healthEgressSize)
	cc := &consoleController{
		cfg:         cfg,
		status:      core.NewCtrlStatus(),
		topology:    topology,
		sync:        core.NewLinkSynchronizer(topology),
		healthMgr:   core.NewSwitchHealthManager(topology, hmEgress, cfg.HealthTimeout),
		hmEgress:    hmEgress,
		rest:        net.NewRestClient(cfg.Controller.Address, cfg.Controller.Timeout),
		rpcEndPoint: net.NewHealthRpcEndpoint(cfg.HealthAddress),
	}
	cc.view = net.NewViewServer(cfg.ViewAddress, topology, cc.sync, cc.healthMgr)

	dispatcher := net.NewDispatcher()
	handlers := &net.ConsoleHandlers{
		Sync:    cc.sync,
		Health:  cc.healthMgr,
		Refresh: func() { cc.loadSnapshot(context.Background()) },
	}
	handlers.Register(dispatcher)
	cc.push = net.NewPushEndpoint(wsURL, cfg.Controller.Address, dispatcher, cfg.Push,
		net.OnConnect(cc.onPushConnected),
		net.OnDisconnect(cc.onPushDisconnected))

	for _, opt := range opts {
		opt(cc)
	}
	return cc, nil
}

// loadSnapshot applies the activation table currently in force, so the
// console does not wait for the next push to show it.
func (cc *consoleController) loadSnapshot(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, cc.cfg.Controller.Timeout)
	defer cancel()
	table, err := cc.rest.SliceTopology(ctx)
	if err != nil {
		logrus.Warnf("[Console] Cannot load slice snapshot: %s", err.Error())
		return
	}
	active := cc.sync.Apply(table)
	logrus.Infof("[Console] Slice snapshot loaded, %d active links", len(active))
}

func (cc *consoleController) onPushConnected() {
	cc.status.SetConnected(true)
	cc.rpcEndPoint.SetServing(true)
	cc.loadSnapshot(context.Background())
	cc.status.MarkReady()
}

func (cc *consoleController) onPushDisconnected() {
	cc.status.SetConnected(false)
	cc.rpcEndPoint.SetServing(false)
}

func (cc *consoleController) processHealth(ctx context.Context) {
	for {
		select {
		case msg := <-cc.hmEgress:
			if msg.Present {
				logrus.Debugf("[Console] s%d is up", msg.Switch)
			} else {
				logrus.Warnf("[Console] s%d is down", msg.Switch)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Run serves every component until ctx is done or the push channel gives up.
func (cc *consoleController) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cc.status.Lock()
	cc.status.Started = true
	cc.status.Unlock()

	// RPC and view endpoints
	go func() {
		if err := cc.rpcEndPoint.Start(); err != nil {
			logrus.Error(err)
		}
	}()
	if cc.view != nil {
		go func() {
			if err := cc.view.Start(); err != nil {
				logrus.Error(err)
			}
		}()
	}

	// Components
	go cc.healthMgr.Start()
	go cc.processHealth(ctx)

	logrus.Infof("[Console] Running, push channel %s", cc.cfg.Controller.Address)
	err := cc.push.Start(ctx)

	cc.healthMgr.Stop()
	cc.rpcEndPoint.Stop()
	if cc.view != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
		defer shutdownCancel()
		cc.view.Stop(shutdownCtx)
	}
	cc.status.MarkDone()
	logrus.Info("[Console] Stopped")

	if err == context.Canceled {
		return nil
	}
	return err
}

func (cc *consoleController) Synchronizer() *core.LinkSynchronizer {
	return cc.sync
}

func (cc *consoleController) Status() *core.CtrlStatus {
	return cc.status
}
