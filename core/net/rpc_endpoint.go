package net

import (
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ConsoleService is the service name reported by the health endpoint.
const ConsoleService = "slice_console.Console"

// HealthRpcEndpoint serves the gRPC health protocol. The console service is
// SERVING while the push channel is connected.
type HealthRpcEndpoint struct {
	lAddr     string
	rpcServer *grpc.Server
	health    *health.Server
}

func NewHealthRpcEndpoint(lAddr string) *HealthRpcEndpoint {
	hs := health.NewServer()
	hs.SetServingStatus(ConsoleService, healthpb.HealthCheckResponse_NOT_SERVING)
	rpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(rpcServer, hs)
	return &HealthRpcEndpoint{
		lAddr:     lAddr,
		rpcServer: rpcServer,
		health:    hs,
	}
}

func (s *HealthRpcEndpoint) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ConsoleService, status)
}

func (s *HealthRpcEndpoint) createListener() (net.Listener, error) {
	return net.Listen("tcp4", s.lAddr)
}

// Start listens and serves until Stop is called.
func (s *HealthRpcEndpoint) Start() error {
	lis, err := s.createListener()
	if err != nil {
		logrus.Errorf("[RPC] Cannot listen on %s: %s", s.lAddr, err.Error())
		return err
	}
	return s.serve(lis)
}

func (s *HealthRpcEndpoint) serve(lis net.Listener) error {
	logrus.Infof("[RPC] Health endpoint listening on %s", lis.Addr())
	return s.rpcServer.Serve(lis)
}

func (s *HealthRpcEndpoint) Stop() {
	s.health.Shutdown()
	s.rpcServer.GracefulStop()
}
