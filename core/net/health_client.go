package net

import (
	"context"
	"fmt"
	"time"

	grpcpool "github.com/processout/grpc-go-pool"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewHealthConnPool creates a small connection pool toward a console's health
// endpoint.
func NewHealthConnPool(addr string, idleTimeout time.Duration) (*grpcpool.Pool, error) {
	var factory grpcpool.Factory
	factory = func() (*grpc.ClientConn, error) {
		conn, err := grpc.Dial(addr, grpc.WithInsecure())
		if err != nil {
			logrus.Errorf("[RPC] Failed to dial %s: %s", addr, err.Error())
		}
		return conn, err
	}
	return grpcpool.New(factory, 1, 4, idleTimeout)
}

// CheckHealth asks the console whether its push channel is up.
func CheckHealth(ctx context.Context, pool *grpcpool.Pool, opts ...grpc.CallOption) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := pool.Get(ctx)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer conn.Close()

	client := healthpb.NewHealthClient(conn.ClientConn)
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ConsoleService}, opts...)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return resp.Status, nil
}
