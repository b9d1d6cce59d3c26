package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcmw "github.com/autopeer-io/rfmapper/internal/pkg/middleware/grpc"
	"github.com/autopeer-io/rfmapper/pkg/log"
	"github.com/autopeer-io/rfmapper/pkg/options"
)

// ServiceName is the health service name reported alongside the overall
// ("") status.
const ServiceName = "rfmapper.Mapper"

// Server exposes the standard gRPC health service. It reports NOT_SERVING
// until SetServing(true) is called.
type Server struct {
	server  *grpc.Server
	health  *health.Server
	options *options.GrpcOptions
	logger  log.Logger
}

func NewServer(opts *options.GrpcOptions) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcmw.UnaryRecoveryInterceptor,
			grpcmw.UnaryTimeoutInterceptor(opts.Timeout),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &Server{
		server:  srv,
		health:  hs,
		options: opts,
		logger:  log.WithName("grpc"),
	}
	s.SetServing(false)
	return s
}

// SetServing flips the reported status of the overall server and the
// mapper service.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, lis)
}

func (s *Server) serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info("Starting gRPC Server", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down gRPC Server")
		s.health.Shutdown()
		s.gracefulStop()
		return nil
	}
}

// gracefulStop falls back to a hard stop once the shutdown timeout passes.
func (s *Server) gracefulStop() {
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	timeout := s.options.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-done:
	case <-t.C:
		s.logger.Warn("Graceful stop timed out, forcing")
		s.server.Stop()
	}
}
