package grpc

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
)

// ServiceName is the name reported by the health service.
const ServiceName = "roomsync.v1.RoomSync"

// Server exposes the standard gRPC health service.
type Server struct {
	server *grpc.Server
	health *health.Server
}

func NewServer() *Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(log.UnaryServerInterceptor(log.L())))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{server: srv, health: hs}
}

// Serve blocks serving on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	l := log.L()
	l.Info().Str("addr", lis.Addr().String()).Msg("gRPC server listening")
	if err := s.server.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop marks the service as not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
