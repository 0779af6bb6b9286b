package grpc

import (
	"fmt"
	"log/slog"
	"net"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/bibbank/riskwatch/pkg/auth"
	"github.com/bibbank/riskwatch/pkg/tlsutil"
)

const healthServiceName = "riskwatch.risk.v1.RiskService"

// ServerConfig configures the gRPC server.
type ServerConfig struct {
	Address    string
	TLS        tlsutil.Files
	Reflection bool
}

// MethodRoles lists the roles allowed to call each RiskService method.
var MethodRoles = map[string][]string{
	MethodAssessPortfolio:     auth.AssessRoles,
	MethodAssessBatch:         auth.AssessRoles,
	MethodGetPortfolioHistory: auth.ReadRoles,
	MethodGetAssessment:       auth.ReadRoles,
}

// Server wraps the gRPC server with risk service handlers.
type Server struct {
	grpcServer *grpclib.Server
	health     *health.Server
	logger     *slog.Logger
	address    string
}

// NewServer creates a new gRPC server for the risk service. Health checks
// and reflection bypass authentication.
func NewServer(cfg ServerConfig, handler RiskServiceServer, validator auth.TokenValidator, logger *slog.Logger) (*Server, error) {
	authInterceptor := auth.UnaryAuthInterceptor(validator, MethodRoles,
		"/grpc.health.v1.Health/",
		"/grpc.reflection.",
	)

	serverOpts := []grpclib.ServerOption{grpclib.UnaryInterceptor(authInterceptor)}

	if cfg.TLS.Enabled() {
		tlsCfg, err := tlsutil.ServerConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to load gRPC TLS credentials: %w", err)
		}
		serverOpts = append(serverOpts, grpclib.Creds(credentials.NewTLS(tlsCfg)))
		logger.Info("gRPC TLS enabled", "cert", cfg.TLS.CertFile)
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}

	grpcServer := grpclib.NewServer(serverOpts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(healthServiceName, healthpb.HealthCheckResponse_SERVING)

	RegisterRiskServiceServer(grpcServer, handler)

	if cfg.Reflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
		address:    cfg.Address,
	}, nil
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("gRPC server starting", slog.String("address", listener.Addr().String()))
	return s.grpcServer.Serve(listener)
}

// Stop marks the service not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
