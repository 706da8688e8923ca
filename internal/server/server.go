package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/executor"
	"github.com/mattkinnersley/cloud-dlp-hook/internal/state"
)

type Server struct {
	grpcServer *grpc.Server
	store      *state.Store
	runner     executor.Runner
}

func New(store *state.Store, runner executor.Runner) *Server {
	s := &Server{
		store:  store,
		runner: runner,
	}

	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.UnaryServerInterceptor(interceptorLogger(slog.Default()),
				logging.WithLogOnEvents(logging.FinishCall)),
		),
	)

	dlppb.RegisterDlpServiceServer(gs, &DlpServer{
		store:  store,
		runner: runner,
	})

	// Enable gRPC reflection for grpcurl and debugging
	reflection.Register(gs)

	s.grpcServer = gs
	return s
}

func (s *Server) Start(port string) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}

	slog.Info("starting gRPC server", "port", port)
	return s.grpcServer.Serve(lis)
}

// Serve starts the server on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func interceptorLogger(l *slog.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		l.Log(ctx, slog.Level(lvl), msg, fields...)
	})
}

// DlpServer serves the DLP API from an in-memory store.
type DlpServer struct {
	dlppb.UnimplementedDlpServiceServer
	store  *state.Store
	runner executor.Runner
}

// storeError maps store failures onto gRPC status codes. Errors that
// already carry a status pass through.
func storeError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, state.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, state.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
