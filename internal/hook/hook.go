// Package hook forwards calls to the Cloud DLP v2 API.
//
// A Hook resolves the parent resource of every call (organization or
// project, falling back to a configured default project), builds the
// request message and delegates to a lazily dialed dlppb.DlpServiceClient.
package hook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/credentials/oauth"
)

const (
	// DefaultEndpoint is the production DLP API endpoint.
	DefaultEndpoint = "dlp.googleapis.com:443"

	// DefaultPollInterval is the sleep between job polls in CreateDlpJob.
	DefaultPollInterval = 60 * time.Second

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	userAgent          = "cloud-dlp-hook/1.0"
)

// Config describes how a Hook reaches the DLP API.
type Config struct {
	// Endpoint is the host:port of the DLP API. Empty means DefaultEndpoint.
	Endpoint string
	// Insecure disables TLS and credentials, for emulators.
	Insecure bool
	// ProjectID is the ambient default project used when a call names
	// neither an organization nor a project.
	ProjectID string
	// PollInterval overrides DefaultPollInterval when positive.
	PollInterval time.Duration
}

// Option customizes a Hook.
type Option func(*Hook)

// WithClient makes the hook use c instead of dialing.
func WithClient(c dlppb.DlpServiceClient) Option {
	return func(h *Hook) {
		h.client = c
		h.dialed = true
	}
}

// WithDialOptions appends extra options used when dialing.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(h *Hook) {
		h.dialOpts = append(h.dialOpts, opts...)
	}
}

// WithPollInterval sets the sleep between job polls.
func WithPollInterval(d time.Duration) Option {
	return func(h *Hook) {
		h.pollInterval = d
	}
}

// WithLogger sets the logger used for client-side call logging and job polling.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hook) {
		h.logger = l
	}
}

// Hook is a thin wrapper around the DLP service client.
type Hook struct {
	cfg          Config
	pollInterval time.Duration
	dialOpts     []grpc.DialOption
	logger       *slog.Logger

	once    sync.Once
	dialed  bool
	client  dlppb.DlpServiceClient
	conn    *grpc.ClientConn
	connErr error
}

// New returns a Hook. No connection is made until the first call.
func New(cfg Config, opts ...Option) *Hook {
	h := &Hook{
		cfg:          cfg,
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
	}
	if cfg.PollInterval > 0 {
		h.pollInterval = cfg.PollInterval
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ProjectID returns the default project of the hook.
func (h *Hook) ProjectID() string {
	return h.cfg.ProjectID
}

// Conn returns the memoized DLP client, dialing on first use.
func (h *Hook) Conn(ctx context.Context) (dlppb.DlpServiceClient, error) {
	h.once.Do(func() {
		if h.dialed {
			return
		}
		h.conn, h.connErr = h.dial(ctx)
		if h.connErr == nil {
			h.client = dlppb.NewDlpServiceClient(h.conn)
		}
	})
	return h.client, h.connErr
}

func (h *Hook) dial(ctx context.Context) (*grpc.ClientConn, error) {
	endpoint := h.cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	opts := []grpc.DialOption{
		grpc.WithUserAgent(userAgent),
		grpc.WithChainUnaryInterceptor(
			retry.UnaryClientInterceptor(),
			logging.UnaryClientInterceptor(interceptorLogger(h.logger), logging.WithLogOnEvents(logging.FinishCall)),
		),
	}
	if h.cfg.Insecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		perRPC, err := oauth.NewApplicationDefault(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("loading application default credentials: %w", err)
		}
		opts = append(opts,
			grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, "")),
			grpc.WithPerRPCCredentials(perRPC),
		)
	}
	opts = append(opts, h.dialOpts...)

	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	return conn, nil
}

// Close releases the underlying connection, if the hook dialed one.
func (h *Hook) Close() error {
	if h.conn == nil {
		return nil
	}
	return h.conn.Close()
}

// interceptorLogger adapts slog to the grpc middleware logger.
func interceptorLogger(l *slog.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		// Client calls are noisy; keep them at debug.
		if lvl < logging.LevelWarn {
			lvl = logging.LevelDebug
		}
		l.Log(ctx, slog.Level(lvl), msg, fields...)
	})
}
