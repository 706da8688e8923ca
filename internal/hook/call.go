package hook

import (
	"context"
	"time"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
)

// RetryPolicy controls how a call is retried on transient failures.
// MaxAttempts counts the first attempt; 1 disables retries.
type RetryPolicy struct {
	MaxAttempts uint
	Backoff     time.Duration
	Codes       []codes.Code
}

// DefaultRetryPolicy is applied to every call unless WithRetry overrides it.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	Backoff:     100 * time.Millisecond,
	Codes:       []codes.Code{codes.Unavailable, codes.DeadlineExceeded},
}

func (p RetryPolicy) callOptions() []grpc.CallOption {
	return []grpc.CallOption{
		retry.WithMax(p.MaxAttempts),
		retry.WithBackoff(retry.BackoffExponential(p.Backoff)),
		retry.WithCodes(p.Codes...),
	}
}

// CallOption overrides the envelope of a single call.
type CallOption func(*callSettings)

type callSettings struct {
	retry    RetryPolicy
	timeout  time.Duration
	metadata metadata.MD
}

// WithRetry replaces the retry policy of a call.
func WithRetry(p RetryPolicy) CallOption {
	return func(s *callSettings) {
		s.retry = p
	}
}

// WithTimeout bounds a call. Zero means no timeout.
func WithTimeout(d time.Duration) CallOption {
	return func(s *callSettings) {
		s.timeout = d
	}
}

// WithMetadata attaches key/value pairs to the outgoing call.
func WithMetadata(kv ...string) CallOption {
	return func(s *callSettings) {
		s.metadata = metadata.Join(s.metadata, metadata.Pairs(kv...))
	}
}

// envelope applies opts to ctx. The returned cancel func must be called
// once the call returns.
func envelope(ctx context.Context, opts []CallOption) (context.Context, context.CancelFunc, []grpc.CallOption) {
	s := callSettings{retry: DefaultRetryPolicy}
	for _, opt := range opts {
		opt(&s)
	}

	cancel := context.CancelFunc(func() {})
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	for k, vs := range s.metadata {
		for _, v := range vs {
			ctx = metadata.AppendToOutgoingContext(ctx, k, v)
		}
	}
	return ctx, cancel, s.retry.callOptions()
}

// invoke runs one delegate call with the resolved envelope.
func invoke[Req, Resp any](ctx context.Context, opts []CallOption, req Req, call func(context.Context, Req, ...grpc.CallOption) (Resp, error)) (Resp, error) {
	ctx, cancel, callOpts := envelope(ctx, opts)
	defer cancel()
	return call(ctx, req, callOpts...)
}

type pageResponse interface {
	GetNextPageToken() string
}

// collect follows next_page_token until exhausted. The result is never nil.
func collect[T any, R pageResponse](fetch func(pageToken string) (R, error), items func(R) []T) ([]T, error) {
	out := make([]T, 0)
	token := ""
	for {
		resp, err := fetch(token)
		if err != nil {
			return nil, err
		}
		out = append(out, items(resp)...)
		token = resp.GetNextPageToken()
		if token == "" {
			return out, nil
		}
	}
}

// ListOptions are the optional inputs of the List methods. Filter
// applies to job triggers and jobs; JobType applies to jobs only.
type ListOptions struct {
	PageSize int32
	OrderBy  string
	Filter   string
	JobType  dlppb.DlpJobType
}
