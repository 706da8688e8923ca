package hook

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/executor"
	"github.com/mattkinnersley/cloud-dlp-hook/internal/server"
	"github.com/mattkinnersley/cloud-dlp-hook/internal/state"
)

func startEmulator(t *testing.T, store *state.Store) string {
	t.Helper()
	srv := server.New(store, executor.NewSimulatedExecutor(store, 0, time.Hour))
	lis, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func dialEmulator(t *testing.T, addr string) *Hook {
	t.Helper()
	h := New(Config{Endpoint: addr, Insecure: true, ProjectID: projectID, PollInterval: 10 * time.Millisecond})
	t.Cleanup(func() { h.Close() })
	return h
}

func TestEmulatorTemplateRoundTrip(t *testing.T) {
	h := dialEmulator(t, startEmulator(t, state.NewStore()))
	ctx := context.Background()

	created, err := h.CreateInspectTemplate(ctx, Parent{}, &dlppb.InspectTemplate{DisplayName: "PII"}, templateID)
	require.NoError(t, err)
	assert.Equal(t, "projects/test-project/inspectTemplates/template123", created.GetName())

	got, err := h.GetInspectTemplate(ctx, templateID, Parent{})
	require.NoError(t, err)
	assert.Equal(t, "PII", got.GetDisplayName())

	list, err := h.ListInspectTemplates(ctx, Parent{}, ListOptions{PageSize: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, h.DeleteInspectTemplate(ctx, templateID, Parent{}))
	_, err = h.GetInspectTemplate(ctx, templateID, Parent{})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestEmulatorCreateDlpJobWaits(t *testing.T) {
	h := dialEmulator(t, startEmulator(t, state.NewStore()))

	job, err := h.CreateDlpJob(context.Background(), "", JobSpec{
		InspectJob: &dlppb.InspectJobConfig{
			StorageConfig: &dlppb.StorageConfig{
				Type: &dlppb.StorageConfig_DatastoreOptions{DatastoreOptions: &dlppb.DatastoreOptions{}},
			},
		},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, dlppb.DlpJob_RUNNING, job.GetState())
}

func TestEmulatorListDrainsPages(t *testing.T) {
	store := state.NewStore()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		store.Jobs.Save(&dlppb.DlpJob{Name: projectPath + "/dlpJobs/" + id, Type: dlppb.DlpJobType_INSPECT_JOB})
	}
	h := dialEmulator(t, startEmulator(t, store))

	jobs, err := h.ListDlpJobs(context.Background(), "", ListOptions{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, jobs, 5)
}

// flakyServer fails GetDlpJob with Unavailable a fixed number of times.
type flakyServer struct {
	dlppb.UnimplementedDlpServiceServer
	failures int32
	calls    atomic.Int32
}

func (s *flakyServer) GetDlpJob(ctx context.Context, req *dlppb.GetDlpJobRequest) (*dlppb.DlpJob, error) {
	if s.calls.Add(1) <= s.failures {
		return nil, status.Error(codes.Unavailable, "try again")
	}
	return &dlppb.DlpJob{Name: req.GetName(), State: dlppb.DlpJob_DONE}, nil
}

func startFlaky(t *testing.T, failures int32) (*flakyServer, string) {
	t.Helper()
	fs := &flakyServer{failures: failures}
	gs := grpc.NewServer()
	dlppb.RegisterDlpServiceServer(gs, fs)
	lis, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)
	return fs, lis.Addr().String()
}

func TestRetryRecoversFromUnavailable(t *testing.T) {
	fs, addr := startFlaky(t, 2)
	h := dialEmulator(t, addr)
	fast := RetryPolicy{MaxAttempts: 5, Backoff: time.Millisecond, Codes: DefaultRetryPolicy.Codes}

	job, err := h.GetDlpJob(context.Background(), jobID, "", WithRetry(fast))
	require.NoError(t, err)
	assert.Equal(t, dlppb.DlpJob_DONE, job.GetState())
	assert.Equal(t, int32(3), fs.calls.Load())
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	fs, addr := startFlaky(t, 10)
	h := dialEmulator(t, addr)

	_, err := h.GetDlpJob(context.Background(), jobID, "", WithRetry(RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond, Codes: []codes.Code{codes.Unavailable}}))
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, int32(2), fs.calls.Load())
}

func TestRetryDisabled(t *testing.T) {
	fs, addr := startFlaky(t, 1)
	h := dialEmulator(t, addr)

	_, err := h.GetDlpJob(context.Background(), jobID, "", WithRetry(RetryPolicy{MaxAttempts: 1}))
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, int32(1), fs.calls.Load())
}

func TestDefaultRetryPolicyIsUsedWithoutOverride(t *testing.T) {
	assert.Equal(t, uint(5), DefaultRetryPolicy.MaxAttempts)
	assert.ElementsMatch(t, []codes.Code{codes.Unavailable, codes.DeadlineExceeded}, DefaultRetryPolicy.Codes)

	fs, addr := startFlaky(t, 2)
	h := dialEmulator(t, addr)

	job, err := h.GetDlpJob(context.Background(), jobID, "")
	require.NoError(t, err)
	assert.Equal(t, dlppb.DlpJob_DONE, job.GetState())
	assert.Equal(t, int32(3), fs.calls.Load())
}

func TestDefaultRetryPolicyGivesUpAfterFiveAttempts(t *testing.T) {
	fs, addr := startFlaky(t, 100)
	h := dialEmulator(t, addr)

	_, err := h.GetDlpJob(context.Background(), jobID, "")
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, int32(DefaultRetryPolicy.MaxAttempts), fs.calls.Load())
}

func TestHookReportsDefaultProject(t *testing.T) {
	h := New(Config{ProjectID: projectID})
	assert.Equal(t, projectID, h.ProjectID())
}
