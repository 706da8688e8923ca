package hook

import (
	"context"
	"sync"
	"testing"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	orgID        = "test-org"
	orgPath      = "organizations/" + orgID
	projectID    = "test-project"
	projectPath  = "projects/" + projectID
	jobID        = "job123"
	jobPath      = "projects/" + projectID + "/dlpJobs/" + jobID
	templateID   = "template123"
	infoTypeID   = "type123"
	triggerID    = "trigger123"
	triggerPath  = "projects/" + projectID + "/jobTriggers/" + triggerID
	defaultProj  = "default-project"
)

type recordedCall struct {
	method  string
	ctx     context.Context
	request proto.Message
	opts    []grpc.CallOption
}

// fakeClient records every call. Methods the hook never uses are left
// to the embedded nil interface and panic if reached.
type fakeClient struct {
	dlppb.DlpServiceClient

	mu        sync.Mutex
	calls     []recordedCall
	responses map[string][]proto.Message
	errs      map[string]error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		responses: make(map[string][]proto.Message),
		errs:      make(map[string]error),
	}
}

// respond queues responses for method; the last one is repeated.
func (f *fakeClient) respond(method string, msgs ...proto.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method] = append(f.responses[method], msgs...)
}

func (f *fakeClient) fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

func (f *fakeClient) record(ctx context.Context, method string, req proto.Message, opts []grpc.CallOption) (proto.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{method: method, ctx: ctx, request: proto.Clone(req), opts: opts})
	if err := f.errs[method]; err != nil {
		return nil, err
	}
	queue := f.responses[method]
	switch len(queue) {
	case 0:
		return nil, nil
	case 1:
		return queue[0], nil
	}
	f.responses[method] = queue[1:]
	return queue[0], nil
}

func (f *fakeClient) callsTo(method string) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// onlyCall asserts method was called exactly once and returns the call.
func (f *fakeClient) onlyCall(t *testing.T, method string) recordedCall {
	t.Helper()
	calls := f.callsTo(method)
	require.Len(t, calls, 1, "calls to %s", method)
	return calls[0]
}

func requireRequest(t *testing.T, want proto.Message, got recordedCall) {
	t.Helper()
	require.Truef(t, proto.Equal(want, got.request),
		"%s request mismatch\nwant: %s\ngot:  %s", got.method, prototext.Format(want), prototext.Format(got.request))
}

func as[T proto.Message](m proto.Message, err error) (T, error) {
	var zero T
	if m == nil {
		return zero, err
	}
	return m.(T), err
}

func (f *fakeClient) CreateDeidentifyTemplate(ctx context.Context, in *dlppb.CreateDeidentifyTemplateRequest, opts ...grpc.CallOption) (*dlppb.DeidentifyTemplate, error) {
	return as[*dlppb.DeidentifyTemplate](f.record(ctx, "CreateDeidentifyTemplate", in, opts))
}

func (f *fakeClient) GetDeidentifyTemplate(ctx context.Context, in *dlppb.GetDeidentifyTemplateRequest, opts ...grpc.CallOption) (*dlppb.DeidentifyTemplate, error) {
	return as[*dlppb.DeidentifyTemplate](f.record(ctx, "GetDeidentifyTemplate", in, opts))
}

func (f *fakeClient) UpdateDeidentifyTemplate(ctx context.Context, in *dlppb.UpdateDeidentifyTemplateRequest, opts ...grpc.CallOption) (*dlppb.DeidentifyTemplate, error) {
	return as[*dlppb.DeidentifyTemplate](f.record(ctx, "UpdateDeidentifyTemplate", in, opts))
}

func (f *fakeClient) DeleteDeidentifyTemplate(ctx context.Context, in *dlppb.DeleteDeidentifyTemplateRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return as[*emptypb.Empty](f.record(ctx, "DeleteDeidentifyTemplate", in, opts))
}

func (f *fakeClient) ListDeidentifyTemplates(ctx context.Context, in *dlppb.ListDeidentifyTemplatesRequest, opts ...grpc.CallOption) (*dlppb.ListDeidentifyTemplatesResponse, error) {
	return as[*dlppb.ListDeidentifyTemplatesResponse](f.record(ctx, "ListDeidentifyTemplates", in, opts))
}

func (f *fakeClient) CreateInspectTemplate(ctx context.Context, in *dlppb.CreateInspectTemplateRequest, opts ...grpc.CallOption) (*dlppb.InspectTemplate, error) {
	return as[*dlppb.InspectTemplate](f.record(ctx, "CreateInspectTemplate", in, opts))
}

func (f *fakeClient) GetInspectTemplate(ctx context.Context, in *dlppb.GetInspectTemplateRequest, opts ...grpc.CallOption) (*dlppb.InspectTemplate, error) {
	return as[*dlppb.InspectTemplate](f.record(ctx, "GetInspectTemplate", in, opts))
}

func (f *fakeClient) UpdateInspectTemplate(ctx context.Context, in *dlppb.UpdateInspectTemplateRequest, opts ...grpc.CallOption) (*dlppb.InspectTemplate, error) {
	return as[*dlppb.InspectTemplate](f.record(ctx, "UpdateInspectTemplate", in, opts))
}

func (f *fakeClient) DeleteInspectTemplate(ctx context.Context, in *dlppb.DeleteInspectTemplateRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return as[*emptypb.Empty](f.record(ctx, "DeleteInspectTemplate", in, opts))
}

func (f *fakeClient) ListInspectTemplates(ctx context.Context, in *dlppb.ListInspectTemplatesRequest, opts ...grpc.CallOption) (*dlppb.ListInspectTemplatesResponse, error) {
	return as[*dlppb.ListInspectTemplatesResponse](f.record(ctx, "ListInspectTemplates", in, opts))
}

func (f *fakeClient) CreateStoredInfoType(ctx context.Context, in *dlppb.CreateStoredInfoTypeRequest, opts ...grpc.CallOption) (*dlppb.StoredInfoType, error) {
	return as[*dlppb.StoredInfoType](f.record(ctx, "CreateStoredInfoType", in, opts))
}

func (f *fakeClient) GetStoredInfoType(ctx context.Context, in *dlppb.GetStoredInfoTypeRequest, opts ...grpc.CallOption) (*dlppb.StoredInfoType, error) {
	return as[*dlppb.StoredInfoType](f.record(ctx, "GetStoredInfoType", in, opts))
}

func (f *fakeClient) UpdateStoredInfoType(ctx context.Context, in *dlppb.UpdateStoredInfoTypeRequest, opts ...grpc.CallOption) (*dlppb.StoredInfoType, error) {
	return as[*dlppb.StoredInfoType](f.record(ctx, "UpdateStoredInfoType", in, opts))
}

func (f *fakeClient) DeleteStoredInfoType(ctx context.Context, in *dlppb.DeleteStoredInfoTypeRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return as[*emptypb.Empty](f.record(ctx, "DeleteStoredInfoType", in, opts))
}

func (f *fakeClient) ListStoredInfoTypes(ctx context.Context, in *dlppb.ListStoredInfoTypesRequest, opts ...grpc.CallOption) (*dlppb.ListStoredInfoTypesResponse, error) {
	return as[*dlppb.ListStoredInfoTypesResponse](f.record(ctx, "ListStoredInfoTypes", in, opts))
}

func (f *fakeClient) CreateJobTrigger(ctx context.Context, in *dlppb.CreateJobTriggerRequest, opts ...grpc.CallOption) (*dlppb.JobTrigger, error) {
	return as[*dlppb.JobTrigger](f.record(ctx, "CreateJobTrigger", in, opts))
}

func (f *fakeClient) GetJobTrigger(ctx context.Context, in *dlppb.GetJobTriggerRequest, opts ...grpc.CallOption) (*dlppb.JobTrigger, error) {
	return as[*dlppb.JobTrigger](f.record(ctx, "GetJobTrigger", in, opts))
}

func (f *fakeClient) UpdateJobTrigger(ctx context.Context, in *dlppb.UpdateJobTriggerRequest, opts ...grpc.CallOption) (*dlppb.JobTrigger, error) {
	return as[*dlppb.JobTrigger](f.record(ctx, "UpdateJobTrigger", in, opts))
}

func (f *fakeClient) DeleteJobTrigger(ctx context.Context, in *dlppb.DeleteJobTriggerRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return as[*emptypb.Empty](f.record(ctx, "DeleteJobTrigger", in, opts))
}

func (f *fakeClient) ListJobTriggers(ctx context.Context, in *dlppb.ListJobTriggersRequest, opts ...grpc.CallOption) (*dlppb.ListJobTriggersResponse, error) {
	return as[*dlppb.ListJobTriggersResponse](f.record(ctx, "ListJobTriggers", in, opts))
}

func (f *fakeClient) CreateDlpJob(ctx context.Context, in *dlppb.CreateDlpJobRequest, opts ...grpc.CallOption) (*dlppb.DlpJob, error) {
	return as[*dlppb.DlpJob](f.record(ctx, "CreateDlpJob", in, opts))
}

func (f *fakeClient) GetDlpJob(ctx context.Context, in *dlppb.GetDlpJobRequest, opts ...grpc.CallOption) (*dlppb.DlpJob, error) {
	return as[*dlppb.DlpJob](f.record(ctx, "GetDlpJob", in, opts))
}

func (f *fakeClient) CancelDlpJob(ctx context.Context, in *dlppb.CancelDlpJobRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return as[*emptypb.Empty](f.record(ctx, "CancelDlpJob", in, opts))
}

func (f *fakeClient) DeleteDlpJob(ctx context.Context, in *dlppb.DeleteDlpJobRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return as[*emptypb.Empty](f.record(ctx, "DeleteDlpJob", in, opts))
}

func (f *fakeClient) ListDlpJobs(ctx context.Context, in *dlppb.ListDlpJobsRequest, opts ...grpc.CallOption) (*dlppb.ListDlpJobsResponse, error) {
	return as[*dlppb.ListDlpJobsResponse](f.record(ctx, "ListDlpJobs", in, opts))
}

func (f *fakeClient) InspectContent(ctx context.Context, in *dlppb.InspectContentRequest, opts ...grpc.CallOption) (*dlppb.InspectContentResponse, error) {
	return as[*dlppb.InspectContentResponse](f.record(ctx, "InspectContent", in, opts))
}

func (f *fakeClient) DeidentifyContent(ctx context.Context, in *dlppb.DeidentifyContentRequest, opts ...grpc.CallOption) (*dlppb.DeidentifyContentResponse, error) {
	return as[*dlppb.DeidentifyContentResponse](f.record(ctx, "DeidentifyContent", in, opts))
}

func (f *fakeClient) ReidentifyContent(ctx context.Context, in *dlppb.ReidentifyContentRequest, opts ...grpc.CallOption) (*dlppb.ReidentifyContentResponse, error) {
	return as[*dlppb.ReidentifyContentResponse](f.record(ctx, "ReidentifyContent", in, opts))
}

func (f *fakeClient) RedactImage(ctx context.Context, in *dlppb.RedactImageRequest, opts ...grpc.CallOption) (*dlppb.RedactImageResponse, error) {
	return as[*dlppb.RedactImageResponse](f.record(ctx, "RedactImage", in, opts))
}

func (f *fakeClient) ListInfoTypes(ctx context.Context, in *dlppb.ListInfoTypesRequest, opts ...grpc.CallOption) (*dlppb.ListInfoTypesResponse, error) {
	return as[*dlppb.ListInfoTypesResponse](f.record(ctx, "ListInfoTypes", in, opts))
}
