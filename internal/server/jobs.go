package server

import (
	"context"
	"errors"
	"log/slog"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/state"
)

func (s *DlpServer) CreateDlpJob(ctx context.Context, req *dlppb.CreateDlpJobRequest) (*dlppb.DlpJob, error) {
	if err := checkParent(req.GetParent(), true); err != nil {
		return nil, err
	}

	job := &dlppb.DlpJob{
		State:      dlppb.DlpJob_PENDING,
		CreateTime: timestamppb.Now(),
	}
	prefix := ""
	switch {
	case req.GetInspectJob() != nil:
		cfg := req.GetInspectJob()
		options := &dlppb.InspectDataSourceDetails_RequestedOptions{JobConfig: cfg}
		if tmplName := cfg.GetInspectTemplateName(); tmplName != "" {
			tmpl, err := s.store.InspectTemplates.Get(tmplName)
			if err != nil {
				return nil, storeError(err)
			}
			options.SnapshotInspectTemplate = tmpl
		}
		job.Type = dlppb.DlpJobType_INSPECT_JOB
		job.Details = &dlppb.DlpJob_InspectDetails{
			InspectDetails: &dlppb.InspectDataSourceDetails{RequestedOptions: options},
		}
		prefix = "i-"
	case req.GetRiskJob() != nil:
		cfg := req.GetRiskJob()
		job.Type = dlppb.DlpJobType_RISK_ANALYSIS_JOB
		job.Details = &dlppb.DlpJob_RiskDetails{
			RiskDetails: &dlppb.AnalyzeDataSourceRiskDetails{
				RequestedPrivacyMetric: cfg.GetPrivacyMetric(),
				RequestedSourceTable:   cfg.GetSourceTable(),
			},
		}
		prefix = "r-"
	default:
		return nil, status.Error(codes.InvalidArgument, "one of inspect_job or risk_job is required")
	}

	name, err := childName(req.GetParent(), "dlpJobs", req.GetJobId(), prefix)
	if err != nil {
		return nil, err
	}
	job.Name = name
	if err := s.store.Jobs.Create(job); err != nil {
		return nil, storeError(err)
	}

	// Run asynchronously
	go s.runner.Run(name)

	slog.Info("job created", "name", name, "type", job.Type)
	return job, nil
}

func (s *DlpServer) GetDlpJob(ctx context.Context, req *dlppb.GetDlpJobRequest) (*dlppb.DlpJob, error) {
	job, err := s.store.Jobs.Get(req.GetName())
	if err != nil {
		return nil, storeError(err)
	}
	return job, nil
}

// ListDlpJobs lists jobs of one type, inspect jobs by default, and supports
// filtering on state and trigger_name.
func (s *DlpServer) ListDlpJobs(ctx context.Context, req *dlppb.ListDlpJobsRequest) (*dlppb.ListDlpJobsResponse, error) {
	if err := checkParent(req.GetParent(), true); err != nil {
		return nil, err
	}
	terms, err := parseFilter(req.GetFilter(), "state", "trigger_name")
	if err != nil {
		return nil, err
	}
	wantState := dlppb.DlpJob_JOB_STATE_UNSPECIFIED
	if v, ok := terms["state"]; ok {
		n, known := dlppb.DlpJob_JobState_value[v]
		if !known {
			return nil, status.Errorf(codes.InvalidArgument, "unknown job state %q", v)
		}
		wantState = dlppb.DlpJob_JobState(n)
	}
	wantType := req.GetType()
	if wantType == dlppb.DlpJobType_DLP_JOB_TYPE_UNSPECIFIED {
		wantType = dlppb.DlpJobType_INSPECT_JOB
	}

	items := s.store.Jobs.List(req.GetParent())
	filtered := items[:0]
	for _, j := range items {
		if j.GetType() != wantType {
			continue
		}
		if wantState != dlppb.DlpJob_JOB_STATE_UNSPECIFIED && j.GetState() != wantState {
			continue
		}
		if trigger, ok := terms["trigger_name"]; ok && state.LastSegment(j.GetJobTriggerName()) != trigger {
			continue
		}
		filtered = append(filtered, j)
	}

	if err := order(filtered, req.GetOrderBy(), (*dlppb.DlpJob).GetCreateTime); err != nil {
		return nil, err
	}
	page, next, err := paginate(filtered, req.GetPageSize(), req.GetPageToken())
	if err != nil {
		return nil, err
	}
	return &dlppb.ListDlpJobsResponse{
		Jobs:          page,
		NextPageToken: next,
	}, nil
}

func (s *DlpServer) CancelDlpJob(ctx context.Context, req *dlppb.CancelDlpJobRequest) (*emptypb.Empty, error) {
	if err := s.runner.Cancel(req.GetName()); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, storeError(err)
		}
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	slog.Info("job cancelled", "name", req.GetName())
	return &emptypb.Empty{}, nil
}

// DeleteDlpJob stops the job if it is still active before removing it.
func (s *DlpServer) DeleteDlpJob(ctx context.Context, req *dlppb.DeleteDlpJobRequest) (*emptypb.Empty, error) {
	job, err := s.store.Jobs.Get(req.GetName())
	if err != nil {
		return nil, storeError(err)
	}
	if job.GetState() == dlppb.DlpJob_PENDING || job.GetState() == dlppb.DlpJob_RUNNING {
		if err := s.runner.Cancel(req.GetName()); err != nil {
			slog.Warn("failed to cancel job before delete", "name", req.GetName(), "error", err)
		}
	}
	if err := s.store.Jobs.Delete(req.GetName()); err != nil {
		return nil, storeError(err)
	}
	slog.Info("job deleted", "name", req.GetName())
	return &emptypb.Empty{}, nil
}
