package server

import (
	"context"
	"log/slog"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func (s *DlpServer) CreateJobTrigger(ctx context.Context, req *dlppb.CreateJobTriggerRequest) (*dlppb.JobTrigger, error) {
	if err := checkParent(req.GetParent(), true); err != nil {
		return nil, err
	}
	if req.GetJobTrigger() == nil {
		return nil, status.Error(codes.InvalidArgument, "job_trigger is required")
	}
	name, err := childName(req.GetParent(), "jobTriggers", req.GetTriggerId(), "")
	if err != nil {
		return nil, err
	}

	trigger := req.GetJobTrigger()
	trigger.Name = name
	trigger.CreateTime = timestamppb.Now()
	trigger.UpdateTime = trigger.CreateTime
	trigger.Errors = nil
	trigger.LastRunTime = nil
	if trigger.Status == dlppb.JobTrigger_STATUS_UNSPECIFIED {
		trigger.Status = dlppb.JobTrigger_HEALTHY
	}
	if err := s.store.JobTriggers.Create(trigger); err != nil {
		return nil, storeError(err)
	}
	slog.Info("job trigger created", "name", name)
	return trigger, nil
}

func (s *DlpServer) GetJobTrigger(ctx context.Context, req *dlppb.GetJobTriggerRequest) (*dlppb.JobTrigger, error) {
	trigger, err := s.store.JobTriggers.Get(req.GetName())
	if err != nil {
		return nil, storeError(err)
	}
	return trigger, nil
}

func (s *DlpServer) UpdateJobTrigger(ctx context.Context, req *dlppb.UpdateJobTriggerRequest) (*dlppb.JobTrigger, error) {
	src := req.GetJobTrigger()
	if src == nil {
		return nil, status.Error(codes.InvalidArgument, "job_trigger is required")
	}
	trigger, err := s.store.JobTriggers.Update(req.GetName(), func(t *dlppb.JobTrigger) error {
		if err := applyMask(t, src, req.GetUpdateMask()); err != nil {
			return err
		}
		t.UpdateTime = timestamppb.Now()
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return trigger, nil
}

func (s *DlpServer) DeleteJobTrigger(ctx context.Context, req *dlppb.DeleteJobTriggerRequest) (*emptypb.Empty, error) {
	if err := s.store.JobTriggers.Delete(req.GetName()); err != nil {
		return nil, storeError(err)
	}
	slog.Info("job trigger deleted", "name", req.GetName())
	return &emptypb.Empty{}, nil
}

// ListJobTriggers supports filtering on status, e.g. "status=PAUSED".
func (s *DlpServer) ListJobTriggers(ctx context.Context, req *dlppb.ListJobTriggersRequest) (*dlppb.ListJobTriggersResponse, error) {
	if err := checkParent(req.GetParent(), true); err != nil {
		return nil, err
	}
	terms, err := parseFilter(req.GetFilter(), "status")
	if err != nil {
		return nil, err
	}

	items := s.store.JobTriggers.List(req.GetParent())
	if want, ok := terms["status"]; ok {
		v, known := dlppb.JobTrigger_Status_value[want]
		if !known {
			return nil, status.Errorf(codes.InvalidArgument, "unknown trigger status %q", want)
		}
		filtered := items[:0]
		for _, t := range items {
			if t.GetStatus() == dlppb.JobTrigger_Status(v) {
				filtered = append(filtered, t)
			}
		}
		items = filtered
	}

	if err := order(items, req.GetOrderBy(), (*dlppb.JobTrigger).GetCreateTime); err != nil {
		return nil, err
	}
	page, next, err := paginate(items, req.GetPageSize(), req.GetPageToken())
	if err != nil {
		return nil, err
	}
	return &dlppb.ListJobTriggersResponse{
		JobTriggers:   page,
		NextPageToken: next,
	}, nil
}
