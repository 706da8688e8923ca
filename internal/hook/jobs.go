package hook

import (
	"context"
	"time"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
)

// JobSpec describes a DLP job to create. At most one of InspectJob and
// RiskJob may be set. An empty JobID lets the service pick one.
type JobSpec struct {
	InspectJob *dlppb.InspectJobConfig
	RiskJob    *dlppb.RiskAnalysisJobConfig
	JobID      string
}

// CreateDlpJob starts a DLP job in the project. When waitUntilFinished
// is set, it polls the job until it leaves PENDING and returns the last
// fetched job. Polling has no attempt cap; bound it with ctx.
func (h *Hook) CreateDlpJob(ctx context.Context, projectID string, spec JobSpec, waitUntilFinished bool, opts ...CallOption) (*dlppb.DlpJob, error) {
	if spec.InspectJob != nil && spec.RiskJob != nil {
		return nil, &PreconditionError{Op: "CreateDlpJob", Field: "spec", Err: ErrConflictingJobConfig}
	}
	parent, err := h.resolveProject("CreateDlpJob", projectID)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}

	req := &dlppb.CreateDlpJobRequest{
		Parent: parent,
		JobId:  spec.JobID,
	}
	switch {
	case spec.InspectJob != nil:
		req.Job = &dlppb.CreateDlpJobRequest_InspectJob{InspectJob: spec.InspectJob}
	case spec.RiskJob != nil:
		req.Job = &dlppb.CreateDlpJobRequest_RiskJob{RiskJob: spec.RiskJob}
	}

	job, err := invoke(ctx, opts, req, client.CreateDlpJob)
	if err != nil || !waitUntilFinished {
		return job, err
	}
	return h.waitForJob(ctx, projectID, job, opts)
}

// waitForJob polls job until its state is anything but PENDING.
func (h *Hook) waitForJob(ctx context.Context, projectID string, job *dlppb.DlpJob, opts []CallOption) (*dlppb.DlpJob, error) {
	jobID, err := jobIDFromName(job.GetName())
	if err != nil {
		return nil, err
	}
	logger := h.logger.With("job", job.GetName())

	for {
		job, err = h.GetDlpJob(ctx, jobID, projectID, opts...)
		if err != nil {
			return nil, err
		}
		logger.Debug("polled DLP job", "state", job.GetState().String())
		if job.GetState() != dlppb.DlpJob_PENDING {
			return job, nil
		}

		t := time.NewTimer(h.pollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// GetDlpJob fetches projects/{project}/dlpJobs/{jobID}.
func (h *Hook) GetDlpJob(ctx context.Context, jobID, projectID string, opts ...CallOption) (*dlppb.DlpJob, error) {
	name, client, err := h.named(ctx, "GetDlpJob", "jobID", jobID, Project(projectID), dlpJobs)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.GetDlpJobRequest{Name: name}, client.GetDlpJob)
}

// CancelDlpJob asks the service to stop a running job.
func (h *Hook) CancelDlpJob(ctx context.Context, jobID, projectID string, opts ...CallOption) error {
	name, client, err := h.named(ctx, "CancelDlpJob", "jobID", jobID, Project(projectID), dlpJobs)
	if err != nil {
		return err
	}
	_, err = invoke(ctx, opts, &dlppb.CancelDlpJobRequest{Name: name}, client.CancelDlpJob)
	return err
}

// DeleteDlpJob deletes a job and its results.
func (h *Hook) DeleteDlpJob(ctx context.Context, jobID, projectID string, opts ...CallOption) error {
	name, client, err := h.named(ctx, "DeleteDlpJob", "jobID", jobID, Project(projectID), dlpJobs)
	if err != nil {
		return err
	}
	_, err = invoke(ctx, opts, &dlppb.DeleteDlpJobRequest{Name: name}, client.DeleteDlpJob)
	return err
}

// ListDlpJobs returns every job in the project matching lo.
func (h *Hook) ListDlpJobs(ctx context.Context, projectID string, lo ListOptions, opts ...CallOption) ([]*dlppb.DlpJob, error) {
	parent, err := h.resolveProject("ListDlpJobs", projectID)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	req := &dlppb.ListDlpJobsRequest{
		Parent:   parent,
		Filter:   lo.Filter,
		PageSize: lo.PageSize,
		Type:     lo.JobType,
		OrderBy:  lo.OrderBy,
	}
	return collect(func(token string) (*dlppb.ListDlpJobsResponse, error) {
		req.PageToken = token
		return invoke(ctx, opts, req, client.ListDlpJobs)
	}, (*dlppb.ListDlpJobsResponse).GetJobs)
}
