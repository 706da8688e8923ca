package hook

import (
	"context"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
)

// Job triggers live under projects only.

// CreateJobTrigger creates a job trigger in the project.
func (h *Hook) CreateJobTrigger(ctx context.Context, projectID string, trigger *dlppb.JobTrigger, triggerID string, opts ...CallOption) (*dlppb.JobTrigger, error) {
	parent, err := h.resolveProject("CreateJobTrigger", projectID)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.CreateJobTriggerRequest{
		Parent:     parent,
		JobTrigger: trigger,
		TriggerId:  triggerID,
	}, client.CreateJobTrigger)
}

// GetJobTrigger fetches projects/{project}/jobTriggers/{triggerID}.
func (h *Hook) GetJobTrigger(ctx context.Context, triggerID, projectID string, opts ...CallOption) (*dlppb.JobTrigger, error) {
	name, client, err := h.named(ctx, "GetJobTrigger", "triggerID", triggerID, Project(projectID), jobTriggers)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.GetJobTriggerRequest{Name: name}, client.GetJobTrigger)
}

// UpdateJobTrigger patches a job trigger.
func (h *Hook) UpdateJobTrigger(ctx context.Context, triggerID, projectID string, trigger *dlppb.JobTrigger, mask *fieldmaskpb.FieldMask, opts ...CallOption) (*dlppb.JobTrigger, error) {
	name, client, err := h.named(ctx, "UpdateJobTrigger", "triggerID", triggerID, Project(projectID), jobTriggers)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.UpdateJobTriggerRequest{
		Name:       name,
		JobTrigger: trigger,
		UpdateMask: mask,
	}, client.UpdateJobTrigger)
}

// DeleteJobTrigger deletes a job trigger.
func (h *Hook) DeleteJobTrigger(ctx context.Context, triggerID, projectID string, opts ...CallOption) error {
	name, client, err := h.named(ctx, "DeleteJobTrigger", "triggerID", triggerID, Project(projectID), jobTriggers)
	if err != nil {
		return err
	}
	_, err = invoke(ctx, opts, &dlppb.DeleteJobTriggerRequest{Name: name}, client.DeleteJobTrigger)
	return err
}

// ListJobTriggers returns every job trigger in the project matching lo.Filter.
func (h *Hook) ListJobTriggers(ctx context.Context, projectID string, lo ListOptions, opts ...CallOption) ([]*dlppb.JobTrigger, error) {
	parent, err := h.resolveProject("ListJobTriggers", projectID)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	req := &dlppb.ListJobTriggersRequest{
		Parent:   parent,
		PageSize: lo.PageSize,
		OrderBy:  lo.OrderBy,
		Filter:   lo.Filter,
	}
	return collect(func(token string) (*dlppb.ListJobTriggersResponse, error) {
		req.PageToken = token
		return invoke(ctx, opts, req, client.ListJobTriggers)
	}, (*dlppb.ListJobTriggersResponse).GetJobTriggers)
}
