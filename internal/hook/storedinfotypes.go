package hook

import (
	"context"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
)

// CreateStoredInfoType creates a stored info type under the resolved parent.
func (h *Hook) CreateStoredInfoType(ctx context.Context, p Parent, config *dlppb.StoredInfoTypeConfig, storedInfoTypeID string, opts ...CallOption) (*dlppb.StoredInfoType, error) {
	parent, err := h.resolve("CreateStoredInfoType", p)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.CreateStoredInfoTypeRequest{
		Parent:           parent,
		Config:           config,
		StoredInfoTypeId: storedInfoTypeID,
	}, client.CreateStoredInfoType)
}

// GetStoredInfoType fetches {parent}/storedInfoTypes/{storedInfoTypeID}.
func (h *Hook) GetStoredInfoType(ctx context.Context, storedInfoTypeID string, p Parent, opts ...CallOption) (*dlppb.StoredInfoType, error) {
	name, client, err := h.named(ctx, "GetStoredInfoType", "storedInfoTypeID", storedInfoTypeID, p, storedInfoTypes)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.GetStoredInfoTypeRequest{Name: name}, client.GetStoredInfoType)
}

// UpdateStoredInfoType replaces the config of a stored info type,
// which starts building a new version.
func (h *Hook) UpdateStoredInfoType(ctx context.Context, storedInfoTypeID string, p Parent, config *dlppb.StoredInfoTypeConfig, mask *fieldmaskpb.FieldMask, opts ...CallOption) (*dlppb.StoredInfoType, error) {
	name, client, err := h.named(ctx, "UpdateStoredInfoType", "storedInfoTypeID", storedInfoTypeID, p, storedInfoTypes)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.UpdateStoredInfoTypeRequest{
		Name:       name,
		Config:     config,
		UpdateMask: mask,
	}, client.UpdateStoredInfoType)
}

// DeleteStoredInfoType deletes a stored info type.
func (h *Hook) DeleteStoredInfoType(ctx context.Context, storedInfoTypeID string, p Parent, opts ...CallOption) error {
	name, client, err := h.named(ctx, "DeleteStoredInfoType", "storedInfoTypeID", storedInfoTypeID, p, storedInfoTypes)
	if err != nil {
		return err
	}
	_, err = invoke(ctx, opts, &dlppb.DeleteStoredInfoTypeRequest{Name: name}, client.DeleteStoredInfoType)
	return err
}

// ListStoredInfoTypes returns every stored info type under the parent.
func (h *Hook) ListStoredInfoTypes(ctx context.Context, p Parent, lo ListOptions, opts ...CallOption) ([]*dlppb.StoredInfoType, error) {
	parent, err := h.resolve("ListStoredInfoTypes", p)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	req := &dlppb.ListStoredInfoTypesRequest{
		Parent:   parent,
		PageSize: lo.PageSize,
		OrderBy:  lo.OrderBy,
	}
	return collect(func(token string) (*dlppb.ListStoredInfoTypesResponse, error) {
		req.PageToken = token
		return invoke(ctx, opts, req, client.ListStoredInfoTypes)
	}, (*dlppb.ListStoredInfoTypesResponse).GetStoredInfoTypes)
}
