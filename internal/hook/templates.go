package hook

import (
	"context"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
)

// CreateDeidentifyTemplate creates a deidentify template under the
// resolved parent. An empty templateID lets the service pick one.
func (h *Hook) CreateDeidentifyTemplate(ctx context.Context, p Parent, template *dlppb.DeidentifyTemplate, templateID string, opts ...CallOption) (*dlppb.DeidentifyTemplate, error) {
	parent, err := h.resolve("CreateDeidentifyTemplate", p)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.CreateDeidentifyTemplateRequest{
		Parent:             parent,
		DeidentifyTemplate: template,
		TemplateId:         templateID,
	}, client.CreateDeidentifyTemplate)
}

// GetDeidentifyTemplate fetches {parent}/deidentifyTemplates/{templateID}.
func (h *Hook) GetDeidentifyTemplate(ctx context.Context, templateID string, p Parent, opts ...CallOption) (*dlppb.DeidentifyTemplate, error) {
	name, client, err := h.named(ctx, "GetDeidentifyTemplate", "templateID", templateID, p, deidentifyTemplates)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.GetDeidentifyTemplateRequest{Name: name}, client.GetDeidentifyTemplate)
}

// UpdateDeidentifyTemplate patches a deidentify template. A nil mask
// replaces every updatable field.
func (h *Hook) UpdateDeidentifyTemplate(ctx context.Context, templateID string, p Parent, template *dlppb.DeidentifyTemplate, mask *fieldmaskpb.FieldMask, opts ...CallOption) (*dlppb.DeidentifyTemplate, error) {
	name, client, err := h.named(ctx, "UpdateDeidentifyTemplate", "templateID", templateID, p, deidentifyTemplates)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.UpdateDeidentifyTemplateRequest{
		Name:               name,
		DeidentifyTemplate: template,
		UpdateMask:         mask,
	}, client.UpdateDeidentifyTemplate)
}

// DeleteDeidentifyTemplate deletes a deidentify template.
func (h *Hook) DeleteDeidentifyTemplate(ctx context.Context, templateID string, p Parent, opts ...CallOption) error {
	name, client, err := h.named(ctx, "DeleteDeidentifyTemplate", "templateID", templateID, p, deidentifyTemplates)
	if err != nil {
		return err
	}
	_, err = invoke(ctx, opts, &dlppb.DeleteDeidentifyTemplateRequest{Name: name}, client.DeleteDeidentifyTemplate)
	return err
}

// ListDeidentifyTemplates returns every deidentify template under the parent.
func (h *Hook) ListDeidentifyTemplates(ctx context.Context, p Parent, lo ListOptions, opts ...CallOption) ([]*dlppb.DeidentifyTemplate, error) {
	parent, err := h.resolve("ListDeidentifyTemplates", p)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	req := &dlppb.ListDeidentifyTemplatesRequest{
		Parent:   parent,
		PageSize: lo.PageSize,
		OrderBy:  lo.OrderBy,
	}
	return collect(func(token string) (*dlppb.ListDeidentifyTemplatesResponse, error) {
		req.PageToken = token
		return invoke(ctx, opts, req, client.ListDeidentifyTemplates)
	}, (*dlppb.ListDeidentifyTemplatesResponse).GetDeidentifyTemplates)
}

// CreateInspectTemplate creates an inspect template under the resolved parent.
func (h *Hook) CreateInspectTemplate(ctx context.Context, p Parent, template *dlppb.InspectTemplate, templateID string, opts ...CallOption) (*dlppb.InspectTemplate, error) {
	parent, err := h.resolve("CreateInspectTemplate", p)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.CreateInspectTemplateRequest{
		Parent:          parent,
		InspectTemplate: template,
		TemplateId:      templateID,
	}, client.CreateInspectTemplate)
}

// GetInspectTemplate fetches {parent}/inspectTemplates/{templateID}.
func (h *Hook) GetInspectTemplate(ctx context.Context, templateID string, p Parent, opts ...CallOption) (*dlppb.InspectTemplate, error) {
	name, client, err := h.named(ctx, "GetInspectTemplate", "templateID", templateID, p, inspectTemplates)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.GetInspectTemplateRequest{Name: name}, client.GetInspectTemplate)
}

// UpdateInspectTemplate patches an inspect template.
func (h *Hook) UpdateInspectTemplate(ctx context.Context, templateID string, p Parent, template *dlppb.InspectTemplate, mask *fieldmaskpb.FieldMask, opts ...CallOption) (*dlppb.InspectTemplate, error) {
	name, client, err := h.named(ctx, "UpdateInspectTemplate", "templateID", templateID, p, inspectTemplates)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.UpdateInspectTemplateRequest{
		Name:            name,
		InspectTemplate: template,
		UpdateMask:      mask,
	}, client.UpdateInspectTemplate)
}

// DeleteInspectTemplate deletes an inspect template.
func (h *Hook) DeleteInspectTemplate(ctx context.Context, templateID string, p Parent, opts ...CallOption) error {
	name, client, err := h.named(ctx, "DeleteInspectTemplate", "templateID", templateID, p, inspectTemplates)
	if err != nil {
		return err
	}
	_, err = invoke(ctx, opts, &dlppb.DeleteInspectTemplateRequest{Name: name}, client.DeleteInspectTemplate)
	return err
}

// ListInspectTemplates returns every inspect template under the parent.
func (h *Hook) ListInspectTemplates(ctx context.Context, p Parent, lo ListOptions, opts ...CallOption) ([]*dlppb.InspectTemplate, error) {
	parent, err := h.resolve("ListInspectTemplates", p)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	req := &dlppb.ListInspectTemplatesRequest{
		Parent:   parent,
		PageSize: lo.PageSize,
		OrderBy:  lo.OrderBy,
	}
	return collect(func(token string) (*dlppb.ListInspectTemplatesResponse, error) {
		req.PageToken = token
		return invoke(ctx, opts, req, client.ListInspectTemplates)
	}, (*dlppb.ListInspectTemplatesResponse).GetInspectTemplates)
}

// named validates id, resolves the parent and returns the resource name
// together with the client. It is the common prologue of Get, Update
// and Delete.
func (h *Hook) named(ctx context.Context, op, field, id string, p Parent, collection string) (string, dlppb.DlpServiceClient, error) {
	if id == "" {
		return "", nil, missingID(op, field)
	}
	parent, err := h.resolve(op, p)
	if err != nil {
		return "", nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return "", nil, err
	}
	return resourceName(parent, collection, id), client, nil
}
