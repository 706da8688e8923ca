package hook

import (
	"context"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
)

// Content methods are scoped to projects only. Zero fields in the
// params structs are sent as absent.

// InspectParams are the inputs of InspectContent.
type InspectParams struct {
	InspectConfig       *dlppb.InspectConfig
	Item                *dlppb.ContentItem
	InspectTemplateName string
}

// DeidentifyParams are the inputs of DeidentifyContent.
type DeidentifyParams struct {
	DeidentifyConfig       *dlppb.DeidentifyConfig
	InspectConfig          *dlppb.InspectConfig
	Item                   *dlppb.ContentItem
	InspectTemplateName    string
	DeidentifyTemplateName string
}

// ReidentifyParams are the inputs of ReidentifyContent.
type ReidentifyParams struct {
	ReidentifyConfig       *dlppb.DeidentifyConfig
	InspectConfig          *dlppb.InspectConfig
	Item                   *dlppb.ContentItem
	InspectTemplateName    string
	ReidentifyTemplateName string
}

// RedactImageParams are the inputs of RedactImage.
type RedactImageParams struct {
	InspectConfig         *dlppb.InspectConfig
	ImageRedactionConfigs []*dlppb.RedactImageRequest_ImageRedactionConfig
	IncludeFindings       bool
	ByteItem              *dlppb.ByteContentItem
}

// InspectContent finds sensitive data in an item.
func (h *Hook) InspectContent(ctx context.Context, projectID string, params InspectParams, opts ...CallOption) (*dlppb.InspectContentResponse, error) {
	parent, err := h.resolveProject("InspectContent", projectID)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.InspectContentRequest{
		Parent:              parent,
		InspectConfig:       params.InspectConfig,
		Item:                params.Item,
		InspectTemplateName: params.InspectTemplateName,
	}, client.InspectContent)
}

// DeidentifyContent transforms the sensitive data found in an item.
func (h *Hook) DeidentifyContent(ctx context.Context, projectID string, params DeidentifyParams, opts ...CallOption) (*dlppb.DeidentifyContentResponse, error) {
	parent, err := h.resolveProject("DeidentifyContent", projectID)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.DeidentifyContentRequest{
		Parent:                 parent,
		DeidentifyConfig:       params.DeidentifyConfig,
		InspectConfig:          params.InspectConfig,
		Item:                   params.Item,
		InspectTemplateName:    params.InspectTemplateName,
		DeidentifyTemplateName: params.DeidentifyTemplateName,
	}, client.DeidentifyContent)
}

// ReidentifyContent reverses a reversible deidentification.
func (h *Hook) ReidentifyContent(ctx context.Context, projectID string, params ReidentifyParams, opts ...CallOption) (*dlppb.ReidentifyContentResponse, error) {
	parent, err := h.resolveProject("ReidentifyContent", projectID)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.ReidentifyContentRequest{
		Parent:                 parent,
		ReidentifyConfig:       params.ReidentifyConfig,
		InspectConfig:          params.InspectConfig,
		Item:                   params.Item,
		InspectTemplateName:    params.InspectTemplateName,
		ReidentifyTemplateName: params.ReidentifyTemplateName,
	}, client.ReidentifyContent)
}

// RedactImage redacts sensitive data from an image.
func (h *Hook) RedactImage(ctx context.Context, projectID string, params RedactImageParams, opts ...CallOption) (*dlppb.RedactImageResponse, error) {
	parent, err := h.resolveProject("RedactImage", projectID)
	if err != nil {
		return nil, err
	}
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.RedactImageRequest{
		Parent:                parent,
		InspectConfig:         params.InspectConfig,
		ImageRedactionConfigs: params.ImageRedactionConfigs,
		IncludeFindings:       params.IncludeFindings,
		ByteItem:              params.ByteItem,
	}, client.RedactImage)
}

// ListInfoTypes lists the built-in info types. It takes no parent.
func (h *Hook) ListInfoTypes(ctx context.Context, languageCode, filter string, opts ...CallOption) (*dlppb.ListInfoTypesResponse, error) {
	client, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return invoke(ctx, opts, &dlppb.ListInfoTypesRequest{
		LanguageCode: languageCode,
		Filter:       filter,
	}, client.ListInfoTypes)
}
