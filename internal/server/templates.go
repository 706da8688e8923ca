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

func (s *DlpServer) CreateDeidentifyTemplate(ctx context.Context, req *dlppb.CreateDeidentifyTemplateRequest) (*dlppb.DeidentifyTemplate, error) {
	if err := checkParent(req.GetParent(), false); err != nil {
		return nil, err
	}
	if req.GetDeidentifyTemplate() == nil {
		return nil, status.Error(codes.InvalidArgument, "deidentify_template is required")
	}
	name, err := childName(req.GetParent(), "deidentifyTemplates", req.GetTemplateId(), "")
	if err != nil {
		return nil, err
	}

	now := timestamppb.Now()
	tmpl := &dlppb.DeidentifyTemplate{
		Name:             name,
		DisplayName:      req.GetDeidentifyTemplate().GetDisplayName(),
		Description:      req.GetDeidentifyTemplate().GetDescription(),
		DeidentifyConfig: req.GetDeidentifyTemplate().GetDeidentifyConfig(),
		CreateTime:       now,
		UpdateTime:       now,
	}
	if err := s.store.DeidentifyTemplates.Create(tmpl); err != nil {
		return nil, storeError(err)
	}
	slog.Info("deidentify template created", "name", name)
	return tmpl, nil
}

func (s *DlpServer) GetDeidentifyTemplate(ctx context.Context, req *dlppb.GetDeidentifyTemplateRequest) (*dlppb.DeidentifyTemplate, error) {
	tmpl, err := s.store.DeidentifyTemplates.Get(req.GetName())
	if err != nil {
		return nil, storeError(err)
	}
	return tmpl, nil
}

func (s *DlpServer) UpdateDeidentifyTemplate(ctx context.Context, req *dlppb.UpdateDeidentifyTemplateRequest) (*dlppb.DeidentifyTemplate, error) {
	src := req.GetDeidentifyTemplate()
	if src == nil {
		return nil, status.Error(codes.InvalidArgument, "deidentify_template is required")
	}
	tmpl, err := s.store.DeidentifyTemplates.Update(req.GetName(), func(t *dlppb.DeidentifyTemplate) error {
		if err := applyMask(t, src, req.GetUpdateMask()); err != nil {
			return err
		}
		t.UpdateTime = timestamppb.Now()
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return tmpl, nil
}

func (s *DlpServer) DeleteDeidentifyTemplate(ctx context.Context, req *dlppb.DeleteDeidentifyTemplateRequest) (*emptypb.Empty, error) {
	if err := s.store.DeidentifyTemplates.Delete(req.GetName()); err != nil {
		return nil, storeError(err)
	}
	slog.Info("deidentify template deleted", "name", req.GetName())
	return &emptypb.Empty{}, nil
}

func (s *DlpServer) ListDeidentifyTemplates(ctx context.Context, req *dlppb.ListDeidentifyTemplatesRequest) (*dlppb.ListDeidentifyTemplatesResponse, error) {
	if err := checkParent(req.GetParent(), false); err != nil {
		return nil, err
	}
	items := s.store.DeidentifyTemplates.List(req.GetParent())
	if err := order(items, req.GetOrderBy(), (*dlppb.DeidentifyTemplate).GetCreateTime); err != nil {
		return nil, err
	}
	page, next, err := paginate(items, req.GetPageSize(), req.GetPageToken())
	if err != nil {
		return nil, err
	}
	return &dlppb.ListDeidentifyTemplatesResponse{
		DeidentifyTemplates: page,
		NextPageToken:       next,
	}, nil
}

func (s *DlpServer) CreateInspectTemplate(ctx context.Context, req *dlppb.CreateInspectTemplateRequest) (*dlppb.InspectTemplate, error) {
	if err := checkParent(req.GetParent(), false); err != nil {
		return nil, err
	}
	if req.GetInspectTemplate() == nil {
		return nil, status.Error(codes.InvalidArgument, "inspect_template is required")
	}
	name, err := childName(req.GetParent(), "inspectTemplates", req.GetTemplateId(), "")
	if err != nil {
		return nil, err
	}

	now := timestamppb.Now()
	tmpl := &dlppb.InspectTemplate{
		Name:          name,
		DisplayName:   req.GetInspectTemplate().GetDisplayName(),
		Description:   req.GetInspectTemplate().GetDescription(),
		InspectConfig: req.GetInspectTemplate().GetInspectConfig(),
		CreateTime:    now,
		UpdateTime:    now,
	}
	if err := s.store.InspectTemplates.Create(tmpl); err != nil {
		return nil, storeError(err)
	}
	slog.Info("inspect template created", "name", name)
	return tmpl, nil
}

func (s *DlpServer) GetInspectTemplate(ctx context.Context, req *dlppb.GetInspectTemplateRequest) (*dlppb.InspectTemplate, error) {
	tmpl, err := s.store.InspectTemplates.Get(req.GetName())
	if err != nil {
		return nil, storeError(err)
	}
	return tmpl, nil
}

func (s *DlpServer) UpdateInspectTemplate(ctx context.Context, req *dlppb.UpdateInspectTemplateRequest) (*dlppb.InspectTemplate, error) {
	src := req.GetInspectTemplate()
	if src == nil {
		return nil, status.Error(codes.InvalidArgument, "inspect_template is required")
	}
	tmpl, err := s.store.InspectTemplates.Update(req.GetName(), func(t *dlppb.InspectTemplate) error {
		if err := applyMask(t, src, req.GetUpdateMask()); err != nil {
			return err
		}
		t.UpdateTime = timestamppb.Now()
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return tmpl, nil
}

func (s *DlpServer) DeleteInspectTemplate(ctx context.Context, req *dlppb.DeleteInspectTemplateRequest) (*emptypb.Empty, error) {
	if err := s.store.InspectTemplates.Delete(req.GetName()); err != nil {
		return nil, storeError(err)
	}
	slog.Info("inspect template deleted", "name", req.GetName())
	return &emptypb.Empty{}, nil
}

func (s *DlpServer) ListInspectTemplates(ctx context.Context, req *dlppb.ListInspectTemplatesRequest) (*dlppb.ListInspectTemplatesResponse, error) {
	if err := checkParent(req.GetParent(), false); err != nil {
		return nil, err
	}
	items := s.store.InspectTemplates.List(req.GetParent())
	if err := order(items, req.GetOrderBy(), (*dlppb.InspectTemplate).GetCreateTime); err != nil {
		return nil, err
	}
	page, next, err := paginate(items, req.GetPageSize(), req.GetPageToken())
	if err != nil {
		return nil, err
	}
	return &dlppb.ListInspectTemplatesResponse{
		InspectTemplates: page,
		NextPageToken:    next,
	}, nil
}
