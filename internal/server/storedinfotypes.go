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

// Stored info types are built synchronously, so every version is READY
// as soon as it exists.
func (s *DlpServer) CreateStoredInfoType(ctx context.Context, req *dlppb.CreateStoredInfoTypeRequest) (*dlppb.StoredInfoType, error) {
	if err := checkParent(req.GetParent(), false); err != nil {
		return nil, err
	}
	if req.GetConfig() == nil {
		return nil, status.Error(codes.InvalidArgument, "config is required")
	}
	name, err := childName(req.GetParent(), "storedInfoTypes", req.GetStoredInfoTypeId(), "")
	if err != nil {
		return nil, err
	}

	sit := &dlppb.StoredInfoType{
		Name:           name,
		CurrentVersion: readyVersion(req.GetConfig()),
	}
	if err := s.store.StoredInfoTypes.Create(sit); err != nil {
		return nil, storeError(err)
	}
	slog.Info("stored info type created", "name", name)
	return sit, nil
}

func (s *DlpServer) GetStoredInfoType(ctx context.Context, req *dlppb.GetStoredInfoTypeRequest) (*dlppb.StoredInfoType, error) {
	sit, err := s.store.StoredInfoTypes.Get(req.GetName())
	if err != nil {
		return nil, storeError(err)
	}
	return sit, nil
}

// UpdateStoredInfoType rebuilds the stored info type into a new version.
// The update mask applies to the config.
func (s *DlpServer) UpdateStoredInfoType(ctx context.Context, req *dlppb.UpdateStoredInfoTypeRequest) (*dlppb.StoredInfoType, error) {
	src := req.GetConfig()
	if src == nil {
		return nil, status.Error(codes.InvalidArgument, "config is required")
	}
	sit, err := s.store.StoredInfoTypes.Update(req.GetName(), func(t *dlppb.StoredInfoType) error {
		cfg := t.GetCurrentVersion().GetConfig()
		if cfg == nil {
			cfg = &dlppb.StoredInfoTypeConfig{}
		}
		if err := applyMask(cfg, src, req.GetUpdateMask()); err != nil {
			return err
		}
		t.CurrentVersion = readyVersion(cfg)
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return sit, nil
}

func (s *DlpServer) DeleteStoredInfoType(ctx context.Context, req *dlppb.DeleteStoredInfoTypeRequest) (*emptypb.Empty, error) {
	if err := s.store.StoredInfoTypes.Delete(req.GetName()); err != nil {
		return nil, storeError(err)
	}
	slog.Info("stored info type deleted", "name", req.GetName())
	return &emptypb.Empty{}, nil
}

func (s *DlpServer) ListStoredInfoTypes(ctx context.Context, req *dlppb.ListStoredInfoTypesRequest) (*dlppb.ListStoredInfoTypesResponse, error) {
	if err := checkParent(req.GetParent(), false); err != nil {
		return nil, err
	}
	items := s.store.StoredInfoTypes.List(req.GetParent())
	created := func(t *dlppb.StoredInfoType) *timestamppb.Timestamp {
		return t.GetCurrentVersion().GetCreateTime()
	}
	if err := order(items, req.GetOrderBy(), created); err != nil {
		return nil, err
	}
	page, next, err := paginate(items, req.GetPageSize(), req.GetPageToken())
	if err != nil {
		return nil, err
	}
	return &dlppb.ListStoredInfoTypesResponse{
		StoredInfoTypes: page,
		NextPageToken:   next,
	}, nil
}

func readyVersion(cfg *dlppb.StoredInfoTypeConfig) *dlppb.StoredInfoTypeVersion {
	return &dlppb.StoredInfoTypeVersion{
		Config:     cfg,
		CreateTime: timestamppb.Now(),
		State:      dlppb.StoredInfoTypeState_READY,
	}
}
