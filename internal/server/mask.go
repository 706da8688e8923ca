package server

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/fieldmaskpb"
)

// outputOnly lists fields clients can never write.
var outputOnly = map[protoreflect.Name]bool{
	"name":             true,
	"create_time":      true,
	"update_time":      true,
	"errors":           true,
	"last_run_time":    true,
	"current_version":  true,
	"pending_versions": true,
}

// applyMask copies the fields named by mask from src into dst. Only
// top-level paths are accepted. An empty mask copies every writable field,
// clearing those src leaves unset.
func applyMask(dst, src proto.Message, mask *fieldmaskpb.FieldMask) error {
	d := dst.ProtoReflect()
	s := proto.Clone(src).ProtoReflect()
	fields := d.Descriptor().Fields()

	paths := mask.GetPaths()
	if len(paths) == 0 {
		for i := 0; i < fields.Len(); i++ {
			if f := fields.Get(i); !outputOnly[f.Name()] {
				paths = append(paths, string(f.Name()))
			}
		}
	}

	for _, p := range paths {
		f := fields.ByName(protoreflect.Name(p))
		if f == nil {
			return status.Errorf(codes.InvalidArgument, "invalid update mask path %q", p)
		}
		if outputOnly[f.Name()] {
			return status.Errorf(codes.InvalidArgument, "field %q cannot be updated", p)
		}
		if s.Has(f) {
			d.Set(f, s.Get(f))
		} else {
			d.Clear(f)
		}
	}
	return nil
}

// overlay sets every populated field of src on dst.
func overlay(dst, src proto.Message) {
	d := dst.ProtoReflect()
	proto.Clone(src).ProtoReflect().Range(func(f protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		d.Set(f, v)
		return true
	})
}
