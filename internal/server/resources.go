package server

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	parentPattern        = regexp.MustCompile(`^(projects|organizations)/[^/]+(/locations/[^/]+)?$`)
	projectParentPattern = regexp.MustCompile(`^projects/[^/]+(/locations/[^/]+)?$`)
	resourceIDPattern    = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,100}$`)
)

// checkParent validates a parent. Jobs and job triggers only live under
// projects.
func checkParent(parent string, projectOnly bool) error {
	pattern := parentPattern
	if projectOnly {
		pattern = projectParentPattern
	}
	if !pattern.MatchString(parent) {
		return status.Errorf(codes.InvalidArgument, "invalid parent %q", parent)
	}
	return nil
}

// childName builds the name of a new resource, generating an id with
// the given prefix when none was requested.
func childName(parent, collection, id, prefix string) (string, error) {
	if id == "" {
		id = prefix + uuid.New().String()[:8]
	}
	if !resourceIDPattern.MatchString(id) {
		return "", status.Errorf(codes.InvalidArgument, "invalid resource id %q", id)
	}
	return fmt.Sprintf("%s/%s/%s", parent, collection, id), nil
}
