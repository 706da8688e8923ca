package server

import (
	"sort"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/state"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// order sorts items by an order_by expression such as
// "create_time desc, name". Items arrive sorted by name.
func order[T state.Resource](items []T, orderBy string, created func(T) *timestamppb.Timestamp) error {
	if strings.TrimSpace(orderBy) == "" {
		return nil
	}

	type key struct {
		field string
		desc  bool
	}
	var keys []key
	for _, term := range strings.Split(orderBy, ",") {
		parts := strings.Fields(term)
		if len(parts) == 0 || len(parts) > 2 {
			return status.Errorf(codes.InvalidArgument, "invalid order_by %q", orderBy)
		}
		k := key{field: parts[0]}
		if len(parts) == 2 {
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				k.desc = true
			default:
				return status.Errorf(codes.InvalidArgument, "invalid order_by direction %q", parts[1])
			}
		}
		switch k.field {
		case "name", "create_time":
		default:
			return status.Errorf(codes.InvalidArgument, "cannot order by %q", k.field)
		}
		keys = append(keys, k)
	}

	sort.SliceStable(items, func(i, j int) bool {
		for _, k := range keys {
			var c int
			switch k.field {
			case "name":
				c = strings.Compare(items[i].GetName(), items[j].GetName())
			case "create_time":
				c = created(items[i]).AsTime().Compare(created(items[j]).AsTime())
			}
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return nil
}

// paginate cuts one page out of items. Page tokens are offsets.
func paginate[T any](items []T, pageSize int32, pageToken string) ([]T, string, error) {
	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 || n > len(items) {
			return nil, "", status.Errorf(codes.InvalidArgument, "invalid page token %q", pageToken)
		}
		offset = n
	}

	size := int(pageSize)
	switch {
	case size < 0:
		return nil, "", status.Errorf(codes.InvalidArgument, "negative page size %d", pageSize)
	case size == 0:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}

	end := min(offset+size, len(items))
	next := ""
	if end < len(items) {
		next = strconv.Itoa(end)
	}
	return items[offset:end], next, nil
}

// parseFilter reads a filter of the form "key=value AND key=value".
// Only the given keys are accepted.
func parseFilter(filter string, allowed ...string) (map[string]string, error) {
	terms := map[string]string{}
	if strings.TrimSpace(filter) == "" {
		return terms, nil
	}
	for _, term := range splitAnd(filter) {
		key, value, ok := strings.Cut(term, "=")
		key, value = strings.TrimSpace(key), strings.Trim(strings.TrimSpace(value), `"`)
		if !ok || key == "" || value == "" {
			return nil, status.Errorf(codes.InvalidArgument, "invalid filter term %q", term)
		}
		known := false
		for _, a := range allowed {
			known = known || a == key
		}
		if !known {
			return nil, status.Errorf(codes.InvalidArgument, "unsupported filter key %q", key)
		}
		terms[key] = value
	}
	return terms, nil
}

func splitAnd(filter string) []string {
	var terms []string
	fields := strings.Fields(filter)
	cur := ""
	for _, f := range fields {
		if strings.EqualFold(f, "AND") {
			terms = append(terms, cur)
			cur = ""
			continue
		}
		cur += f
	}
	return append(terms, cur)
}
