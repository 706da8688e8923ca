package state

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"google.golang.org/protobuf/proto"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Resource is a stored DLP message addressed by its full resource name.
type Resource interface {
	proto.Message
	GetName() string
}

// Collection is a thread-safe in-memory set of one resource kind.
// Values are cloned on the way in and out so callers never share them.
type Collection[T Resource] struct {
	mu    sync.RWMutex
	kind  string
	items map[string]T // keyed by full resource name
}

func newCollection[T Resource](kind string) *Collection[T] {
	return &Collection[T]{
		kind:  kind,
		items: make(map[string]T),
	}
}

// Create stores item unless its name is taken.
func (c *Collection[T]) Create(item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := item.GetName()
	if _, ok := c.items[name]; ok {
		return fmt.Errorf("%s %s: %w", c.kind, name, ErrAlreadyExists)
	}
	c.items[name] = clone(item)
	return nil
}

// Save stores item, replacing any previous value.
func (c *Collection[T]) Save(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.GetName()] = clone(item)
}

// Get retrieves an item by full resource name.
func (c *Collection[T]) Get(name string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", c.kind, name, ErrNotFound)
	}
	return clone(item), nil
}

// Update applies fn to the stored item under the write lock. The item
// is left untouched if fn fails.
func (c *Collection[T]) Update(name string, fn func(T) error) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	item, ok := c.items[name]
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", c.kind, name, ErrNotFound)
	}
	updated := clone(item)
	if err := fn(updated); err != nil {
		return zero, err
	}
	c.items[name] = updated
	return clone(updated), nil
}

// Delete removes an item by full resource name.
func (c *Collection[T]) Delete(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[name]; !ok {
		return fmt.Errorf("%s %s: %w", c.kind, name, ErrNotFound)
	}
	delete(c.items, name)
	return nil
}

// List returns the items directly under parent, sorted by name.
// An empty parent lists everything.
func (c *Collection[T]) List(parent string) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]T, 0, len(c.items))
	for name, item := range c.items {
		if parent == "" || ParentOf(name) == parent {
			items = append(items, clone(item))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].GetName() < items[j].GetName()
	})
	return items
}

func clone[T proto.Message](m T) T {
	return proto.Clone(m).(T)
}

// Store holds every resource kind served by the emulator.
type Store struct {
	DeidentifyTemplates *Collection[*dlppb.DeidentifyTemplate]
	InspectTemplates    *Collection[*dlppb.InspectTemplate]
	StoredInfoTypes     *Collection[*dlppb.StoredInfoType]
	JobTriggers         *Collection[*dlppb.JobTrigger]
	Jobs                *Collection[*dlppb.DlpJob]
}

func NewStore() *Store {
	return &Store{
		DeidentifyTemplates: newCollection[*dlppb.DeidentifyTemplate]("deidentify template"),
		InspectTemplates:    newCollection[*dlppb.InspectTemplate]("inspect template"),
		StoredInfoTypes:     newCollection[*dlppb.StoredInfoType]("stored info type"),
		JobTriggers:         newCollection[*dlppb.JobTrigger]("job trigger"),
		Jobs:                newCollection[*dlppb.DlpJob]("job"),
	}
}

// ParentOf returns the parent of a resource name such as
// projects/p/dlpJobs/j, i.e. everything before the collection segment.
func ParentOf(name string) string {
	parts := strings.Split(name, "/")
	if len(parts) < 4 {
		return ""
	}
	return strings.Join(parts[:len(parts)-2], "/")
}

// LastSegment extracts the id from a resource name.
func LastSegment(name string) string {
	parts := strings.Split(name, "/")
	return parts[len(parts)-1]
}
