package source

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sells-group/lead-cli/internal/model"
)

// Catalog holds every known adapter by name.
type Catalog struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{adapters: make(map[string]Adapter)}
}

// Register adds a, replacing any adapter with the same name.
func (c *Catalog) Register(a Adapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adapters[a.Name()] = a
}

// Get returns the adapter named name, or nil.
func (c *Catalog) Get(name string) Adapter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.adapters[name]
}

// Names returns the registered names for stage, sorted. An empty stage
// returns every name.
func (c *Catalog) Names(stage model.Stage) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var names []string
	for name, a := range c.adapters {
		if stage == "" || a.Stage() == stage {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Select returns the named adapters in the given order, each wrapped with
// RateLimited when l is non-nil. Unknown names and adapters registered for a
// different stage are configuration errors.
func (c *Catalog) Select(stage model.Stage, names []string, l Limiter) ([]Adapter, error) {
	field := fmt.Sprintf("sources.%s", stage)
	if len(names) == 0 {
		return nil, &model.ConfigurationError{Field: field, Reason: "must name at least one source"}
	}

	out := make([]Adapter, 0, len(names))
	for _, name := range names {
		a := c.Get(name)
		if a == nil {
			return nil, &model.ConfigurationError{Field: field, Reason: fmt.Sprintf("unknown source %q", name)}
		}
		if a.Stage() != stage {
			return nil, &model.ConfigurationError{Field: field, Reason: fmt.Sprintf("source %q serves stage %s", name, a.Stage())}
		}
		if l != nil {
			a = RateLimited(a, l)
		}
		out = append(out, a)
	}
	return out, nil
}
