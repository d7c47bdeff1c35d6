package postproc

import (
	"fmt"
	"sync"
)

// Info is the creator metadata shown by enumeration commands.
type Info struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Type               string   `json:"type"`
	Indicators         []string `json:"indicators"`
	RequiredInputTypes []string `json:"required_input_types"`
}

// Registry maps post-processor names to creators. Registration is
// append-only and normally happens once at startup.
type Registry struct {
	mu       sync.RWMutex
	creators map[string]Creator
	order    []string
}

// Default is the process-wide registry populated at startup.
var Default = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{creators: make(map[string]Creator)}
}

// Register adds c under its name.
func (r *Registry) Register(c Creator) error {
	name := c.Name()
	if name == "" {
		return fmt.Errorf("cannot register post processor with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creators[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.creators[name] = c
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (r *Registry) MustRegister(c Creator) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Lookup returns the creator registered under name.
func (r *Registry) Lookup(name string) (Creator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.creators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPostProcessor, name)
	}
	return c, nil
}

// Describe returns the metadata of the creator registered under name.
func (r *Registry) Describe(name string) (Info, error) {
	c, err := r.Lookup(name)
	if err != nil {
		return Info{}, err
	}
	return InfoOf(c), nil
}

// Names lists registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Creators lists registered creators in registration order.
func (r *Registry) Creators() []Creator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Creator, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.creators[name])
	}
	return out
}

// ForIndicator lists the creators declaring the indicator short name.
func (r *Registry) ForIndicator(short string) []Creator {
	var out []Creator
	for _, c := range r.Creators() {
		for _, ind := range c.Indicators() {
			if ind == short {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// InfoOf snapshots the metadata of c.
func InfoOf(c Creator) Info {
	return Info{
		Name:               c.Name(),
		Description:        c.Description(),
		Type:               c.Type().String(),
		Indicators:         append([]string(nil), c.Indicators()...),
		RequiredInputTypes: append([]string(nil), c.RequiredInputTypes()...),
	}
}
