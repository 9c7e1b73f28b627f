package currency

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"
)

const maxDecimals = 38

// Info describes a locally known currency.
type Info struct {
	ID       ID     `json:"id"`
	Decimals int32  `json:"decimals"`
	Name     string `json:"name,omitempty"`
}

// Registry holds the currencies recognized by this node. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	infos map[ID]Info
}

// NewRegistry creates a registry seeded with infos.
func NewRegistry(infos ...Info) (*Registry, error) {
	r := &Registry{infos: make(map[ID]Info, len(infos))}
	for _, info := range infos {
		if err := r.Register(info); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a currency.
func (r *Registry) Register(info Info) error {
	if _, err := Parse(string(info.ID)); err != nil {
		return fmt.Errorf("registering %q: %w", info.ID, err)
	}
	if info.Decimals < 0 || info.Decimals > maxDecimals {
		return fmt.Errorf("registering %s: decimals %d out of range", info.ID, info.Decimals)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos[info.ID] = info
	return nil
}

// Lookup returns the info for id and true if it is registered.
func (r *Registry) Lookup(id ID) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[id]
	return info, ok
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id ID) bool {
	_, ok := r.Lookup(id)
	return ok
}

// List returns all registered currencies ordered by ID.
func (r *Registry) List() []Info {
	r.mu.RLock()
	infos := lo.Values(r.infos)
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// ParseRegistry builds a registry from a comma-separated list of
// CODE[:DECIMALS[:NAME]] entries, e.g. "AAA:12,EURMTL:7:Euro token".
func ParseRegistry(list string) (*Registry, error) {
	entries := lo.Filter(strings.Split(list, ","), func(s string, _ int) bool {
		return strings.TrimSpace(s) != ""
	})

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 3)
		info := Info{ID: ID(parts[0])}
		if len(parts) > 1 {
			d, err := strconv.ParseInt(parts[1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("parsing decimals for %s: %w", parts[0], err)
			}
			info.Decimals = int32(d)
		}
		if len(parts) > 2 {
			info.Name = parts[2]
		}
		infos = append(infos, info)
	}

	return NewRegistry(infos...)
}
