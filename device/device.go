// Package device holds the immutable catalog of simulated device viewports.
package device

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDevice is returned when an id is not present in the registry.
var ErrUnknownDevice = errors.New("unknown device")

// Tier groups profiles by form factor.
type Tier string

const (
	TierMobile  Tier = "mobile"
	TierTablet  Tier = "tablet"
	TierLaptop  Tier = "laptop"
	TierDesktop Tier = "desktop"
)

// Profile is a named viewport. Profiles are values and never mutated.
type Profile struct {
	ID          string
	Width       int
	Height      int
	DisplayName string
	Tier        Tier
	// AliasOf names the canonical profile a legacy alias stands for.
	AliasOf string
}

// IsAlias reports whether the profile is a legacy alias.
func (p Profile) IsAlias() bool {
	return p.AliasOf != ""
}

// Size renders the viewport as WIDTHxHEIGHT.
func (p Profile) Size() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Scope selects which profiles an "all devices" request expands to.
type Scope string

const (
	// ScopeCanonical is the four short-name tiers.
	ScopeCanonical Scope = "canonical"
	// ScopeCatalog is every profile except legacy aliases.
	ScopeCatalog Scope = "catalog"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeCanonical, "":
		return ScopeCanonical, nil
	case ScopeCatalog:
		return ScopeCatalog, nil
	default:
		return "", fmt.Errorf("invalid device scope %q (supported: canonical, catalog)", s)
	}
}

// Registry is an ordered, read-only set of profiles keyed by id.
type Registry struct {
	profiles  []Profile
	byID      map[string]int
	canonical []string
}

// New builds a registry. Ids must be unique, dimensions positive and every
// alias must point at a profile declared earlier.
func New(profiles ...Profile) (*Registry, error) {
	r := &Registry{
		profiles: make([]Profile, 0, len(profiles)),
		byID:     make(map[string]int, len(profiles)),
	}
	for _, p := range profiles {
		id := normalizeID(p.ID)
		if id == "" {
			return nil, errors.New("device profile is missing id")
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("duplicate device id %q", id)
		}
		if p.Width <= 0 || p.Height <= 0 {
			return nil, fmt.Errorf("device %q must have positive dimensions, got %s", id, p.Size())
		}
		if p.AliasOf != "" {
			target, ok := r.byID[normalizeID(p.AliasOf)]
			if !ok {
				return nil, fmt.Errorf("device alias %q points at unknown id %q", id, p.AliasOf)
			}
			canon := r.profiles[target]
			if canon.Width != p.Width || canon.Height != p.Height {
				return nil, fmt.Errorf("device alias %q must match %q dimensions %s", id, canon.ID, canon.Size())
			}
		}
		p.ID = id
		r.byID[id] = len(r.profiles)
		r.profiles = append(r.profiles, p)
	}
	return r, nil
}

// WithCanonical marks the ids returned by Canonical. Each id must exist.
func (r *Registry) WithCanonical(ids ...string) (*Registry, error) {
	out := &Registry{profiles: r.profiles, byID: r.byID}
	for _, id := range ids {
		p, err := r.Resolve(id)
		if err != nil {
			return nil, err
		}
		out.canonical = append(out.canonical, p.ID)
	}
	return out, nil
}

// IDs returns every id in declaration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.profiles))
	for i, p := range r.profiles {
		ids[i] = p.ID
	}
	return ids
}

// All returns every profile in declaration order.
func (r *Registry) All() []Profile {
	return append([]Profile(nil), r.profiles...)
}

// Resolve looks up a profile by id. Lookup ignores case and surrounding space.
func (r *Registry) Resolve(id string) (Profile, error) {
	i, ok := r.byID[normalizeID(id)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownDevice, id)
	}
	return r.profiles[i], nil
}

// ResolveAll resolves ids in order, dropping repeats.
func (r *Registry) ResolveAll(ids []string) ([]Profile, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]Profile, 0, len(ids))
	for _, id := range ids {
		p, err := r.Resolve(id)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// Canonical returns the short-name tier profiles.
func (r *Registry) Canonical() []Profile {
	out := make([]Profile, 0, len(r.canonical))
	for _, id := range r.canonical {
		out = append(out, r.profiles[r.byID[id]])
	}
	return out
}

// Catalog returns every profile that is not a legacy alias.
func (r *Registry) Catalog() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if !p.IsAlias() {
			out = append(out, p)
		}
	}
	return out
}

// Select returns the profiles an "all devices" request expands to.
func (r *Registry) Select(scope Scope) []Profile {
	if scope == ScopeCatalog {
		return r.Catalog()
	}
	return r.Canonical()
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
