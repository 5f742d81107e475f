// Defines the static location registry: named hubs with coordinates and
// candidate parking spots, resolved from free-text destination queries.

package sim

import (
	"fmt"
	"strings"
)

// Category classifies a parking candidate.
type Category string

const (
	CategoryResidentialShared    Category = "ResidentialShared"
	CategoryOldCommunityRetrofit Category = "OldCommunityRetrofit"
	CategoryCommercialShared     Category = "CommercialShared"
	CategoryMixedUse             Category = "MixedUse"
	CategoryRoadsideTimeshare    Category = "RoadsideTimeshare"
)

// categoryDisplayNames maps each category to the label shown to drivers.
var categoryDisplayNames = map[Category]string{
	CategoryResidentialShared:    "居民共享",
	CategoryOldCommunityRetrofit: "老旧小区改造",
	CategoryCommercialShared:     "商业共享",
	CategoryMixedUse:             "综合体",
	CategoryRoadsideTimeshare:    "路侧错时车位",
}

// DisplayName returns the driver-facing label, or the identifier for unknown categories.
func (c Category) DisplayName() string {
	if name, ok := categoryDisplayNames[c]; ok {
		return name
	}
	return string(c)
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	_, ok := categoryDisplayNames[c]
	return ok
}

// ParseCategory accepts either the identifier ("ResidentialShared") or the
// display name ("居民共享").
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if Category(s).IsValid() {
		return Category(s), nil
	}
	for c, name := range categoryDisplayNames {
		if name == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown parking category %q", s)
}

// Priority ranks a candidate for presentation; selection does not read it.
type Priority string

const (
	PriorityHigh Priority = "high"
	PriorityLow  Priority = "low"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	return p == PriorityHigh || p == PriorityLow
}

// ParkingCandidate is a parking option attached to a hub.
type ParkingCandidate struct {
	Name               string   `json:"name"`
	Category           Category `json:"category"`
	BaseDistanceMeters int      `json:"baseDistanceMeters"` // line-of-sight distance from the hub, > 0
	Priority           Priority `json:"priority"`
}

// Coordinates is a WGS 84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HubRecord holds a hub's position and its ordered candidate spots.
type HubRecord struct {
	Latitude          float64            `json:"latitude"`
	Longitude         float64            `json:"longitude"`
	ParkingCandidates []ParkingCandidate `json:"parkingCandidates"`
}

// Coordinates returns the hub position.
func (h HubRecord) Coordinates() Coordinates {
	return Coordinates{Latitude: h.Latitude, Longitude: h.Longitude}
}

func (h HubRecord) clone() HubRecord {
	out := h
	out.ParkingCandidates = append([]ParkingCandidate(nil), h.ParkingCandidates...)
	return out
}

// Hub is a registry entry: a HubRecord under its place-name key.
type Hub struct {
	Key    string `json:"key"`
	Preset bool   `json:"preset"` // offered as a one-click destination
	HubRecord
}

// Registry is an immutable, ordered mapping from place names to hubs.
// Iteration order is the construction order and decides ties in Resolve.
type Registry struct {
	hubs  []Hub
	index map[string]int
}

// NewRegistry validates hubs and builds a Registry that owns copies of them.
func NewRegistry(hubs []Hub) (*Registry, error) {
	r := &Registry{
		hubs:  make([]Hub, 0, len(hubs)),
		index: make(map[string]int, len(hubs)),
	}
	for _, h := range hubs {
		if err := validateHub(h); err != nil {
			return nil, err
		}
		if _, dup := r.index[h.Key]; dup {
			return nil, fmt.Errorf("duplicate hub key %q", h.Key)
		}
		r.index[h.Key] = len(r.hubs)
		r.hubs = append(r.hubs, Hub{Key: h.Key, Preset: h.Preset, HubRecord: h.HubRecord.clone()})
	}
	if len(r.hubs) == 0 {
		return nil, fmt.Errorf("registry has no hubs")
	}
	return r, nil
}

func validateHub(h Hub) error {
	if h.Key == "" {
		return fmt.Errorf("hub key must not be empty")
	}
	if h.Latitude < -90 || h.Latitude > 90 {
		return fmt.Errorf("hub %q: latitude %v out of range [-90, 90]", h.Key, h.Latitude)
	}
	if h.Longitude < -180 || h.Longitude > 180 {
		return fmt.Errorf("hub %q: longitude %v out of range [-180, 180]", h.Key, h.Longitude)
	}
	if len(h.ParkingCandidates) == 0 {
		return fmt.Errorf("hub %q: %w", h.Key, ErrNoCandidates)
	}
	for i, c := range h.ParkingCandidates {
		if c.Name == "" {
			return fmt.Errorf("hub %q: candidate %d has no name", h.Key, i)
		}
		if !c.Category.IsValid() {
			return fmt.Errorf("hub %q: candidate %q has unknown category %q", h.Key, c.Name, c.Category)
		}
		if c.BaseDistanceMeters <= 0 {
			return fmt.Errorf("hub %q: candidate %q base distance must be positive, got %d", h.Key, c.Name, c.BaseDistanceMeters)
		}
		if !c.Priority.IsValid() {
			return fmt.Errorf("hub %q: candidate %q has unknown priority %q", h.Key, c.Name, c.Priority)
		}
	}
	return nil
}

// Resolve finds the first hub, in registry order, whose key contains the
// query or is contained in it. Matching is case-sensitive.
func (r *Registry) Resolve(query string) (string, HubRecord, bool) {
	for _, h := range r.hubs {
		if strings.Contains(query, h.Key) || strings.Contains(h.Key, query) {
			return h.Key, h.HubRecord.clone(), true
		}
	}
	return "", HubRecord{}, false
}

// Lookup returns the hub stored under key.
func (r *Registry) Lookup(key string) (HubRecord, bool) {
	i, ok := r.index[key]
	if !ok {
		return HubRecord{}, false
	}
	return r.hubs[i].HubRecord.clone(), true
}

// Hubs returns a copy of all entries in registry order.
func (r *Registry) Hubs() []Hub {
	out := make([]Hub, len(r.hubs))
	for i, h := range r.hubs {
		out[i] = Hub{Key: h.Key, Preset: h.Preset, HubRecord: h.HubRecord.clone()}
	}
	return out
}

// Presets returns the keys flagged as presets, in registry order.
func (r *Registry) Presets() []string {
	var keys []string
	for _, h := range r.hubs {
		if h.Preset {
			keys = append(keys, h.Key)
		}
	}
	return keys
}

// DefaultFocus is the map position before any request resolves: the first hub.
func (r *Registry) DefaultFocus() Coordinates {
	return r.hubs[0].Coordinates()
}

// Len returns the number of hubs.
func (r *Registry) Len() int {
	return len(r.hubs)
}
