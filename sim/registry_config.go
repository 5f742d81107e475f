package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RegistryFile is the YAML layout of a hub registry. Hubs are a list, not a
// map, so the first-match order of Resolve is the order written in the file.
type RegistryFile struct {
	Version string         `yaml:"version"`
	Hubs    []HubFileEntry `yaml:"hubs"`
}

// HubFileEntry is one hub in a registry file.
type HubFileEntry struct {
	Key       string               `yaml:"key"`
	Latitude  float64              `yaml:"latitude"`
	Longitude float64              `yaml:"longitude"`
	Preset    bool                 `yaml:"preset"`
	Parking   []CandidateFileEntry `yaml:"parking"`
}

// CandidateFileEntry is one parking candidate in a registry file.
// Category accepts the identifier or the display name. An omitted priority
// defaults to low; any other value must be high or low.
type CandidateFileEntry struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Distance int    `yaml:"distance"`
	Priority string `yaml:"priority"`
}

// LoadRegistry reads a YAML registry file with strict field checking:
// unknown keys are an error so typos never silently drop a hub attribute.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes and validates registry YAML.
func ParseRegistry(data []byte) (*Registry, error) {
	var file RegistryFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}
	hubs, err := file.toHubs()
	if err != nil {
		return nil, err
	}
	return NewRegistry(hubs)
}

func (f RegistryFile) toHubs() ([]Hub, error) {
	hubs := make([]Hub, 0, len(f.Hubs))
	for _, e := range f.Hubs {
		h := Hub{
			Key:    e.Key,
			Preset: e.Preset,
			HubRecord: HubRecord{
				Latitude:  e.Latitude,
				Longitude: e.Longitude,
			},
		}
		for _, p := range e.Parking {
			cat, err := ParseCategory(p.Category)
			if err != nil {
				return nil, fmt.Errorf("hub %q, candidate %q: %w", e.Key, p.Name, err)
			}
			prio := Priority(p.Priority)
			if prio == "" { // omitted in the file
				prio = PriorityLow
			}
			h.ParkingCandidates = append(h.ParkingCandidates, ParkingCandidate{
				Name:               p.Name,
				Category:           cat,
				BaseDistanceMeters: p.Distance,
				Priority:           prio,
			})
		}
		hubs = append(hubs, h)
	}
	return hubs, nil
}

// defaultHubs is the built-in Chongqing Jiefangbei district. Distances are
// line-of-sight and kept under 300m; walking detours are synthesized at assignment.
var defaultHubs = []Hub{
	{
		Key: "解放碑", Preset: true,
		HubRecord: HubRecord{Latitude: 29.557, Longitude: 106.577, ParkingCandidates: []ParkingCandidate{
			{Name: "都市庭院-小区共享车位", Category: CategoryResidentialShared, BaseDistanceMeters: 120, Priority: PriorityHigh},
			{Name: "临江门社区-路侧错时车位", Category: CategoryOldCommunityRetrofit, BaseDistanceMeters: 180, Priority: PriorityHigh},
			{Name: "大都会东方广场-地下车库", Category: CategoryCommercialShared, BaseDistanceMeters: 150, Priority: PriorityLow},
		}},
	},
	{
		Key: "WFC", Preset: true,
		HubRecord: HubRecord{Latitude: 29.558, Longitude: 106.578, ParkingCandidates: []ParkingCandidate{
			{Name: "环球金融中心-公寓区车位", Category: CategoryResidentialShared, BaseDistanceMeters: 50, Priority: PriorityHigh},
			{Name: "五四路社区-共享停车点", Category: CategoryResidentialShared, BaseDistanceMeters: 130, Priority: PriorityHigh},
		}},
	},
	{
		Key: "洪崖洞", Preset: true,
		HubRecord: HubRecord{Latitude: 29.563, Longitude: 106.583, ParkingCandidates: []ParkingCandidate{
			{Name: "沧白路社区-居民共享点", Category: CategoryResidentialShared, BaseDistanceMeters: 90, Priority: PriorityHigh},
			{Name: "棉花街小区-错时共享车库", Category: CategoryResidentialShared, BaseDistanceMeters: 150, Priority: PriorityHigh},
		}},
	},
	{
		Key: "八一广场",
		HubRecord: HubRecord{Latitude: 29.556, Longitude: 106.576, ParkingCandidates: []ParkingCandidate{
			{Name: "得意世界-住宅区车库", Category: CategoryResidentialShared, BaseDistanceMeters: 110, Priority: PriorityHigh},
			{Name: "八一广场-地下停车场", Category: CategoryCommercialShared, BaseDistanceMeters: 20, Priority: PriorityLow},
		}},
	},
	{
		Key: "来福士", Preset: true,
		HubRecord: HubRecord{Latitude: 29.566, Longitude: 106.587, ParkingCandidates: []ParkingCandidate{
			{Name: "长滨路小区-共享车位", Category: CategoryResidentialShared, BaseDistanceMeters: 150, Priority: PriorityHigh},
			{Name: "来福士广场-LG层共享区", Category: CategoryMixedUse, BaseDistanceMeters: 30, Priority: PriorityLow},
		}},
	},
}

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultHubs)
	if err != nil {
		panic(fmt.Sprintf("built-in registry is invalid: %v", err))
	}
	return r
}
