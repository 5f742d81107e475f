package api

import "github.com/parkos/parkos/sim"

// MapView locates the map viewport for the external tile viewer.
type MapView struct {
	Focus    sim.Coordinates `json:"focus"`
	BBox     sim.BoundingBox `json:"bbox"`
	BBoxText string          `json:"bboxText"`
	EmbedURL string          `json:"embedUrl"`
}

// SessionView is the presentation contract: the snapshot plus everything a
// client needs to draw it without further lookups.
type SessionView struct {
	sim.Snapshot
	Busy        bool     `json:"busy"`
	Presets     []string `json:"presets"`
	WalkMinutes int      `json:"walkMinutes,omitempty"`
	Map         MapView  `json:"map"`
}

// NewSessionView derives the presentation fields from snap.
func NewSessionView(snap sim.Snapshot, reg *sim.Registry) SessionView {
	presets := reg.Presets()
	if presets == nil {
		presets = []string{}
	}
	v := SessionView{
		Snapshot: snap,
		Busy:     snap.Status.Busy(),
		Presets:  presets,
		Map: MapView{
			Focus:    snap.MapFocus,
			BBox:     sim.BBoxAround(snap.MapFocus),
			BBoxText: sim.BBoxAround(snap.MapFocus).String(),
			EmbedURL: sim.EmbedURL(snap.MapFocus),
		},
	}
	if snap.Result != nil {
		v.WalkMinutes = snap.Result.WalkMinutes()
	}
	return v
}
