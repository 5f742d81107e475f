package sim

import (
	"strconv"
	"strings"
)

// MapHalfWidthDegrees is the street-level half-width of the map viewport.
const MapHalfWidthDegrees = 0.0004

const osmEmbedBase = "https://www.openstreetmap.org/export/embed.html"

// BoundingBox is a lon/lat rectangle for the external tile viewer.
type BoundingBox struct {
	MinLon float64 `json:"minLon"`
	MinLat float64 `json:"minLat"`
	MaxLon float64 `json:"maxLon"`
	MaxLat float64 `json:"maxLat"`
}

// BBoxAround returns the fixed-size viewport centered on c.
func BBoxAround(c Coordinates) BoundingBox {
	return BoundingBox{
		MinLon: c.Longitude - MapHalfWidthDegrees,
		MinLat: c.Latitude - MapHalfWidthDegrees,
		MaxLon: c.Longitude + MapHalfWidthDegrees,
		MaxLat: c.Latitude + MapHalfWidthDegrees,
	}
}

// String renders "minLon,minLat,maxLon,maxLat" as the tile viewer expects.
func (b BoundingBox) String() string {
	parts := []string{
		strconv.FormatFloat(b.MinLon, 'f', -1, 64),
		strconv.FormatFloat(b.MinLat, 'f', -1, 64),
		strconv.FormatFloat(b.MaxLon, 'f', -1, 64),
		strconv.FormatFloat(b.MaxLat, 'f', -1, 64),
	}
	return strings.Join(parts, ",")
}

// EmbedURL returns the OpenStreetMap embed URL for the viewport around c.
func EmbedURL(c Coordinates) string {
	return osmEmbedBase + "?bbox=" + BBoxAround(c).String() + "&layer=mapnik"
}
