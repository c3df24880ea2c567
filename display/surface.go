// Package display defines the Map Display Surface the feature store renders
// points through, with an in-process layer and an ArcGIS feature service
// implementation.
package display

import "context"

// SpatialReference identifies the coordinate system of a point.
type SpatialReference struct {
	WKID       int `json:"wkid,omitempty"`
	LatestWKID int `json:"latestWkid,omitempty"`
}

// Point is an Esri JSON point geometry.
type Point struct {
	X                float64           `json:"x"`
	Y                float64           `json:"y"`
	Z                *float64          `json:"z,omitempty"`
	SpatialReference *SpatialReference `json:"spatialReference,omitempty"`
}

// Attributes are the fields carried by every rendered point.
type Attributes struct {
	ObjectID int64  `json:"OBJECTID"`
	Status   string `json:"status"`
}

// Graphic is a point plus its attributes.
type Graphic struct {
	Geometry   Point      `json:"geometry"`
	Attributes Attributes `json:"attributes"`
}

// Surface renders graphics. Implementations are free to assign their own
// object ids to new graphics.
type Surface interface {
	// RenderExisting bulk-adds previously saved graphics.
	RenderExisting(ctx context.Context, graphics []Graphic) error

	// RenderNew adds one graphic. ok is false when the surface accepted the
	// graphic but reported no object id.
	RenderNew(ctx context.Context, g Graphic) (id int64, ok bool, err error)
}

// Retractor is implemented by surfaces that can take a rendered graphic back.
type Retractor interface {
	Retract(ctx context.Context, id int64) error
}
