package features

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"

	"github.com/vijayrajbudala/GIS-Application/display"
)

// ExportFilename is the name the exported collection is downloaded as.
const ExportFilename = "local_service_requests.json"

// Export returns the whole collection as 2-space indented JSON.
func (s *LocalStore) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return nil, ErrNothingToExport
	}
	return json.MarshalIndent(s.records, "", "  ")
}

// GeoJSON returns the collection as a FeatureCollection in WGS84.
// Web Mercator points are unprojected; anything else is assumed to be lon/lat.
func (s *LocalStore) GeoJSON() ([]byte, error) {
	records := s.Records()
	fc := geojson.NewFeatureCollection()
	for _, r := range records {
		f := geojson.NewFeature(lonLat(r.Geometry))
		f.ID = r.ID
		f.Properties["id"] = r.ID
		f.Properties["status"] = r.Status
		fc.Append(f)
	}
	return fc.MarshalJSON()
}

func lonLat(p display.Point) orb.Point {
	pt := orb.Point{p.X, p.Y}
	if p.SpatialReference != nil && isWebMercator(p.SpatialReference) {
		return project.Mercator.ToWGS84(pt)
	}
	return pt
}

func isWebMercator(sr *display.SpatialReference) bool {
	for _, wkid := range []int{sr.WKID, sr.LatestWKID} {
		switch wkid {
		case 3857, 102100, 102113, 900913:
			return true
		}
	}
	return false
}
