package display

import (
	"context"
	"fmt"

	"github.com/vijayrajbudala/GIS-Application/arcgis"
)

// FeatureService renders graphics into an editable ArcGIS FeatureServer
// layer through applyEdits. The server assigns object ids.
type FeatureService struct {
	client   *arcgis.Client
	layerURL string
}

func NewFeatureService(client *arcgis.Client, layerURL string) *FeatureService {
	return &FeatureService{client: client, layerURL: layerURL}
}

// RenderExisting adds only the graphics whose object id the layer does not
// already hold, so restarting against the same layer does not duplicate points.
func (s *FeatureService) RenderExisting(ctx context.Context, graphics []Graphic) error {
	if len(graphics) == 0 {
		return nil
	}
	ids, err := s.client.QueryObjectIDs(ctx, s.layerURL)
	if err != nil {
		return err
	}
	present := make(map[int64]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}

	var adds []arcgis.Feature
	for _, g := range graphics {
		if !present[g.Attributes.ObjectID] {
			adds = append(adds, toFeature(g))
		}
	}
	if len(adds) == 0 {
		return nil
	}

	resp, err := s.client.ApplyEdits(ctx, s.layerURL, adds, nil)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range resp.AddResults {
		if !r.Success {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d features were rejected by %s", failed, len(adds), s.layerURL)
	}
	return nil
}

func (s *FeatureService) RenderNew(ctx context.Context, g Graphic) (int64, bool, error) {
	resp, err := s.client.ApplyEdits(ctx, s.layerURL, []arcgis.Feature{toFeature(g)}, nil)
	if err != nil {
		return 0, false, err
	}
	if len(resp.AddResults) == 0 {
		return 0, false, nil
	}
	r := resp.AddResults[0]
	if !r.Success {
		if r.Error != nil {
			return 0, false, fmt.Errorf("add rejected: %w", r.Error)
		}
		return 0, false, fmt.Errorf("add rejected by %s", s.layerURL)
	}
	if r.ObjectID == nil {
		return 0, false, nil
	}
	return *r.ObjectID, true, nil
}

func (s *FeatureService) Retract(ctx context.Context, id int64) error {
	resp, err := s.client.ApplyEdits(ctx, s.layerURL, nil, []int64{id})
	if err != nil {
		return err
	}
	if len(resp.DeleteResults) == 0 || !resp.DeleteResults[0].Success {
		return fmt.Errorf("delete of object id %d was not confirmed", id)
	}
	return nil
}

func toFeature(g Graphic) arcgis.Feature {
	return arcgis.Feature{
		Attributes: map[string]any{
			"OBJECTID": g.Attributes.ObjectID,
			"status":   g.Attributes.Status,
		},
		Geometry: g.Geometry,
	}
}
